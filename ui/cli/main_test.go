// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/i18n"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/resolve"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/tables"
)

const testInventory = `
access:
  - role_name: admins
    key_options: 'from="10.0.0.0/8"'
  - role_name: ops
roles:
  admins:
    users: [alice, bob]
  ops:
    users: [carol]
    login: deploy
users:
  alice:
    key: ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIA alice@laptop
    comment: "{member_name}@{role_name}"
  bob:
    login: deploy
    key: ssh-rsa AAAAB3NzaC1yc2E bob@desk
  carol:
    key: ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIB
passwd:
  root: [x, 0, 0, root, /root, /bin/bash]
  deploy: [x, 1000, 1000, Deploy, /home/deploy, /bin/bash]
`

// setupTestEnv writes the inventory into a temp dir and isolates the run
// from any user configuration.
func setupTestEnv(t *testing.T, inventory string) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	p := filepath.Join(tmp, "inventory.yaml")
	if err := os.WriteFile(p, []byte(inventory), 0o600); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	t.Cleanup(func() { i18n.Init("en") })
	return p
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCmd_JSON(t *testing.T) {
	inv := setupTestEnv(t, testInventory)
	out, err := runCmd(t, "--inventory", inv, "resolve")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got []struct {
		Login   string           `json:"login"`
		Home    string           `json:"home"`
		SSHKeys []map[string]any `json:"ssh_keys"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0].Login != "root" || got[1].Login != "deploy" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].SSHKeys[0]["comment"] != "alice@admins" {
		t.Fatalf("comment not templated: %v", got[0].SSHKeys[0])
	}
	if len(got[1].SSHKeys) != 2 || got[1].Home != "/home/deploy" {
		t.Fatalf("unexpected deploy record: %+v", got[1])
	}
}

func TestResolveCmd_YAMLFlag(t *testing.T) {
	inv := setupTestEnv(t, testInventory)
	out, err := runCmd(t, "--inventory", inv, "resolve", "--format", "yaml")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, "login: deploy") || !strings.Contains(out, "ssh_keys:") {
		t.Fatalf("expected YAML output, got:\n%s", out)
	}
}

func TestRenderCmd_AllAndSingle(t *testing.T) {
	inv := setupTestEnv(t, testInventory)
	out, err := runCmd(t, "--inventory", inv, "render")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "# authkeys managed keys for root (/root)") ||
		!strings.Contains(out, "# authkeys managed keys for deploy (/home/deploy)") {
		t.Fatalf("missing account headers:\n%s", out)
	}
	if !strings.Contains(out, `from="10.0.0.0/8" ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIA alice@admins`) {
		t.Fatalf("missing templated alice line:\n%s", out)
	}

	single, err := runCmd(t, "--inventory", inv, "render", "--login", "deploy")
	if err != nil {
		t.Fatalf("render --login: %v", err)
	}
	if strings.Contains(single, "for root") {
		t.Fatalf("root rendered despite --login deploy:\n%s", single)
	}
	lines := strings.Split(strings.TrimSpace(single), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two keys, got %d lines:\n%s", len(lines), single)
	}
	if lines[1] != `from="10.0.0.0/8" ssh-rsa AAAAB3NzaC1yc2E bob@desk` {
		t.Fatalf("unexpected bob line %q", lines[1])
	}

	_, err = runCmd(t, "--inventory", inv, "render", "--login", "nobody")
	if !errors.Is(err, errNoLogin) {
		t.Fatalf("expected errNoLogin, got %v", err)
	}
	if msg := FormatError(err); !strings.Contains(msg, "nobody") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestShowCmd_PlainSummary(t *testing.T) {
	inv := setupTestEnv(t, testInventory)
	out, err := runCmd(t, "--inventory", inv, "--color", "never", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"root /root 1 key(s)", "deploy /home/deploy 2 key(s)", "alice", "admins", "alice@admins", "carol"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("escape codes with --color never:\n%q", out)
	}
}

func TestResolveCmd_UnknownLoginIsLocalised(t *testing.T) {
	inv := setupTestEnv(t, strings.Replace(testInventory, "login: deploy\n    key: ssh-rsa", "login: ghost\n    key: ssh-rsa", 1))
	out, err := runCmd(t, "--inventory", inv, "--language", "de", "resolve")
	if !errors.Is(err, resolve.ErrUnknownLogin) {
		t.Fatalf("expected unknown login, got %v", err)
	}
	if out != "" {
		t.Fatalf("no partial output expected, got %q", out)
	}
	msg := FormatError(err)
	if !strings.Contains(msg, "ghost") || !strings.Contains(msg, "Zielhost") {
		t.Fatalf("expected German message naming the login, got %q", msg)
	}
}

func TestResolveCmd_MissingPasswd(t *testing.T) {
	inv := setupTestEnv(t, "access: []\n")
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := runCmd(t, "--inventory", inv, "--passwd", missing, "resolve")
	if err == nil {
		t.Fatalf("expected error for unreadable passwd")
	}

	t.Setenv("AUTHKEYS_TABLES_PASSWD_FALLBACK", "")
	_, err = runCmd(t, "--inventory", inv, "resolve")
	if !errors.Is(err, tables.ErrNoSource) {
		t.Fatalf("expected ErrNoSource without any passwd source, got %v", err)
	}
}

func TestConfigFlag_MissingFile(t *testing.T) {
	setupTestEnv(t, testInventory)
	_, err := runCmd(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	if err == nil || !strings.Contains(err.Error(), "--config") {
		t.Fatalf("expected --config error, got %v", err)
	}
}

func TestConfigWriteCmd(t *testing.T) {
	inv := setupTestEnv(t, testInventory)
	if _, err := runCmd(t, "--inventory", inv, "config", "write"); err != nil {
		t.Fatalf("config write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "authkeys", "authkeys.yaml"))
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if !strings.Contains(string(data), inv) {
		t.Fatalf("written config lacks inventory path:\n%s", data)
	}
}

func TestFormatError_Generic(t *testing.T) {
	i18n.Init("en")
	if got := FormatError(errors.New("boom")); got != "Error: boom" {
		t.Fatalf("unexpected generic message %q", got)
	}
	if FormatError(nil) != "" {
		t.Fatalf("expected empty message for nil error")
	}
}

func TestVersionCmd(t *testing.T) {
	setupTestEnv(t, testInventory)
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "version: ") || !strings.Contains(out, "commit: ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestResolveBuildVersion_MainVersion(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: modulePath, Version: "v1.2.3"},
	}
	v, c, d := resolveBuildVersion(info)
	if v != "v1.2.3" {
		t.Fatalf("expected v1.2.3 got %s", v)
	}
	if c != gitCommit {
		t.Fatalf("expected commit to equal package gitCommit (default) got %s", c)
	}
	if d != buildDate {
		t.Fatalf("expected date to equal package buildDate (default) got %s", d)
	}
}

func TestResolveBuildVersion_DependencyFallback(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: modulePath, Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: modulePath, Version: "v0.3.1-0.20260130131337-d1692e4643ee"},
		},
	}
	v, _, _ := resolveBuildVersion(info)
	if v != "v0.3.1-0.20260130131337-d1692e4643ee" {
		t.Fatalf("expected dependency version fallback got %s", v)
	}
}

func TestResolveBuildVersion_GitCommitFallback(t *testing.T) {
	orig := gitCommit
	defer func() { gitCommit = orig }()
	gitCommit = "deadbeef"
	info := &debug.BuildInfo{
		Main: debug.Module{Path: modulePath, Version: "(devel)"},
	}
	v, _, _ := resolveBuildVersion(info)
	if v != "deadbeef" {
		t.Fatalf("expected gitCommit fallback got %s", v)
	}
}
