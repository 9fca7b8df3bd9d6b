// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tables loads the resolver's four input tables from YAML, JSON or
// JSONC files, optionally zstd-compressed. Decoded documents are normalised
// to map[string]any, []any and scalars before they reach the resolver.
package tables

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/logging"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/passwd"
)

// ErrNoSource is returned when a required table has no file to load from.
var ErrNoSource = errors.New("no source configured")

// Passwd file formats.
const (
	FormatAuto   = "auto"
	FormatPasswd = "passwd"
	FormatYAML   = "yaml"
)

// Inventory section names. The ssh_authorized_keys_* spellings are the
// variable names used by existing playbooks.
var (
	accessKeys = []string{"access", "ssh_authorized_keys_access"}
	rolesKeys  = []string{"roles", "ssh_authorized_keys_roles"}
	usersKeys  = []string{"users", "ssh_authorized_keys_users"}
	passwdKeys = []string{"passwd", "getent_passwd"}
)

// Sources names the files to load. Per-table files override the matching
// section of Inventory.
type Sources struct {
	Inventory      string
	Access         string
	Roles          string
	Users          string
	Passwd         string
	PasswdFormat   string
	// PasswdFallback is read when no other source provides passwd.
	PasswdFallback string
}

// Load reads every configured source into one set of tables. The access and
// passwd tables are required; roles and users may be absent, in which case
// any reference to them fails resolution.
func Load(src Sources) (model.Tables, error) {
	var t model.Tables
	var haveAccess bool

	if src.Inventory != "" {
		inv, err := LoadInventory(src.Inventory)
		if err != nil {
			return t, err
		}
		t = inv
		haveAccess = inv.Access != nil
	}
	if src.Access != "" {
		access, err := LoadAccess(src.Access)
		if err != nil {
			return t, err
		}
		t.Access, haveAccess = access, true
	}
	if src.Roles != "" {
		roles, err := LoadRoles(src.Roles)
		if err != nil {
			return t, err
		}
		t.Roles = roles
	}
	if src.Users != "" {
		users, err := LoadUsers(src.Users)
		if err != nil {
			return t, err
		}
		t.Users = users
	}
	if src.Passwd != "" {
		pw, err := LoadPasswd(src.Passwd, src.PasswdFormat)
		if err != nil {
			return t, err
		}
		t.Passwd = pw
	}
	if t.Passwd == nil && src.PasswdFallback != "" {
		logging.Debugf("no passwd table configured, reading %s", src.PasswdFallback)
		pw, err := LoadPasswd(src.PasswdFallback, src.PasswdFormat)
		if err != nil {
			return t, err
		}
		t.Passwd = pw
	}

	if !haveAccess {
		return t, fmt.Errorf("access table: %w", ErrNoSource)
	}
	if t.Passwd == nil {
		return t, fmt.Errorf("passwd table: %w", ErrNoSource)
	}
	logging.Debugf("loaded %d access entries, %d roles, %d users, %d logins",
		len(t.Access), len(t.Roles), len(t.Users), len(t.Passwd))
	return t, nil
}

// LoadInventory reads a combined document with access, roles, users and
// optionally passwd sections.
func LoadInventory(path string) (model.Tables, error) {
	var t model.Tables
	doc, err := decodeFile(path)
	if err != nil {
		return t, err
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return t, fmt.Errorf("%s: inventory must be a mapping, got %T", path, doc)
	}
	if v, ok := section(root, accessKeys); ok {
		if t.Access, err = toAccess(v); err != nil {
			return t, fmt.Errorf("%s: %w", path, err)
		}
		if t.Access == nil {
			t.Access = []model.ServiceEntry{}
		}
	}
	if v, ok := section(root, rolesKeys); ok {
		if t.Roles, err = toOptionsMap(v, "roles"); err != nil {
			return t, fmt.Errorf("%s: %w", path, err)
		}
	}
	if v, ok := section(root, usersKeys); ok {
		if t.Users, err = toOptionsMap(v, "users"); err != nil {
			return t, fmt.Errorf("%s: %w", path, err)
		}
	}
	if v, ok := section(root, passwdKeys); ok {
		if t.Passwd, err = toPasswd(v); err != nil {
			return t, fmt.Errorf("%s: %w", path, err)
		}
	}
	return t, nil
}

// LoadAccess reads a file holding a sequence of access entries.
func LoadAccess(path string) ([]model.ServiceEntry, error) {
	doc, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	access, err := toAccess(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if access == nil {
		access = []model.ServiceEntry{}
	}
	return access, nil
}

// LoadRoles reads a file mapping role names to role records.
func LoadRoles(path string) (map[string]model.Role, error) {
	doc, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	roles, err := toOptionsMap(doc, "roles")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roles, nil
}

// LoadUsers reads a file mapping member names to member records.
func LoadUsers(path string) (map[string]model.Member, error) {
	doc, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	users, err := toOptionsMap(doc, "users")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return users, nil
}

// LoadPasswd reads a passwd database. With FormatAuto, .yaml, .yml, .json
// and .jsonc files are read as a login -> fields mapping and anything else
// as passwd(5).
func LoadPasswd(path, format string) (model.Passwd, error) {
	if format == "" || format == FormatAuto {
		switch baseExt(path) {
		case ".yaml", ".yml", ".json", ".jsonc":
			format = FormatYAML
		default:
			format = FormatPasswd
		}
	}
	switch format {
	case FormatPasswd:
		rc, err := Open(path)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		pw, err := passwd.Parse(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return pw, nil
	case FormatYAML:
		doc, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		pw, err := toPasswd(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return pw, nil
	}
	return nil, fmt.Errorf("unknown passwd format %q", format)
}

func decodeFile(path string) (any, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return normalize(doc), nil
}

func section(root map[string]any, names []string) (any, bool) {
	for _, n := range names {
		if v, ok := root[n]; ok {
			return v, true
		}
	}
	return nil, false
}
