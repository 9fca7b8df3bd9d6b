// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	xssh "golang.org/x/crypto/ssh"
)

func TestFingerprint_MatchesLibrary(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sshPub, err := xssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	line := strings.TrimSpace(string(xssh.MarshalAuthorizedKey(sshPub))) + " alice@admins"

	got := Fingerprint(line)
	if got != xssh.FingerprintSHA256(sshPub) {
		t.Fatalf("unexpected fingerprint %q", got)
	}
	if !strings.HasPrefix(got, "SHA256:") {
		t.Fatalf("expected SHA256 prefix, got %q", got)
	}
}

func TestFingerprint_UndecodableIsEmpty(t *testing.T) {
	if got := Fingerprint("ssh-ed25519 not-base64"); got != "" {
		t.Fatalf("expected empty fingerprint, got %q", got)
	}
}
