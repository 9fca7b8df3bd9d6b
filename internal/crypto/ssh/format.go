// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ssh wraps the golang.org/x/crypto/ssh helpers used for display.
package ssh

import (
	"golang.org/x/crypto/ssh"
)

// Fingerprint returns the SHA256 fingerprint of authorized_keys style key
// material, or "" when the material cannot be decoded. It is only used to
// label keys in summaries; emptiness is not an error.
func Fingerprint(material string) string {
	pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(material))
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(pk)
}
