// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey splits authorized_keys style key material into its parts.
// It does not decode or verify the key blob.
package sshkey

import (
	"fmt"
	"strings"
)

// Key is one authorized_keys line broken into its parts.
type Key struct {
	Options   string
	Algorithm string
	Data      string
	Comment   string
}

// String reassembles the line.
func (k Key) String() string {
	parts := make([]string, 0, 4)
	if k.Options != "" {
		parts = append(parts, k.Options)
	}
	parts = append(parts, k.Algorithm, k.Data)
	if k.Comment != "" {
		parts = append(parts, k.Comment)
	}
	return strings.Join(parts, " ")
}

// Material returns "algorithm data", the part that identifies the key.
func (k Key) Material() string {
	return k.Algorithm + " " + k.Data
}

// isAlgorithm reports whether field looks like a key type. Security-key
// types (sk-...) are included.
func isAlgorithm(field string) bool {
	return strings.HasPrefix(field, "ssh-") ||
		strings.HasPrefix(field, "ecdsa-") ||
		strings.HasPrefix(field, "sk-")
}

// Parse splits a raw public key string (like one from an authorized_keys
// file) into options, algorithm, key data and comment. Whitespace inside
// double-quoted option values (with \" escapes) does not separate fields,
// and the options prefix is kept exactly as written.
func Parse(rawKey string) (Key, error) {
	var k Key
	line := strings.TrimSpace(rawKey)
	if line == "" {
		return k, fmt.Errorf("empty line")
	}

	algStart, algEnd, err := findAlgorithm(line)
	if err != nil {
		return k, err
	}

	rest := strings.Fields(line[algEnd:])
	if len(rest) == 0 {
		return k, fmt.Errorf("invalid public key format: missing key data after algorithm")
	}

	k.Options = strings.TrimSpace(line[:algStart])
	k.Algorithm = line[algStart:algEnd]
	k.Data = rest[0]
	if len(rest) > 1 {
		k.Comment = strings.Join(rest[1:], " ")
	}
	return k, nil
}

// findAlgorithm returns the byte range of the first unquoted field that
// names a key type.
func findAlgorithm(line string) (int, int, error) {
	start := -1
	quoted := false
	for i := 0; i <= len(line); i++ {
		if i < len(line) {
			c := line[i]
			switch {
			case quoted && c == '\\' && i+1 < len(line):
				i++
				continue
			case c == '"':
				if start < 0 {
					start = i
				}
				quoted = !quoted
				continue
			case quoted || (c != ' ' && c != '\t'):
				if start < 0 {
					start = i
				}
				continue
			}
		}
		if start >= 0 {
			field := line[start:i]
			if !strings.ContainsRune(field, '"') && isAlgorithm(field) {
				return start, i, nil
			}
			start = -1
		}
	}
	if quoted {
		return 0, 0, fmt.Errorf("unterminated quote in key options")
	}
	return 0, 0, fmt.Errorf("no valid SSH key type found in line")
}
