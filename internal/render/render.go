// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package render turns resolved login records into authorized_keys content
// or a serialized document.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/sshkey"
)

// ErrMissingKey is returned for a key entry without key material.
var ErrMissingKey = errors.New("key entry has no key material")

// Output formats for Marshal.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Line renders one key entry as an authorized_keys line. The merged
// key_options and comment replace whatever the key material carried.
func Line(entry model.Options) (string, error) {
	raw, ok := entry.String(model.FieldKey)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrMissingKey
	}
	k, err := sshkey.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("key of %v: %w", entry[model.FieldMemberName], err)
	}
	if opts := text(entry, model.FieldKeyOptions); opts != "" {
		k.Options = opts
	}
	if comment := text(entry, model.FieldComment); comment != "" {
		k.Comment = comment
	}
	return k.String(), nil
}

// AuthorizedKeys renders the whole authorized_keys file for one login, in
// entry order.
func AuthorizedKeys(rec model.LoginRecord) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# authkeys managed keys for %s (%s)\n", rec.Login, rec.Home))
	if len(rec.SSHKeys) == 0 {
		b.WriteString("# No keys resolved for this account.\n")
		return b.String(), nil
	}
	for _, entry := range rec.SSHKeys {
		line, err := Line(entry)
		if err != nil {
			return "", fmt.Errorf("login %s, member %v of %v: %w",
				rec.Login, entry[model.FieldMemberName], entry[model.FieldRoleName], err)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Marshal serializes records as indented JSON or YAML.
func Marshal(records []model.LoginRecord, format string) ([]byte, error) {
	if records == nil {
		records = []model.LoginRecord{}
	}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML, "yml":
		out, err := yaml.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func text(entry model.Options, key string) string {
	v, ok := entry[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
