// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the tables consumed by the resolver and the
// per-login records it produces. Option records are plain maps so any
// decoder (YAML, JSON, inline test literals) can feed them directly.
package model

import "fmt"

// Reserved option names. Everything else in an option record is opaque and
// flows through the merge untouched.
const (
	FieldRoleName   = "role_name"
	FieldUsers      = "users"
	FieldMemberName = "member_name"
	FieldLogin      = "login"
	FieldComment    = "comment"
	FieldKeyOptions = "key_options"
	FieldKey        = "key"
)

// DefaultLogin is the account used when no layer names a login.
const DefaultLogin = "root"

// HomeField is the position of the home directory in a PasswdEntry.
const HomeField = 4

// Options is one layer of key-entry options, or the merge of several.
type Options map[string]any

// ServiceEntry grants a role access to the service and carries
// service-scoped overrides. It must name the role under FieldRoleName.
type ServiceEntry = Options

// Role lists its members under FieldUsers and carries role-scoped overrides.
type Role = Options

// Member is a person's base configuration: default login, key material and
// option defaults.
type Member = Options

// Clone returns a shallow copy of o. Nested values are shared.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// String returns the string value stored under key, if it is a string.
func (o Options) String(key string) (string, bool) {
	v, ok := o[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// PasswdEntry holds the passwd(5) fields that follow the login name:
// password, uid, gid, gecos, home, shell. This is the shape of the getent
// passwd fact.
type PasswdEntry []string

// Home returns the home directory field.
func (p PasswdEntry) Home() (string, bool) {
	if len(p) <= HomeField {
		return "", false
	}
	return p[HomeField], true
}

// Passwd maps OS login names to their passwd entries.
type Passwd map[string]PasswdEntry

// Tables bundles the four inputs of one resolution.
type Tables struct {
	Access []ServiceEntry
	Roles  map[string]Role
	Users  map[string]Member
	Passwd Passwd
}

// LoginRecord is one OS account and every key entry destined for it, in
// the order they were resolved.
type LoginRecord struct {
	Login   string    `json:"login" yaml:"login"`
	Home    string    `json:"home" yaml:"home"`
	SSHKeys []Options `json:"ssh_keys" yaml:"ssh_keys"`
}

// String returns the login@home representation.
func (r LoginRecord) String() string {
	return fmt.Sprintf("%s@%s", r.Login, r.Home)
}
