// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package resolve

import (
	"fmt"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

// Kind classifies a resolution failure. Every kind is a configuration
// authoring error; none is retryable.
type Kind int

const (
	KindMissingRoleReference Kind = iota + 1
	KindUnknownRole
	KindMissingMemberList
	KindInvalidMemberList
	KindUnknownMember
	KindInvalidLogin
	KindUnknownLogin
	KindMalformedPasswd
	KindTemplateSubstitution
)

var kindNames = map[Kind]string{
	KindMissingRoleReference: "missing_role_reference",
	KindUnknownRole:          "unknown_role",
	KindMissingMemberList:    "missing_member_list",
	KindInvalidMemberList:    "invalid_member_list",
	KindUnknownMember:        "unknown_member",
	KindInvalidLogin:         "invalid_login",
	KindUnknownLogin:         "unknown_login",
	KindMalformedPasswd:      "malformed_passwd",
	KindTemplateSubstitution: "template_substitution",
}

// Kinds lists every failure kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindMissingRoleReference; k <= KindTemplateSubstitution; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type returned by Resolve and Template. Only the
// fields relevant to Kind are set.
type Error struct {
	Kind Kind

	// Entry is the index of the service-access entry being processed.
	Entry int

	Role   string
	Member string
	Login  string

	// Field and Value name the offending option and its raw value.
	Field string
	Value any

	// Context is the full merged option set for template failures.
	Context model.Options

	// Reason is a short description of what went wrong in a template.
	Reason string
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrMissingRoleReference = &Error{Kind: KindMissingRoleReference}
	ErrUnknownRole          = &Error{Kind: KindUnknownRole}
	ErrMissingMemberList    = &Error{Kind: KindMissingMemberList}
	ErrInvalidMemberList    = &Error{Kind: KindInvalidMemberList}
	ErrUnknownMember        = &Error{Kind: KindUnknownMember}
	ErrInvalidLogin         = &Error{Kind: KindInvalidLogin}
	ErrUnknownLogin         = &Error{Kind: KindUnknownLogin}
	ErrMalformedPasswd      = &Error{Kind: KindMalformedPasswd}
	ErrTemplateSubstitution = &Error{Kind: KindTemplateSubstitution}
)

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingRoleReference:
		return fmt.Sprintf("access entry %d: %s not set", e.Entry, model.FieldRoleName)
	case KindUnknownRole:
		return fmt.Sprintf("access entry %d: role `%s` is not defined", e.Entry, e.Role)
	case KindMissingMemberList:
		return fmt.Sprintf("role `%s`: %s not set", e.Role, model.FieldUsers)
	case KindInvalidMemberList:
		return fmt.Sprintf("role `%s`: %s must be a list of names, got %T", e.Role, model.FieldUsers, e.Value)
	case KindUnknownMember:
		return fmt.Sprintf("role `%s`: member `%s` is not defined", e.Role, e.Member)
	case KindInvalidLogin:
		return fmt.Sprintf("the login for `%s` of `%s` must be a string, got %T", e.Member, e.Role, e.Value)
	case KindUnknownLogin:
		return fmt.Sprintf("the user `%s` for `%s` of `%s` does not exist on the target-host", e.Login, e.Member, e.Role)
	case KindMalformedPasswd:
		return fmt.Sprintf("passwd entry for `%s` has no home field", e.Login)
	case KindTemplateSubstitution:
		return fmt.Sprintf("unable to format `%s`=`%v` with `%v`: %s", e.Field, e.Value, map[string]any(e.Context), e.Reason)
	}
	return e.Kind.String()
}
