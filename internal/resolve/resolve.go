// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package resolve merges service-access grants, roles, members and the host
// passwd database into one record per OS login, ready to be rendered into
// authorized_keys. It performs no I/O and never modifies its inputs, so the
// same tables may be resolved repeatedly or concurrently.
package resolve

import (
	"fmt"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

// ResolveTables is Resolve with the tables passed separately.
func ResolveTables(access []model.ServiceEntry, roles map[string]model.Role, users map[string]model.Member, passwd model.Passwd) ([]model.LoginRecord, error) {
	return Resolve(model.Tables{Access: access, Roles: roles, Users: users, Passwd: passwd})
}

// Resolve walks every access entry in order, expands its role into members
// and files one merged key entry per (entry, member) under the member's
// effective login. Logins are returned in order of first appearance.
//
// Merge precedence, lowest first: member, role, access entry. role_name and
// member_name are then set from the names actually being processed and
// login is removed, defaulting to "root".
func Resolve(t model.Tables) ([]model.LoginRecord, error) {
	var order []string
	buckets := make(map[string]*model.LoginRecord)

	for i, entry := range t.Access {
		roleName, err := roleReference(i, entry)
		if err != nil {
			return nil, err
		}
		role, ok := t.Roles[roleName]
		if !ok {
			return nil, &Error{Kind: KindUnknownRole, Entry: i, Role: roleName}
		}
		members, err := memberList(i, roleName, role)
		if err != nil {
			return nil, err
		}

		for _, memberName := range members {
			member, ok := t.Users[memberName]
			if !ok {
				return nil, &Error{Kind: KindUnknownMember, Entry: i, Role: roleName, Member: memberName}
			}

			merged := make(model.Options, len(member)+len(role)+len(entry)+2)
			overlay(merged, member)
			overlay(merged, role, model.FieldUsers)
			overlay(merged, entry, model.FieldRoleName)
			merged[model.FieldRoleName] = roleName
			merged[model.FieldMemberName] = memberName

			login := model.DefaultLogin
			if v, ok := merged[model.FieldLogin]; ok {
				s, isString := v.(string)
				if !isString {
					return nil, &Error{Kind: KindInvalidLogin, Entry: i, Role: roleName, Member: memberName, Field: model.FieldLogin, Value: v}
				}
				login = s
				delete(merged, model.FieldLogin)
			}

			pw, ok := t.Passwd[login]
			if !ok {
				return nil, &Error{Kind: KindUnknownLogin, Entry: i, Role: roleName, Member: memberName, Login: login}
			}

			bucket, ok := buckets[login]
			if !ok {
				// home is fixed by the first entry that reaches this login
				home, ok := pw.Home()
				if !ok {
					return nil, &Error{Kind: KindMalformedPasswd, Entry: i, Role: roleName, Member: memberName, Login: login, Value: []string(pw)}
				}
				bucket = &model.LoginRecord{Login: login, Home: home, SSHKeys: []model.Options{}}
				buckets[login] = bucket
				order = append(order, login)
			}

			templated, err := Template(merged)
			if err != nil {
				if te, ok := err.(*Error); ok {
					te.Entry, te.Role, te.Member, te.Login = i, roleName, memberName, login
				}
				return nil, err
			}
			bucket.SSHKeys = append(bucket.SSHKeys, templated)
		}
	}

	out := make([]model.LoginRecord, 0, len(order))
	for _, login := range order {
		out = append(out, *buckets[login])
	}
	return out, nil
}

func roleReference(i int, entry model.ServiceEntry) (string, error) {
	v, ok := entry[model.FieldRoleName]
	if !ok {
		return "", &Error{Kind: KindMissingRoleReference, Entry: i}
	}
	name, ok := v.(string)
	if !ok {
		// role names are strings, so nothing matches
		return "", &Error{Kind: KindUnknownRole, Entry: i, Role: fmt.Sprint(v), Field: model.FieldRoleName, Value: v}
	}
	return name, nil
}

// memberList accepts []string as well as the []any a YAML or JSON decoder
// produces, as long as every element is a string.
func memberList(i int, roleName string, role model.Role) ([]string, error) {
	v, ok := role[model.FieldUsers]
	if !ok {
		return nil, &Error{Kind: KindMissingMemberList, Entry: i, Role: roleName}
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &Error{Kind: KindInvalidMemberList, Entry: i, Role: roleName, Field: model.FieldUsers, Value: v}
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, &Error{Kind: KindInvalidMemberList, Entry: i, Role: roleName, Field: model.FieldUsers, Value: v}
}

// overlay copies src into dst, skipping the given keys. src is not modified.
func overlay(dst, src model.Options, skip ...string) {
next:
	for k, v := range src {
		for _, s := range skip {
			if k == s {
				continue next
			}
		}
		dst[k] = v
	}
}
