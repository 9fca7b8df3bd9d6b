// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package tables

import (
	"fmt"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

// normalize rewrites decoder output so every mapping is map[string]any.
// Non-string keys (YAML allows `22: x`) are stringified.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	}
	return v
}

func toAccess(v any) ([]model.ServiceEntry, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("access must be a list of entries, got %T", v)
	}
	out := make([]model.ServiceEntry, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("access entry %d must be a mapping, got %T", i, item)
		}
		out = append(out, model.Options(m))
	}
	return out, nil
}

// toOptionsMap converts name -> record mappings (roles, users). A null
// record is an empty one.
func toOptionsMap(v any, what string) (map[string]model.Options, error) {
	if v == nil {
		return map[string]model.Options{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a mapping of names to records, got %T", what, v)
	}
	out := make(map[string]model.Options, len(m))
	for name, item := range m {
		switch rec := item.(type) {
		case nil:
			out[name] = model.Options{}
		case map[string]any:
			out[name] = model.Options(rec)
		default:
			return nil, fmt.Errorf("%s entry %q must be a mapping, got %T", what, name, item)
		}
	}
	return out, nil
}

// toPasswd accepts the getent fact shape: login -> [password, uid, gid,
// gecos, home, shell]. Scalars inside the list are stringified.
func toPasswd(v any) (model.Passwd, error) {
	if v == nil {
		return model.Passwd{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("passwd must be a mapping of logins to field lists, got %T", v)
	}
	out := make(model.Passwd, len(m))
	for login, item := range m {
		list, ok := item.([]any)
		if !ok {
			return nil, fmt.Errorf("passwd entry %q must be a list, got %T", login, item)
		}
		entry := make(model.PasswdEntry, len(list))
		for i, f := range list {
			if f == nil {
				continue
			}
			entry[i] = fmt.Sprint(f)
		}
		out[login] = entry
	}
	return out, nil
}
