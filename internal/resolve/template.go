// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

// templatedFields are formatted in this order, so key_options can refer to
// the already formatted comment.
var templatedFields = []string{model.FieldComment, model.FieldKeyOptions}

// Template formats the comment and key_options fields of merged in place,
// using merged itself as the placeholder context. The placeholder syntax is
// the str.format subset the inventories are written in: {name}, {name[key]},
// {name!r}, {name!s}, and {{ }} for literal braces. Fields that are absent
// or not strings are left alone.
func Template(merged model.Options) (model.Options, error) {
	for _, field := range templatedFields {
		raw, ok := merged[field].(string)
		if !ok {
			continue
		}
		out, err := format(raw, merged)
		if err != nil {
			return nil, &Error{
				Kind:    KindTemplateSubstitution,
				Field:   field,
				Value:   raw,
				Context: merged.Clone(),
				Reason:  err.Error(),
			}
		}
		merged[field] = out
	}
	return merged, nil
}

func format(tmpl string, ctx model.Options) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := -1
			for j := i + 1; j < len(tmpl); j++ {
				if tmpl[j] == '{' {
					return "", errors.New("unexpected '{' in field name")
				}
				if tmpl[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return "", errors.New("single '{' encountered in format string")
			}
			s, err := replacement(tmpl[i+1:end], ctx)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i = end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", errors.New("single '}' encountered in format string")
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// replacement evaluates one field: name[key]...!conv:spec.
func replacement(field string, ctx model.Options) (string, error) {
	conv, spec := "", ""
	if idx := fieldNameEnd(field); idx < len(field) {
		tail := field[idx:]
		field = field[:idx]
		if tail[0] == '!' {
			conv, spec, _ = strings.Cut(tail[1:], ":")
		} else {
			spec = tail[1:]
		}
	}
	if spec != "" {
		return "", fmt.Errorf("format spec %q is not supported", spec)
	}
	if conv != "" && conv != "s" && conv != "r" {
		return "", fmt.Errorf("unknown conversion specifier %q", conv)
	}

	name := field
	rest := ""
	if idx := strings.IndexAny(field, ".["); idx >= 0 {
		name, rest = field[:idx], field[idx:]
	}
	if name == "" || isDigits(name) {
		return "", fmt.Errorf("positional placeholder {%s} has no value, use a named field", field)
	}
	v, ok := ctx[name]
	if !ok {
		return "", fmt.Errorf("no value for placeholder %q", name)
	}

	for rest != "" {
		if rest[0] == '.' {
			return "", fmt.Errorf("attribute access in %q is not supported", field)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", errors.New("missing ']' in format string")
		}
		key := rest[1:end]
		rest = rest[end+1:]
		if rest != "" && rest[0] != '.' && rest[0] != '[' {
			return "", errors.New("only '.' or '[' may follow ']' in format field specifier")
		}
		next, err := index(v, key)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		v = next
	}

	if conv == "r" {
		return repr(v), nil
	}
	return str(v), nil
}

// fieldNameEnd returns the offset of the first '!' or ':' that is not
// inside [...] index text, or len(field).
func fieldNameEnd(field string) int {
	inIndex := false
	for i := 0; i < len(field); i++ {
		switch c := field[i]; {
		case c == '[':
			inIndex = true
		case c == ']':
			inIndex = false
		case !inIndex && (c == '!' || c == ':'):
			return i
		}
	}
	return len(field)
}

func index(v any, key string) (any, error) {
	switch c := v.(type) {
	case []any:
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("list indices must be integers, got %q", key)
		}
		if n < 0 || n >= len(c) {
			return nil, fmt.Errorf("index %d out of range", n)
		}
		return c[n], nil
	case []string:
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("list indices must be integers, got %q", key)
		}
		if n < 0 || n >= len(c) {
			return nil, fmt.Errorf("index %d out of range", n)
		}
		return c[n], nil
	case map[string]any:
		item, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("no key %q", key)
		}
		return item, nil
	case model.Options:
		item, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("no key %q", key)
		}
		return item, nil
	}
	return nil, fmt.Errorf("%T is not indexable", v)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
