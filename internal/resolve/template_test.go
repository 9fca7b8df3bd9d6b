package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

func TestTemplate_Substitutions(t *testing.T) {
	ctx := model.Options{
		"member_name": "alice",
		"role_name":   "admins",
		"port":        22,
		"ratio":       1.0,
		"enabled":     true,
		"nothing":     nil,
		"hosts":       []any{"10.0.0.1", "10.0.0.2"},
		"meta":        map[string]any{"team": "infra", "n": 2},
		"quote":       "it's",
		"big":         1234567.5,
		"tiny":        0.00001,
		"huge":        1.5e16,
		"odd":         map[string]any{"a:b": "colon", "x!y": "bang"},
	}
	cases := map[string]string{
		"{member_name}@{role_name}": "alice@admins",
		"plain text":                "plain text",
		"{{literal}}":               "{literal}",
		"port={port}":               "port=22",
		"{ratio}":                   "1.0",
		"{enabled}":                 "True",
		"{nothing}":                 "None",
		"{hosts[1]}":                "10.0.0.2",
		"{hosts}":                   "['10.0.0.1', '10.0.0.2']",
		"{meta[team]}":              "infra",
		"{meta}":                    "{'n': 2, 'team': 'infra'}",
		"{member_name!r}":           "'alice'",
		"{member_name!s}":           "alice",
		"{quote!r}":                 `"it's"`,
		"{big}":                     "1234567.5",
		"{tiny}":                    "1e-05",
		"{huge}":                    "1.5e+16",
		"{odd[a:b]}":                "colon",
		"{odd[x!y]!r}":              "'bang'",
	}
	for tmpl, want := range cases {
		merged := ctx.Clone()
		merged["comment"] = tmpl
		out, err := Template(merged)
		if err != nil {
			t.Fatalf("template %q: unexpected error: %v", tmpl, err)
		}
		if out["comment"] != want {
			t.Fatalf("template %q: expected %q, got %q", tmpl, want, out["comment"])
		}
	}
}

func TestTemplate_KeyOptionsSeesFormattedComment(t *testing.T) {
	merged := model.Options{
		"member_name": "alice",
		"comment":     "{member_name}",
		"key_options": `environment="WHO={comment}"`,
	}
	out, err := Template(merged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["key_options"] != `environment="WHO=alice"` {
		t.Fatalf("unexpected key_options %q", out["key_options"])
	}
}

func TestTemplate_OtherFieldsUntouched(t *testing.T) {
	merged := model.Options{
		"key":     "ssh-ed25519 AAAA {member_name}",
		"comment": 42,
		"extra":   "{missing}",
	}
	out, err := Template(merged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["key"] != "ssh-ed25519 AAAA {member_name}" || out["extra"] != "{missing}" {
		t.Fatalf("non-templated fields changed: %v", out)
	}
	if out["comment"] != 42 {
		t.Fatalf("non-string comment must pass through, got %v", out["comment"])
	}
}

func TestTemplate_Failures(t *testing.T) {
	cases := map[string]string{
		"{nonexistent}":  "no value",
		"{}":             "positional",
		"{0}":            "positional",
		"{hosts[5]}":     "out of range",
		"{hosts[x]}":     "integers",
		"{member[x]}":    "not indexable",
		"{member:>10}":   "format spec",
		"{member!a}":     "conversion",
		"{member.upper}": "attribute",
		"open {":         "single '{'",
		"close }":        "single '}'",
		"{a{b}":          "unexpected '{'",
		"{hosts[0}":      "missing ']'",
	}
	for tmpl, reason := range cases {
		merged := model.Options{"member": "alice", "hosts": []any{"h"}, "key_options": tmpl}
		_, err := Template(merged)
		if err == nil {
			t.Fatalf("template %q: expected error", tmpl)
		}
		var te *Error
		if !errors.As(err, &te) || te.Kind != KindTemplateSubstitution {
			t.Fatalf("template %q: expected template error, got %T %v", tmpl, err, err)
		}
		if te.Field != "key_options" || te.Value != tmpl {
			t.Fatalf("template %q: wrong field/value %q %v", tmpl, te.Field, te.Value)
		}
		if !strings.Contains(te.Reason, reason) {
			t.Fatalf("template %q: reason %q does not mention %q", tmpl, te.Reason, reason)
		}
		if !strings.Contains(err.Error(), "key_options") || !strings.Contains(err.Error(), tmpl) {
			t.Fatalf("template %q: message %q lacks field or raw value", tmpl, err.Error())
		}
	}
}
