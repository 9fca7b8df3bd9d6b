// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	cryptossh "github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/crypto/ssh"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/i18n"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/sshkey"
)

type styles struct {
	login  lipgloss.Style
	home   lipgloss.Style
	member lipgloss.Style
	role   lipgloss.Style
	dim    lipgloss.Style
}

// useColor decides whether output to w is styled for the given mode.
func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newStyles(w io.Writer, mode string) styles {
	r := lipgloss.NewRenderer(w)
	if useColor(w, mode) {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		login:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		home:   r.NewStyle().Foreground(lipgloss.Color("245")),
		member: r.NewStyle().Bold(true),
		role:   r.NewStyle().Foreground(lipgloss.Color("170")),
		dim:    r.NewStyle().Faint(true),
	}
}

// summary lists every account with its key entries, member and role
// columns aligned, and the SHA256 fingerprint of each key where the
// material decodes.
func summary(st styles, records []model.LoginRecord) string {
	if len(records) == 0 {
		return i18n.T("show.no_records") + "\n"
	}
	memberW, roleW := 0, 0
	for _, r := range records {
		for _, e := range r.SSHKeys {
			memberW = max(memberW, len(fmt.Sprint(e[model.FieldMemberName])))
			roleW = max(roleW, len(fmt.Sprint(e[model.FieldRoleName])))
		}
	}

	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			st.login.Render(r.Login),
			st.home.Render(r.Home),
			st.dim.Render(i18n.T("show.keys", len(r.SSHKeys))))
		for _, e := range r.SSHKeys {
			member := fmt.Sprint(e[model.FieldMemberName])
			role := fmt.Sprint(e[model.FieldRoleName])
			fp := "-"
			comment := ""
			if raw, ok := e.String(model.FieldKey); ok {
				if k, err := sshkey.Parse(raw); err == nil {
					if f := cryptossh.Fingerprint(k.Material()); f != "" {
						fp = f
					}
					comment = k.Comment
				}
			}
			if c, ok := e.String(model.FieldComment); ok && c != "" {
				comment = c
			}
			line := fmt.Sprintf("  %s  %s  %s",
				st.member.Render(fmt.Sprintf("%-*s", memberW, member)),
				st.role.Render(fmt.Sprintf("%-*s", roleW, role)),
				st.dim.Render(fp))
			if comment != "" {
				line += "  " + comment
			}
			b.WriteString(strings.TrimRight(line, " "))
			b.WriteString("\n")
		}
	}
	return b.String()
}
