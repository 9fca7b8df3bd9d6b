// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/i18n"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/resolve"
)

// FormatError turns an error from Execute into the message shown to the
// user, localised for resolution failures.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var re *resolve.Error
	if errors.As(err, &re) {
		return i18n.T("error."+re.Kind.String(), map[string]any{
			"Entry":  re.Entry,
			"Role":   re.Role,
			"Member": re.Member,
			"Login":  re.Login,
			"Field":  re.Field,
			"Value":  fmt.Sprint(re.Value),
			"Reason": re.Reason,
		})
	}
	var nl *noLoginError
	if errors.As(err, &nl) {
		return i18n.T("cli.no_login", map[string]any{"Login": nl.login})
	}
	return i18n.T("error.generic", err)
}
