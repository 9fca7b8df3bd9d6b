// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/config"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/i18n"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/logging"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/render"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/resolve"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/tables"
)

// errNoLogin is returned by render --login for an account nothing resolved to.
var errNoLogin = errors.New("login not resolved")

type noLoginError struct{ login string }

func (e *noLoginError) Error() string { return fmt.Sprintf("no resolved account named %q", e.login) }
func (e *noLoginError) Unwrap() error { return errNoLogin }

// loadRecords loads the configured tables and resolves them.
func loadRecords() ([]model.LoginRecord, error) {
	t, err := tables.Load(tables.Sources{
		Inventory:      appConfig.Inventory,
		Access:         appConfig.Tables.Access,
		Roles:          appConfig.Tables.Roles,
		Users:          appConfig.Tables.Users,
		Passwd:         appConfig.Tables.Passwd,
		PasswdFormat:   appConfig.Tables.PasswdFormat,
		PasswdFallback: appConfig.Tables.PasswdFallback,
	})
	if err != nil {
		return nil, err
	}
	records, err := resolve.Resolve(t)
	if err != nil {
		return nil, err
	}
	entries := 0
	for _, r := range records {
		entries += len(r.SSHKeys)
	}
	logging.Debugf("resolved %d key entries into %d accounts", entries, len(records))
	return records, nil
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved per-account key entries as JSON or YAML",
		Long: `Resolves the configured tables and prints one record per OS account:
its login, home directory and every key entry with merged options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords()
			if err != nil {
				return err
			}
			out, err := render.Marshal(records, appConfig.Output.Format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringP("format", "f", "json", `Output format ("json", "yaml")`)
	return cmd
}

func newRenderCmd() *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print authorized_keys content for one or all accounts",
		Long: `Renders the authorized_keys content each account would receive. With
--login only that account is printed, without any separator, so the output
can be piped straight into a file by the caller.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords()
			if err != nil {
				return err
			}
			return writeAuthorizedKeys(cmd.OutOrStdout(), records, login)
		},
	}
	cmd.Flags().StringVarP(&login, "login", "l", "", "Only render this account")
	return cmd
}

func writeAuthorizedKeys(w io.Writer, records []model.LoginRecord, login string) error {
	if login != "" {
		for _, r := range records {
			if r.Login != login {
				continue
			}
			content, err := render.AuthorizedKeys(r)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, content)
			return err
		}
		return &noLoginError{login: login}
	}
	for i, r := range records {
		content, err := render.AuthorizedKeys(r)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, content); err != nil {
			return err
		}
	}
	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show a summary of accounts, members and key fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, err = io.WriteString(w, summary(newStyles(w, appConfig.Color), records))
			return err
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist the effective configuration",
	}
	var system bool
	write := &cobra.Command{
		Use:   "write",
		Short: "Write the effective configuration to the user (or system) config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(&appConfig, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.config_written", path))
			return nil
		},
	}
	write.Flags().BoolVar(&system, "system", false, "Write the system-wide config instead")
	cmd.AddCommand(write)
	return cmd
}
