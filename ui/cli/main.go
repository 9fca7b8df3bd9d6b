// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the authkeys command line: the root command with its
// persistent flags, configuration loading, and the version helpers.

package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/buildvars"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/config"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/i18n"
	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/logging"
)

const modulePath = "github.com/mrge-group/ansible-role-ssh-authorized-keys"

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var appConfig config.Config

// Execute builds the root command and runs it. The caller prints the
// returned error (see FormatError) and sets the exit code.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupDefaultServices loads the configuration and initialises logging and
// translations before any subcommand runs.
func setupDefaultServices(cmd *cobra.Command, _ []string) error {
	explicit, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, config.Defaults(), explicit)
	if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
		// Running on defaults, env and flags alone is normal.
		err = nil
	}
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if err := logging.SetLevel(appConfig.Log.Level); err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logging.SetDebug(true)
	}
	i18n.Init(appConfig.Language)
	logging.Debugf("config loaded: inventory=%q tables=%+v", appConfig.Inventory, appConfig.Tables)
	return nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	// Make sure the user-provided file exists to avoid unwanted behavior.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// NewRootCmd creates and configures a new root cobra command. Every call
// returns an independent command tree, which keeps tests isolated.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authkeys",
		Short: "authkeys resolves which SSH keys belong in which account's authorized_keys.",
		Long: `authkeys merges service access grants, role definitions, per-person key
records and the host's passwd database into one list of key entries per
OS account, and prints it as data or as ready authorized_keys content.

Nothing on the host is changed; output goes to stdout.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupDefaultServices,
	}
	cmd.Version = compositeVersion()

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging on stderr")
	pf.String("config", "", "config file")
	pf.StringP("inventory", "i", "", "Combined inventory with access, roles, users and passwd")
	pf.String("access", "", "Access table file (overrides the inventory)")
	pf.String("roles", "", "Roles table file (overrides the inventory)")
	pf.String("users", "", "Users table file (overrides the inventory)")
	pf.String("passwd", "", "passwd database (passwd(5) or YAML mapping)")
	pf.String("passwd-format", "auto", `passwd format ("auto", "passwd", "yaml")`)
	pf.String("language", "en", `Message language ("en", "de")`)
	pf.String("log-level", "warn", `Log level ("debug", "info", "warn", "error")`)
	pf.String("color", "auto", `Styled output ("auto", "always", "never")`)

	cmd.AddCommand(
		newResolveCmd(),
		newRenderCmd(),
		newShowCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
			return nil
		},
	}
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := buildvars.CommitOrDefault(gitCommit)
	resolvedDate := buildDate
	if buildvars.Date != "" {
		resolvedDate = buildvars.Date
	}

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// Some build paths only record our module as a dependency.
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == modulePath && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort show the commit given via ldflags to aid support.
	if resolvedVersion == "dev" && resolvedCommit != "dev" && resolvedCommit != "" {
		resolvedVersion = resolvedCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
