// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

package config

// Config is the CLI configuration.
type Config struct {
	// Inventory is a combined document holding every table.
	Inventory string       `mapstructure:"inventory" yaml:"inventory"`
	Tables    TablesConfig `mapstructure:"tables" yaml:"tables"`
	Output    OutputConfig `mapstructure:"output" yaml:"output"`
	Language  string       `mapstructure:"language" yaml:"language"`
	Log       LogConfig    `mapstructure:"log" yaml:"log"`
	// Color is auto, always or never.
	Color string `mapstructure:"color" yaml:"color"`
}

// TablesConfig names per-table files that override the inventory.
type TablesConfig struct {
	Access       string `mapstructure:"access" yaml:"access"`
	Roles        string `mapstructure:"roles" yaml:"roles"`
	Users        string `mapstructure:"users" yaml:"users"`
	Passwd       string `mapstructure:"passwd" yaml:"passwd"`
	PasswdFormat string `mapstructure:"passwd_format" yaml:"passwd_format"`

	// PasswdFallback is read when neither Passwd nor the inventory
	// provides a passwd table.
	PasswdFallback string `mapstructure:"passwd_fallback" yaml:"passwd_fallback"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults returns the built-in configuration values keyed by config key.
// Every key is listed, empty or not, so AUTHKEYS_* variables reach Unmarshal.
func Defaults() map[string]any {
	return map[string]any{
		"inventory":              "",
		"tables.access":          "",
		"tables.roles":           "",
		"tables.users":           "",
		"tables.passwd":          "",
		"tables.passwd_format":   "auto",
		"tables.passwd_fallback": "/etc/passwd",
		"output.format":          "json",
		"language":               "en",
		"log.level":              "warn",
		"color":                  "auto",
	}
}

// FlagKeys maps nested config keys to the flag names that set them.
var FlagKeys = map[string]string{
	"tables.access":        "access",
	"tables.roles":         "roles",
	"tables.users":         "users",
	"tables.passwd":        "passwd",
	"tables.passwd_format": "passwd-format",
	"output.format":        "format",
	"log.level":            "log-level",
}
