// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for authkeys.
//
// Usage:
//
//	go run . [flags] <command>
//	./authkeys --inventory inventory.yaml render
//
// See --help for commands and options.
package main

import (
	"fmt"
	"os"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
