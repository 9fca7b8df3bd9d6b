// Copyright (c) 2026 Keymaster Team
// authkeys - SSH authorized_keys access resolver
// This source code is licensed under the MIT license found in the LICENSE file.

// Package passwd reads passwd(5) databases into the login -> fields table
// the resolver checks logins against.
package passwd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mrge-group/ansible-role-ssh-authorized-keys/internal/model"
)

// fieldCount is the number of colon-separated fields on a passwd line,
// login included.
const fieldCount = 7

// Parse reads passwd(5) lines (name:password:uid:gid:gecos:home:shell).
// Blank lines, comments and NIS compat entries (+name, -name) are skipped.
// When a login appears twice the first entry wins, as with getpwnam.
func Parse(r io.Reader) (model.Passwd, error) {
	out := make(model.Passwd)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line[0] == '+' || line[0] == '-' {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("passwd line %d: expected %d fields, got %d", lineNo, fieldCount, len(fields))
		}
		login := fields[0]
		if login == "" {
			return nil, fmt.Errorf("passwd line %d: empty login name", lineNo)
		}
		if _, seen := out[login]; seen {
			continue
		}
		out[login] = model.PasswdEntry(fields[1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading passwd: %w", err)
	}
	return out, nil
}
