package buildvars

import "testing"

func TestOrDefault(t *testing.T) {
	origV, origC := Version, Commit
	defer func() { Version, Commit = origV, origC }()

	Version, Commit = "", ""
	if VersionOrDefault("dev") != "dev" || CommitOrDefault("none") != "none" {
		t.Fatalf("expected defaults for empty build vars")
	}
	Version, Commit = "1.2.3", "abc123"
	if VersionOrDefault("dev") != "1.2.3" || CommitOrDefault("none") != "abc123" {
		t.Fatalf("expected injected values")
	}
}
