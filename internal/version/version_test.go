package version

import (
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	got := Describe(3)
	for _, want := range []string{"version: dev", "commit: unknown", "rules: v3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Describe() = %q, missing %q", got, want)
		}
	}
}
