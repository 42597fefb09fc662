package cli

import (
	"bytes"
	"strings"
	"testing"
)

const localManifest = `
hierarchy:
  name: root
  groups:
    batch:
    web:
parking:
  backend: none
`

func TestFreezeCommandLocal(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, localManifest)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"freeze", "batch", "--local", "-f", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("freeze --local: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "root/batch frozen" {
		t.Fatalf("output = %q", got)
	}
}

func TestThawCommandLocalUnknownGroup(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, localManifest)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"thaw", "missing", "--local", "-f", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected unknown group error")
	}
}
