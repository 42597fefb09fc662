package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const validManifest = `
hierarchy:
  name: root
  groups:
    batch:
      frozen: true
    web:
processes:
  - pid: 1234
    group: batch
parking:
  backend: signal
`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cryo.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestConfigValidateCommand(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, validManifest)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "validate", "-f", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestConfigValidateCommandRejectsBadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `
hierarchy:
  name: root
processes:
  - pid: 1234
    group: missing
`)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "validate", "-f", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected validation failure")
	}
}
