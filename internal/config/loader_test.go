package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cryo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `
hierarchy:
  name: node0
  groups:
    batch:
      frozen: true
      groups:
        lowprio: {}
    services:
processes:
  - pid: 4312
    group: batch/lowprio
  - pid: 9001
    group: services
    exempt: true
parking:
  backend: signal
  pollInterval: 100ms
server:
  addr: 127.0.0.1:7810
legacy:
  enabled: true
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.Hierarchy.Name != "node0" {
		t.Fatalf("root name = %q", doc.Hierarchy.Name)
	}
	wantPaths := []string{"batch", "batch/lowprio", "services"}
	if got := doc.GroupPaths(); !reflect.DeepEqual(got, wantPaths) {
		t.Fatalf("group paths = %v, want %v", got, wantPaths)
	}
	batch, ok := doc.Group("batch")
	if !ok || batch == nil || !batch.Frozen {
		t.Fatalf("batch group = %+v ok=%v, want frozen spec", batch, ok)
	}
	if _, ok := doc.Group("services"); !ok {
		t.Fatalf("bodyless group not resolvable")
	}
	if doc.Parking.PollInterval.Duration != 100*time.Millisecond {
		t.Fatalf("poll interval = %s", doc.Parking.PollInterval)
	}
	if !doc.Legacy.Enabled || doc.Legacy.AutoThawFork {
		t.Fatalf("legacy spec = %+v", doc.Legacy)
	}
	if len(doc.Processes) != 2 || !doc.Processes[1].Exempt {
		t.Fatalf("processes = %+v", doc.Processes)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `
processes:
  - pid: 100
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Hierarchy.Name != "root" {
		t.Fatalf("default root name = %q", doc.Hierarchy.Name)
	}
	if doc.Parking.Backend != BackendSignal {
		t.Fatalf("default backend = %q", doc.Parking.Backend)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `
hierarchy:
  name: root
replicas: 3
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name: "unknown backend",
			manifest: `
parking:
  backend: cgroupfs
`,
			wantErr: "unknown backend",
		},
		{
			name: "pid and container",
			manifest: `
processes:
  - pid: 5
    container: redis
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "neither pid nor container",
			manifest: `
processes:
  - group: batch
`,
			wantErr: "one of pid or container",
		},
		{
			name: "undeclared group",
			manifest: `
processes:
  - pid: 5
    group: nosuch
`,
			wantErr: "undeclared group",
		},
		{
			name: "duplicate pid",
			manifest: `
processes:
  - pid: 5
  - pid: 5
`,
			wantErr: "duplicate pid",
		},
		{
			name: "container on signal backend",
			manifest: `
processes:
  - container: redis
`,
			wantErr: "signal backend",
		},
		{
			name: "pid on docker backend",
			manifest: `
parking:
  backend: docker
processes:
  - pid: 5
`,
			wantErr: "docker backend",
		},
		{
			name: "slash in group name",
			manifest: `
hierarchy:
  groups:
    "a/b": {}
`,
			wantErr: "must not contain",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeManifest(t, tc.manifest)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}
