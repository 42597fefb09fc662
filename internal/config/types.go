package config

import (
	"sort"
	"strings"
	"time"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalText parses durations in time.ParseDuration syntax.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Backend names accepted in the parking section.
const (
	BackendSignal = "signal"
	BackendDocker = "docker"
	BackendNone   = "none"
)

// Manifest is the top-level cryo.yaml document: a group hierarchy, the
// processes initially attached to it, and runtime settings.
type Manifest struct {
	Hierarchy HierarchySpec `yaml:"hierarchy"`
	Processes []ProcessSpec `yaml:"processes"`
	Parking   ParkingSpec   `yaml:"parking"`
	Server    ServerSpec    `yaml:"server"`
	Legacy    LegacySpec    `yaml:"legacy"`
}

// HierarchySpec names the root and declares the nested group tree.
type HierarchySpec struct {
	Name   string                `yaml:"name"`
	Groups map[string]*GroupSpec `yaml:"groups"`
}

// GroupSpec declares one group and its children. Frozen requests an initial
// freeze on the group as soon as the tree is built.
type GroupSpec struct {
	Groups map[string]*GroupSpec `yaml:"groups"`
	Frozen bool                  `yaml:"frozen"`
}

// ProcessSpec attaches one process or container to a group. Exactly one of
// Pid and Container must be set. Group is a slash-separated path relative
// to the hierarchy root; empty targets the root itself.
type ProcessSpec struct {
	Pid       int    `yaml:"pid"`
	Container string `yaml:"container"`
	Group     string `yaml:"group"`
	Exempt    bool   `yaml:"exempt"`
}

// ParkingSpec selects and tunes the parking backend.
type ParkingSpec struct {
	Backend      string   `yaml:"backend"`
	PollInterval Duration `yaml:"pollInterval"`

	// Docker daemon connection settings, used by the docker backend.
	DockerHost    string `yaml:"dockerHost"`
	DockerCAFile  string `yaml:"dockerCAFile"`
	DockerCert    string `yaml:"dockerCert"`
	DockerKey     string `yaml:"dockerKey"`
	DockerSkipTLS bool   `yaml:"dockerSkipTLSVerify"`
}

// ServerSpec configures the control API listener.
type ServerSpec struct {
	Addr string `yaml:"addr"`
}

// LegacySpec enables the flag-based compatibility freezer.
type LegacySpec struct {
	Enabled      bool `yaml:"enabled"`
	AutoThawFork bool `yaml:"autoThawFork"`
}

// GroupPaths returns every declared group path relative to the root, in
// lexical parent-before-child order. The root itself is the empty path and
// is not included.
func (m *Manifest) GroupPaths() []string {
	var out []string
	var walk func(prefix string, groups map[string]*GroupSpec)
	walk = func(prefix string, groups map[string]*GroupSpec) {
		for _, name := range sortedKeys(groups) {
			path := name
			if prefix != "" {
				path = prefix + "/" + name
			}
			out = append(out, path)
			// A group declared with no body decodes to a nil spec.
			if spec := groups[name]; spec != nil {
				walk(path, spec.Groups)
			}
		}
	}
	walk("", m.Hierarchy.Groups)
	return out
}

// Group resolves a relative path to its spec. The second result reports
// whether the path is declared; a declared group may still have a nil spec
// when its manifest entry has no body.
func (m *Manifest) Group(path string) (*GroupSpec, bool) {
	groups := m.Hierarchy.Groups
	var cur *GroupSpec
	for path != "" {
		name := path
		if i := strings.IndexByte(path, '/'); i >= 0 {
			name, path = path[:i], path[i+1:]
		} else {
			path = ""
		}
		spec, ok := groups[name]
		if !ok {
			return nil, false
		}
		cur = spec
		if spec == nil {
			if path != "" {
				return nil, false
			}
			return nil, true
		}
		groups = spec.Groups
	}
	return cur, true
}

func sortedKeys(groups map[string]*GroupSpec) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
