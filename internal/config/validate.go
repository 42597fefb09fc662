package config

import (
	"fmt"
	"strings"
)

// Validate checks the manifest for structural problems: unknown parking
// backends, processes referencing undeclared groups, backend/process
// mismatches and duplicate process identities.
func (m *Manifest) Validate() error {
	switch m.Parking.Backend {
	case BackendSignal, BackendDocker, BackendNone:
	default:
		return fmt.Errorf("parking: unknown backend %q", m.Parking.Backend)
	}
	if m.Parking.PollInterval.Duration < 0 {
		return fmt.Errorf("parking: negative poll interval")
	}

	if strings.ContainsRune(m.Hierarchy.Name, '/') {
		return fmt.Errorf("hierarchy: root name %q must not contain '/'", m.Hierarchy.Name)
	}
	if err := validateGroupNames("", m.Hierarchy.Groups); err != nil {
		return err
	}

	seenPids := make(map[int]struct{})
	seenContainers := make(map[string]struct{})
	for i, proc := range m.Processes {
		switch {
		case proc.Pid != 0 && proc.Container != "":
			return fmt.Errorf("processes[%d]: pid and container are mutually exclusive", i)
		case proc.Pid == 0 && proc.Container == "":
			return fmt.Errorf("processes[%d]: one of pid or container is required", i)
		case proc.Pid < 0:
			return fmt.Errorf("processes[%d]: invalid pid %d", i, proc.Pid)
		}

		if proc.Pid != 0 && m.Parking.Backend == BackendDocker {
			return fmt.Errorf("processes[%d]: pid %d cannot be parked by the docker backend", i, proc.Pid)
		}
		if proc.Container != "" && m.Parking.Backend == BackendSignal {
			return fmt.Errorf("processes[%d]: container %q cannot be parked by the signal backend", i, proc.Container)
		}

		if proc.Pid != 0 {
			if _, dup := seenPids[proc.Pid]; dup {
				return fmt.Errorf("processes[%d]: duplicate pid %d", i, proc.Pid)
			}
			seenPids[proc.Pid] = struct{}{}
		}
		if proc.Container != "" {
			if _, dup := seenContainers[proc.Container]; dup {
				return fmt.Errorf("processes[%d]: duplicate container %q", i, proc.Container)
			}
			seenContainers[proc.Container] = struct{}{}
		}

		if proc.Group != "" {
			if _, ok := m.Group(proc.Group); !ok {
				return fmt.Errorf("processes[%d]: undeclared group %q", i, proc.Group)
			}
		}
	}
	return nil
}

func validateGroupNames(prefix string, groups map[string]*GroupSpec) error {
	for name, spec := range groups {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		if name == "" {
			return fmt.Errorf("hierarchy: empty group name under %q", prefix)
		}
		if strings.ContainsRune(name, '/') {
			return fmt.Errorf("hierarchy: group name %q must not contain '/'", path)
		}
		if spec == nil {
			continue
		}
		if err := validateGroupNames(path, spec.Groups); err != nil {
			return err
		}
	}
	return nil
}
