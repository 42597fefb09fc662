package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultRootName = "root"

// Load reads a manifest from the provided path.
func Load(path string) (*Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc Manifest
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	applyDefaults(&doc)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

func applyDefaults(doc *Manifest) {
	if doc.Hierarchy.Name == "" {
		doc.Hierarchy.Name = defaultRootName
	}
	if doc.Parking.Backend == "" {
		doc.Parking.Backend = BackendSignal
	}
	doc.Parking.DockerCAFile = os.ExpandEnv(doc.Parking.DockerCAFile)
	doc.Parking.DockerCert = os.ExpandEnv(doc.Parking.DockerCert)
	doc.Parking.DockerKey = os.ExpandEnv(doc.Parking.DockerKey)
}
