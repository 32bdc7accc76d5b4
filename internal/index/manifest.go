package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const manifestFile = "embedder.json"

// manifest records which embedder produced the persisted vectors. Vectors from
// different embedders live in different spaces even when their dimensions agree.
type manifest struct {
	Embedder   string `json:"embedder"`
	Dimensions int    `json:"dimensions"`
}

func readManifest(path string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// writeManifest replaces the file at path through a temp file and rename.
func writeManifest(path string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), manifestFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
