package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage totals the regular files under one or more paths.
type DiskUsage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Usage walks each path, which may be a file or a directory, and sums the sizes of
// the regular files found. Empty and missing paths contribute nothing.
func Usage(paths ...string) (DiskUsage, error) {
	var u DiskUsage
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			u.Files++
			u.Bytes += info.Size()
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			if _, statErr := os.Lstat(p); errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
		}
		if err != nil {
			return DiskUsage{}, err
		}
	}
	return u, nil
}
