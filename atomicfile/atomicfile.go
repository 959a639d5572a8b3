// Package atomicfile replaces files so readers and interrupt handlers never
// observe a half-written layer, settings or registry file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the mode of every file written by keebie.
	FilePermissions = 0644
	// DirPermissions is the mode of every directory created by keebie.
	DirPermissions = 0755
)

// WriteFile writes data to a temporary file next to path and renames it into
// place.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
