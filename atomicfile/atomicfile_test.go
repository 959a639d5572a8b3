package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers", "default.json")

	if err := WriteFile(path, []byte(`{}`), FilePermissions); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{}` {
		t.Errorf("content = %q", data)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", filepath.Dir(path))
	}
}

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte("old content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if names := entries(t, dir); len(names) != 1 || names[0] != "settings.json" {
		t.Errorf("directory holds %v, want only settings.json", names)
	}
}

func TestWriteFileRemovesTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be replaced by a file
	path := filepath.Join(dir, "config")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(path, []byte("x"), FilePermissions); err == nil {
		t.Fatal("WriteFile() over a directory succeeded")
	}
	if names := entries(t, dir); len(names) != 1 || names[0] != "config" {
		t.Errorf("directory holds %v, want only config", names)
	}
}
