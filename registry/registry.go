// Package registry reads and rewrites the three-line config file naming the
// device, the active layer file and the settings file.
package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/keebie/atomicfile"
)

// Line positions in the config file.
const (
	LineDevice = iota
	LineLayer
	LineSettings

	lineCount
)

var ErrMalformed = errors.New("malformed config file")

// Entries is the parsed content of the config file.
type Entries struct {
	Device   string
	Layer    string
	Settings string
}

// Registry is a config file on disk.
type Registry struct {
	path string
}

// New returns a registry backed by the file at path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the config file location.
func (r *Registry) Path() string { return r.path }

// Load reads the config file, trimming surrounding whitespace from each line.
func (r *Registry) Load() (Entries, error) {
	lines, err := r.lines()
	if err != nil {
		return Entries{}, err
	}
	return Entries{
		Device:   lines[LineDevice],
		Layer:    lines[LineLayer],
		Settings: lines[LineSettings],
	}, nil
}

// SetActiveLayer rewrites the layer line, keeping the others.
func (r *Registry) SetActiveLayer(filename string) error {
	return r.setLine(LineLayer, filename)
}

// ActiveLayer returns the layer file currently named by the config file.
func (r *Registry) ActiveLayer() (string, error) {
	e, err := r.Load()
	if err != nil {
		return "", err
	}
	return e.Layer, nil
}

func (r *Registry) setLine(n int, value string) error {
	lines, err := r.lines()
	if err != nil {
		return err
	}
	lines[n] = strings.TrimSpace(value)

	data := strings.Join(lines, "\n") + "\n"
	if err := atomicfile.WriteFile(r.path, []byte(data), atomicfile.FilePermissions); err != nil {
		return fmt.Errorf("write config %s: %w", r.path, err)
	}
	return nil
}

func (r *Registry) lines() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", r.path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < lineCount {
		return nil, fmt.Errorf("%w: %s has %d lines, want %d", ErrMalformed, r.path, len(lines), lineCount)
	}
	return lines, nil
}
