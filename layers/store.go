// Package layers stores the per-layer combo bindings as JSON files and keeps
// track of which layer is active.
package layers

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/keebie/atomicfile"
	"github.com/keebie/ledger"
)

const (
	// Ext is the file extension of layer files.
	Ext = ".json"
	// DefaultName is the layer every fresh layer escapes back to.
	DefaultName = "default"
	// DefaultEscapeKey is bound in every newly created layer.
	DefaultEscapeKey = "KEY_ESC"
)

var ErrNotFound = errors.New("layer not found")

var prettyOptions = &pretty.Options{Indent: "   ", Width: 80}

// ActivePointer persists the name of the active layer file.
type ActivePointer interface {
	ActiveLayer() (string, error)
	SetActiveLayer(filename string) error
}

// Layer is a named set of combo bindings.
type Layer struct {
	Name     string
	Bindings map[string]string

	order []string
}

// Lookup returns the action bound to combo.
func (l *Layer) Lookup(combo string) (string, bool) {
	action, ok := l.Bindings[combo]
	return action, ok
}

// Combos returns the bound combos in file order.
func (l *Layer) Combos() []string {
	return slices.Clone(l.order)
}

// UsesKey reports whether key is part of any bound combo.
func (l *Layer) UsesKey(key string) bool {
	for combo := range l.Bindings {
		if slices.Contains(ledger.Split(combo), key) {
			return true
		}
	}
	return false
}

// FileName returns the file name of the layer called name.
func FileName(name string) string {
	return name + Ext
}

// NameOf returns the layer name for a layer file name.
func NameOf(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), Ext)
}

// Option configures a Store.
type Option func(*Store)

// WithEscapeKey sets the key bound to "layer:default" in new layers.
func WithEscapeKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.escapeKey = key
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store reads and writes the layer files of one directory.
type Store struct {
	dir       string
	pointer   ActivePointer
	escapeKey string
	logger    *slog.Logger

	active string
	cached *Layer
}

// NewStore returns a store over dir. pointer persists the active layer.
func NewStore(dir string, pointer ActivePointer, opts ...Option) *Store {
	s := &Store{
		dir:       dir,
		pointer:   pointer,
		escapeKey: DefaultEscapeKey,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the layer directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path of the layer called name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

// Exists reports whether the layer file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads a layer. A missing file yields ErrNotFound.
func (s *Store) Load(name string) (*Layer, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}

	layer := &Layer{Name: name, Bindings: make(map[string]string)}
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		combo := key.String()
		if _, dup := layer.Bindings[combo]; !dup {
			layer.order = append(layer.order, combo)
		}
		layer.Bindings[combo] = value.String()
		return true
	})
	return layer, nil
}

// CreateDefault writes a layer holding only the escape binding back to the
// default layer, replacing any existing file.
func (s *Store) CreateDefault(name string) error {
	data, err := sjson.SetBytes([]byte("{}"), escapePath(s.escapeKey), "layer:"+DefaultName)
	if err != nil {
		return fmt.Errorf("build layer %s: %w", name, err)
	}
	if err := s.write(name, data); err != nil {
		return err
	}
	s.logger.Info("created layer file", "file", FileName(name))
	return nil
}

// Ensure creates the layer with CreateDefault when it does not exist yet.
func (s *Store) Ensure(name string) (created bool, err error) {
	if s.Exists(name) {
		return false, nil
	}
	if err := s.CreateDefault(name); err != nil {
		return false, err
	}
	return true, nil
}

// Merge adds or overwrites bindings in the layer. Bindings not named in
// bindings are kept in place.
func (s *Store) Merge(name string, bindings map[string]string) error {
	data, err := s.read(name)
	if err != nil {
		return err
	}
	for _, combo := range slices.Sorted(maps.Keys(bindings)) {
		data, err = sjson.SetBytes(data, escapePath(combo), bindings[combo])
		if err != nil {
			return fmt.Errorf("merge %q into layer %s: %w", combo, name, err)
		}
	}
	if err := s.write(name, data); err != nil {
		return err
	}
	if s.cached != nil && s.cached.Name == name {
		s.cached = nil
	}
	return nil
}

// List loads every layer in the directory, sorted by name.
func (s *Store) List() ([]*Layer, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	slices.Sort(files)

	var out []*Layer
	for _, f := range files {
		layer, err := s.Load(NameOf(f))
		if err != nil {
			return nil, err
		}
		out = append(out, layer)
	}
	return out, nil
}

// SwitchActive makes name the active layer, creating it first if needed.
func (s *Store) SwitchActive(name string) (created bool, err error) {
	created, err = s.Ensure(name)
	if err != nil {
		return false, err
	}
	if err := s.pointer.SetActiveLayer(FileName(name)); err != nil {
		return created, fmt.Errorf("switch to layer %s: %w", name, err)
	}
	s.active = name
	s.cached = nil
	s.logger.Info("switched to layer file", "file", FileName(name), "created", created)
	return created, nil
}

// Active returns the name of the active layer.
func (s *Store) Active() (string, error) {
	if s.active != "" {
		return s.active, nil
	}
	filename, err := s.pointer.ActiveLayer()
	if err != nil {
		return "", err
	}
	s.active = NameOf(filename)
	return s.active, nil
}

// ActiveLayer returns the active layer, creating its file if it went missing.
func (s *Store) ActiveLayer() (*Layer, error) {
	name, err := s.Active()
	if err != nil {
		return nil, err
	}
	if s.cached != nil && s.cached.Name == name {
		return s.cached, nil
	}

	layer, err := s.Load(name)
	if errors.Is(err, ErrNotFound) {
		if err := s.CreateDefault(name); err != nil {
			return nil, err
		}
		layer, err = s.Load(name)
	}
	if err != nil {
		return nil, err
	}
	s.cached = layer
	return layer, nil
}

// Lookup returns the action bound to combo in the active layer.
func (s *Store) Lookup(combo string) (string, bool, error) {
	layer, err := s.ActiveLayer()
	if err != nil {
		return "", false, err
	}
	action, ok := layer.Lookup(combo)
	return action, ok, nil
}

// Invalidate drops the cached active layer and name so the next lookup
// re-reads them from disk.
func (s *Store) Invalidate() {
	s.active = ""
	s.cached = nil
}

func (s *Store) read(name string) ([]byte, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read layer %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("layer %s is not valid JSON", path)
	}
	return data, nil
}

func (s *Store) write(name string, data []byte) error {
	path := s.Path(name)
	if err := atomicfile.WriteFile(path, pretty.PrettyOptions(data, prettyOptions), atomicfile.FilePermissions); err != nil {
		return fmt.Errorf("write layer %s: %w", path, err)
	}
	return nil
}

// escapePath turns a combo into a literal gjson/sjson path component.
func escapePath(combo string) string {
	return gjson.Escape(combo)
}
