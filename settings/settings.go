// Package settings loads and edits the global daemon settings file.
//
// Settings are read once at startup. Invalid or missing values never abort
// startup: the compiled-in default is kept and a warning is logged.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/keebie/atomicfile"
)

// MultiKeyMode decides how several held keys form a combo.
type MultiKeyMode string

const (
	// Combination sorts held keys so press order does not matter.
	Combination MultiKeyMode = "combination"
	// Sequence keeps held keys in press order.
	Sequence MultiKeyMode = "sequence"
)

// Setting keys as they appear in the settings file.
const (
	KeyMultiKeyMode        = "multiKeyMode"
	KeyForceBackground     = "forceBackground"
	KeyBackgroundInversion = "backgroundInversion"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Keys lists every recognized setting in display order.
var Keys = []string{KeyMultiKeyMode, KeyForceBackground, KeyBackgroundInversion}

var allowed = map[string][]any{
	KeyMultiKeyMode:        {string(Combination), string(Sequence)},
	KeyForceBackground:     {true, false},
	KeyBackgroundInversion: {true, false},
}

// Settings is immutable once loaded.
type Settings struct {
	MultiKeyMode        MultiKeyMode
	ForceBackground     bool
	BackgroundInversion bool
}

// Default returns the compiled-in settings.
func Default() Settings {
	return Settings{MultiKeyMode: Combination}
}

// Allowed returns the permitted values of a setting.
func Allowed(key string) ([]any, error) {
	vals, ok := allowed[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return slices.Clone(vals), nil
}

// Value returns the current value of key.
func (s Settings) Value(key string) any {
	switch key {
	case KeyMultiKeyMode:
		return string(s.MultiKeyMode)
	case KeyForceBackground:
		return s.ForceBackground
	case KeyBackgroundInversion:
		return s.BackgroundInversion
	}
	return nil
}

func (s *Settings) assign(key string, v any) {
	switch key {
	case KeyMultiKeyMode:
		s.MultiKeyMode = MultiKeyMode(v.(string))
	case KeyForceBackground:
		s.ForceBackground = v.(bool)
	case KeyBackgroundInversion:
		s.BackgroundInversion = v.(bool)
	}
}

// Validate reports whether v is one of the allowed values for key.
func Validate(key string, v any) error {
	vals, err := Allowed(key)
	if err != nil {
		return err
	}
	switch v.(type) {
	case string, bool:
	default:
		return fmt.Errorf("%w: %v for %q", ErrInvalidValue, v, key)
	}
	if !slices.Contains(vals, v) {
		return fmt.Errorf("%w: %v for %q", ErrInvalidValue, v, key)
	}
	return nil
}

// Store reads and writes one settings file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store for the settings file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the settings file location.
func (st *Store) Path() string { return st.path }

// Load reads the settings file. Only I/O failures other than a missing file
// are returned as errors.
func (st *Store) Load() (Settings, error) {
	s := Default()
	st.logger.Info("loading settings", "file", st.path)

	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		st.logger.Warn("settings file missing, using defaults", "file", st.path)
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", st.path, err)
	}
	if !gjson.ValidBytes(data) {
		st.logger.Warn("settings file is not valid JSON, using defaults", "file", st.path)
		return s, nil
	}

	doc := gjson.ParseBytes(data)
	for _, key := range Keys {
		res := doc.Get(gjson.Escape(key))
		if !res.Exists() {
			st.logger.Warn("setting missing, using default", "setting", key, "default", s.Value(key))
			continue
		}
		v := res.Value()
		if err := Validate(key, v); err != nil {
			st.logger.Warn("invalid setting value, using default",
				"setting", key, "value", res.Raw, "default", s.Value(key))
			continue
		}
		s.assign(key, v)
	}
	st.logger.Debug("settings loaded", "settings", s)
	return s, nil
}

// Set validates value and writes it into the settings file, leaving other
// entries untouched.
func (st *Store) Set(key string, value any) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte("{}")
	} else if err != nil {
		return fmt.Errorf("read settings %s: %w", st.path, err)
	}

	data, err = sjson.SetBytes(data, gjson.Escape(key), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	data = pretty.PrettyOptions(data, &pretty.Options{Indent: "   ", Width: 80})
	if err := atomicfile.WriteFile(st.path, data, atomicfile.FilePermissions); err != nil {
		return fmt.Errorf("write settings %s: %w", st.path, err)
	}
	st.logger.Info("setting changed", "setting", key, "value", value)
	return nil
}
