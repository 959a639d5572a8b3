package settings

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, content string) (*Store, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var logs bytes.Buffer
	return NewStore(path, slog.New(slog.NewTextHandler(&logs, nil))), &logs
}

func TestLoadValid(t *testing.T) {
	st, logs := newTestStore(t, `{"multiKeyMode": "sequence", "forceBackground": true, "backgroundInversion": false}`)

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Settings{MultiKeyMode: Sequence, ForceBackground: true}
	if s != want {
		t.Errorf("Load() = %+v, want %+v", s, want)
	}
	if strings.Contains(logs.String(), "WARN") {
		t.Errorf("unexpected warning: %s", logs)
	}
}

func TestLoadInvalidFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
		warn    string
	}{
		{
			name:    "unknown mode",
			content: `{"multiKeyMode": "chord", "forceBackground": false, "backgroundInversion": true}`,
			want:    Settings{MultiKeyMode: Combination, BackgroundInversion: true},
			warn:    "multiKeyMode",
		},
		{
			name:    "string bool",
			content: `{"multiKeyMode": "sequence", "forceBackground": "true", "backgroundInversion": false}`,
			want:    Settings{MultiKeyMode: Sequence},
			warn:    "forceBackground",
		},
		{
			name:    "object value",
			content: `{"multiKeyMode": {"a": 1}, "forceBackground": false, "backgroundInversion": false}`,
			want:    Default(),
			warn:    "multiKeyMode",
		},
		{
			name:    "missing key",
			content: `{"multiKeyMode": "sequence"}`,
			want:    Settings{MultiKeyMode: Sequence},
			warn:    "backgroundInversion",
		},
		{
			name:    "not json",
			content: `multiKeyMode=sequence`,
			want:    Default(),
			warn:    "not valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, logs := newTestStore(t, tt.content)
			s, err := st.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if s != tt.want {
				t.Errorf("Load() = %+v, want %+v", s, tt.want)
			}
			if !strings.Contains(logs.String(), tt.warn) {
				t.Errorf("log does not mention %q: %s", tt.warn, logs)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	st, _ := newTestStore(t, "")

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s != Default() {
		t.Errorf("Load() = %+v, want defaults", s)
	}
}

func TestSet(t *testing.T) {
	st, _ := newTestStore(t, `{"multiKeyMode": "combination", "forceBackground": false, "backgroundInversion": false, "extra": 1}`)

	if err := st.Set(KeyMultiKeyMode, "sequence"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Set(KeyForceBackground, true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	s, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.MultiKeyMode != Sequence || !s.ForceBackground || s.BackgroundInversion {
		t.Errorf("after Set: %+v", s)
	}

	data, _ := os.ReadFile(st.Path())
	if !strings.Contains(string(data), `"extra": 1`) {
		t.Errorf("unrelated key dropped:\n%s", data)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	st, _ := newTestStore(t, `{"multiKeyMode": "combination"}`)

	tests := []struct {
		key   string
		value any
		want  error
	}{
		{KeyMultiKeyMode, "chord", ErrInvalidValue},
		{KeyForceBackground, "yes", ErrInvalidValue},
		{KeyBackgroundInversion, 1, ErrInvalidValue},
		{"theme", "dark", ErrUnknownKey},
	}
	for _, tt := range tests {
		if err := st.Set(tt.key, tt.value); !errors.Is(err, tt.want) {
			t.Errorf("Set(%s, %v) error = %v, want %v", tt.key, tt.value, err, tt.want)
		}
	}

	data, _ := os.ReadFile(st.Path())
	if string(data) != `{"multiKeyMode": "combination"}` {
		t.Errorf("file modified by rejected Set: %s", data)
	}
}

func TestValueAndAllowed(t *testing.T) {
	s := Settings{MultiKeyMode: Sequence, BackgroundInversion: true}
	for _, key := range Keys {
		vals, err := Allowed(key)
		if err != nil {
			t.Fatalf("Allowed(%s) error = %v", key, err)
		}
		if err := Validate(key, s.Value(key)); err != nil {
			t.Errorf("Value(%s) = %v not in %v", key, s.Value(key), vals)
		}
	}
}
