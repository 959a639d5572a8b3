package shell

import (
	"errors"
	"io"

	"github.com/keebie/settings"
)

// SettingsStore is the part of the settings store the edit shell needs.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Set(key string, value any) error
}

// EditSettings walks the user through changing settings one at a time.
type EditSettings struct {
	Store SettingsStore
}

// Run loops until the user declines to change another setting. Invalid menu
// selections end the shell without error.
func (e *EditSettings) Run(in io.Reader, out io.Writer) error {
	p := newPrompter(in, out)
	for {
		done, err := e.editOne(p)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil || done {
			return err
		}

		again, err := p.confirm("Would you like to change another setting? [Y/n] ")
		if errors.Is(err, io.EOF) || (err == nil && !again) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (e *EditSettings) editOne(p *prompter) (done bool, err error) {
	current, err := e.Store.Load()
	if err != nil {
		return true, err
	}

	p.printf("Choose what value you would like to edit.\n")
	for i, key := range settings.Keys {
		p.printf("-%d: %s   [%v]\n", i+1, key, current.Value(key))
	}
	idx, ok, err := p.choose("Please make you selection: ", len(settings.Keys))
	if err != nil || !ok {
		return true, err
	}
	key := settings.Keys[idx]
	p.printf("Editing item %q\n", key)

	values, err := settings.Allowed(key)
	if err != nil {
		return true, err
	}
	p.printf("Choose one of %s's possible values.\n", key)
	for i, v := range values {
		if v == current.Value(key) {
			p.printf("-%d: %v   [current]\n", i+1, v)
		} else {
			p.printf("-%d: %v\n", i+1, v)
		}
	}
	idx, ok, err = p.choose("Please make you selection: ", len(values))
	if err != nil || !ok {
		return true, err
	}

	value := values[idx]
	if err := e.Store.Set(key, value); err != nil {
		return true, err
	}
	p.printf("Set %q to \"%v\"\n", key, value)
	return false, nil
}
