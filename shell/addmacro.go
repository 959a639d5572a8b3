package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/keebie/dispatch"
	"github.com/keebie/layers"
	"github.com/keebie/ledger"
	"github.com/keebie/settings"
)

// EventSource yields raw key events, blocking until one is available.
type EventSource interface {
	ReadEvent() (ledger.Event, error)
}

// LayerWriter is the part of the layer store the add-macro shell needs.
type LayerWriter interface {
	Ensure(name string) (created bool, err error)
	Merge(name string, bindings map[string]string) error
}

// AddMacro binds commands to key combos captured from the device.
type AddMacro struct {
	Layers   LayerWriter
	Source   EventSource
	Settings settings.Settings
	// Layer receives the new bindings.
	Layer string
	// Timeout is how long keys are captured after the first event.
	Timeout time.Duration
	Logger  *slog.Logger

	now func() time.Time
}

// Run loops until the user declines to add another macro or input ends.
func (a *AddMacro) Run(in io.Reader, out io.Writer) error {
	p := newPrompter(in, out)
	for {
		err := a.addOne(p)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		again, err := p.confirm("Would you like to add another Macro? [Y/n] ")
		if errors.Is(err, io.EOF) || (err == nil && !again) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *AddMacro) addOne(p *prompter) error {
	command, err := p.ask("Enter the command you would like to attribute to a key on your second keyboard \n")
	if err != nil {
		return err
	}
	if command == "" {
		p.printf("No command entered.\n")
		return nil
	}

	if action := dispatch.Parse(command); action.Kind == dispatch.LayerSwitch {
		created, err := a.Layers.Ensure(action.Target)
		if err != nil {
			return err
		}
		if created {
			p.printf("Created layer file: %s\n", layers.FileName(action.Target))
		}
	}

	p.printf("Please press the key combination you would like to assign the command to and hold it for %s until the next prompt.\n", a.Timeout)
	combo, err := a.capture()
	if err != nil {
		return fmt.Errorf("capture combo: %w", err)
	}
	if combo == "" {
		p.printf("No keys were held, addition cancelled.\n")
		return nil
	}

	ok, err := p.confirm(fmt.Sprintf("Assign %s to [%s]? [Y/n] ", command, combo))
	if err != nil {
		return err
	}
	if !ok {
		p.printf("Addition cancelled.\n")
		return nil
	}

	if _, err := a.Layers.Ensure(a.Layer); err != nil {
		return err
	}
	if err := a.Layers.Merge(a.Layer, map[string]string{combo: command}); err != nil {
		return err
	}
	p.printf("%s: %s\n", combo, command)
	return nil
}

// capture feeds events into a fresh ledger until Timeout has passed since
// the first one, then returns the held combo.
func (a *AddMacro) capture() (string, error) {
	now := a.now
	if now == nil {
		now = time.Now
	}
	led := ledger.New(a.Settings.MultiKeyMode, a.Logger)

	var start time.Time
	for {
		ev, err := a.Source.ReadEvent()
		if err != nil {
			return "", err
		}
		if start.IsZero() {
			start = now()
		}
		led.Update(ev)
		if now().Sub(start) >= a.Timeout {
			return led.HeldCombo(), nil
		}
	}
}
