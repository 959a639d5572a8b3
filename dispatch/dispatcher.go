// Package dispatch turns fresh combos into layer switches and command
// invocations.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/keebie/settings"
)

// LayerSource resolves combos against the active layer and switches layers.
type LayerSource interface {
	Lookup(combo string) (action string, ok bool, err error)
	SwitchActive(name string) (created bool, err error)
}

// Executor runs a resolved action. Execute must not block on detached
// actions; the dispatcher never inspects the outcome.
type Executor interface {
	Execute(a Action)
}

// Dispatcher maps fresh combos to actions of the active layer.
type Dispatcher struct {
	layers   LayerSource
	exec     Executor
	settings settings.Settings
	logger   *slog.Logger
}

// New returns a dispatcher using the given settings for background policy.
func New(layers LayerSource, exec Executor, s settings.Settings, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{layers: layers, exec: exec, settings: s, logger: logger}
}

// Process handles a fresh combo. Empty and unbound combos are no-ops.
func (d *Dispatcher) Process(combo string) error {
	if combo == "" {
		return nil
	}

	raw, ok, err := d.layers.Lookup(combo)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", combo, err)
	}
	if !ok {
		d.logger.Debug("unbound combo", "combo", combo)
		return nil
	}

	action := Parse(raw)
	switch action.Kind {
	case LayerSwitch:
		if _, err := d.layers.SwitchActive(action.Target); err != nil {
			return fmt.Errorf("combo %s: %w", combo, err)
		}
		return nil
	case ShellScript, InterpretedScript, DirectExecutable, RawCommand:
		action = ApplyBackground(action, d.settings)
		d.logger.Info("executing", "combo", combo, "kind", action.Kind.String(),
			"action", action.String())
		d.exec.Execute(action)
		return nil
	default:
		return fmt.Errorf("combo %s: unknown action kind %d", combo, action.Kind)
	}
}
