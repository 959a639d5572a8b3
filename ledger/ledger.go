// Package ledger tracks which keys of the macro device are held and
// reports the combo that became fresh on each update.
package ledger

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/keebie/settings"
)

// Separator joins key identifiers into a combo identity.
const Separator = "+"

// Transition is the state change carried by an Event.
type Transition int

const (
	// Ignored marks events that are not key transitions (sync, misc, pointer noise).
	Ignored Transition = iota
	Up
	Down
	Repeat
)

func (t Transition) String() string {
	switch t {
	case Up:
		return "up"
	case Down:
		return "down"
	case Repeat:
		return "repeat"
	default:
		return "ignored"
	}
}

// Event is one raw transition read from the device.
type Event struct {
	Key        string
	Transition Transition
}

// Ledger holds the set of currently held keys.
type Ledger struct {
	mode   settings.MultiKeyMode
	logger *slog.Logger

	held  []string
	added []string
	fresh []string
}

// New creates an empty ledger. A ledger lives for one listening session.
func New(mode settings.MultiKeyMode, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{mode: mode, logger: logger}
}

// Update applies one event to the held set.
func (l *Ledger) Update(ev Event) {
	// new and fresh are per update, never cumulative
	l.added = nil
	l.fresh = nil

	switch ev.Transition {
	case Down, Repeat:
		// a repeat can stand in for a missed down
		if !slices.Contains(l.held, ev.Key) {
			l.held = append(l.held, ev.Key)
			l.added = append(l.added, ev.Key)
		}
	case Up:
		i := slices.Index(l.held, ev.Key)
		if i < 0 {
			l.logger.Warn("untracked key released", "key", ev.Key)
			return
		}
		l.held = slices.Delete(l.held, i, i+1)
	default:
		return
	}

	if l.mode == settings.Combination {
		slices.Sort(l.held)
		slices.Sort(l.added)
	}

	if len(l.added) > 0 {
		l.fresh = slices.Clone(l.held)
		l.logger.Debug("fresh combo", "combo", l.FreshCombo(), "new", l.AddedCombo())
	}
}

// Held returns the keys currently held.
func (l *Ledger) Held() []string { return slices.Clone(l.held) }

// Added returns the keys that became held on the last update.
func (l *Ledger) Added() []string { return slices.Clone(l.added) }

// Fresh returns the held keys if the last update added one, otherwise nil.
func (l *Ledger) Fresh() []string { return slices.Clone(l.fresh) }

// HeldCombo is Held serialized as a combo identity.
func (l *Ledger) HeldCombo() string { return Join(l.held) }

// AddedCombo is Added serialized as a combo identity.
func (l *Ledger) AddedCombo() string { return Join(l.added) }

// FreshCombo is Fresh serialized as a combo identity; empty when nothing new was pressed.
func (l *Ledger) FreshCombo() string { return Join(l.fresh) }

// Join serializes keys into a combo identity.
func Join(keys []string) string {
	return strings.Join(keys, Separator)
}

// Split breaks a combo identity back into its key identifiers.
func Split(combo string) []string {
	if combo == "" {
		return nil
	}
	return strings.Split(combo, Separator)
}
