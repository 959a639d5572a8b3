package ledger

import (
	"bytes"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/keebie/settings"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func down(key string) Event   { return Event{Key: key, Transition: Down} }
func up(key string) Event     { return Event{Key: key, Transition: Up} }
func repeat(key string) Event { return Event{Key: key, Transition: Repeat} }

func replay(mode settings.MultiKeyMode, events ...Event) *Ledger {
	l := New(mode, quiet)
	for _, ev := range events {
		l.Update(ev)
	}
	return l
}

func TestHeldSetTracksDownAndUp(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   []string
	}{
		{"empty", nil, nil},
		{"single down", []Event{down("KEY_A")}, []string{"KEY_A"}},
		{"down up", []Event{down("KEY_A"), up("KEY_A")}, nil},
		{"two held", []Event{down("KEY_B"), down("KEY_A")}, []string{"KEY_A", "KEY_B"}},
		{"one released", []Event{down("KEY_B"), down("KEY_A"), up("KEY_B")}, []string{"KEY_A"}},
		{"repeat adds missed down", []Event{repeat("KEY_C")}, []string{"KEY_C"}},
		{"untracked release", []Event{up("KEY_Z"), down("KEY_A")}, []string{"KEY_A"}},
		{"ignored", []Event{{Key: "REL_X", Transition: Ignored}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := replay(settings.Combination, tt.events...)
			if got := l.Held(); !slices.Equal(got, tt.want) {
				t.Errorf("Held() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombinationIgnoresPressOrder(t *testing.T) {
	orders := [][]string{
		{"KEY_A", "KEY_B", "KEY_C"},
		{"KEY_C", "KEY_B", "KEY_A"},
		{"KEY_B", "KEY_C", "KEY_A"},
	}
	for _, keys := range orders {
		var events []Event
		for _, k := range keys {
			events = append(events, down(k))
		}
		l := replay(settings.Combination, events...)
		if got := l.HeldCombo(); got != "KEY_A+KEY_B+KEY_C" {
			t.Errorf("order %v: HeldCombo() = %q", keys, got)
		}
	}
}

func TestSequenceKeepsPressOrder(t *testing.T) {
	ab := replay(settings.Sequence, down("KEY_A"), down("KEY_B"))
	ba := replay(settings.Sequence, down("KEY_B"), down("KEY_A"))

	if ab.HeldCombo() != "KEY_A+KEY_B" {
		t.Errorf("A then B = %q", ab.HeldCombo())
	}
	if ba.HeldCombo() != "KEY_B+KEY_A" {
		t.Errorf("B then A = %q", ba.HeldCombo())
	}
	if ab.FreshCombo() == ba.FreshCombo() {
		t.Errorf("sequence combos should differ, both %q", ab.FreshCombo())
	}
}

func TestFreshOnlyAfterNewKey(t *testing.T) {
	l := New(settings.Combination, quiet)

	steps := []struct {
		ev    Event
		fresh string
		added string
	}{
		{down("KEY_B"), "KEY_B", "KEY_B"},
		{repeat("KEY_B"), "", ""},
		{down("KEY_A"), "KEY_A+KEY_B", "KEY_A"},
		{repeat("KEY_A"), "", ""},
		{down("KEY_A"), "", ""},
		{up("KEY_B"), "", ""},
		{Event{Key: "SYN_REPORT", Transition: Ignored}, "", ""},
		{up("KEY_A"), "", ""},
		{up("KEY_A"), "", ""},
		{down("KEY_C"), "KEY_C", "KEY_C"},
	}

	for i, st := range steps {
		l.Update(st.ev)
		if got := l.FreshCombo(); got != st.fresh {
			t.Errorf("step %d (%s %s): FreshCombo() = %q, want %q", i, st.ev.Key, st.ev.Transition, got, st.fresh)
		}
		if got := l.AddedCombo(); got != st.added {
			t.Errorf("step %d: AddedCombo() = %q, want %q", i, got, st.added)
		}
		if (len(l.Fresh()) > 0) != (st.fresh != "") {
			t.Errorf("step %d: Fresh() = %v disagrees with FreshCombo()", i, l.Fresh())
		}
	}
}

func TestAccessorsAreCopies(t *testing.T) {
	l := replay(settings.Combination, down("KEY_A"))

	held := l.Held()
	held[0] = "KEY_X"
	if l.HeldCombo() != "KEY_A" {
		t.Errorf("mutating Held() result changed the ledger: %q", l.HeldCombo())
	}
}

func TestSplitJoin(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	keys := []string{"KEY_LEFTCTRL", "KEY_A"}
	if got := Split(Join(keys)); !slices.Equal(got, keys) {
		t.Errorf("Split(Join()) = %v", got)
	}
}

func TestUntrackedReleaseWarns(t *testing.T) {
	var logs bytes.Buffer
	l := New(settings.Combination, slog.New(slog.NewTextHandler(&logs, nil)))

	l.Update(up("KEY_Z"))

	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "untracked key released") || !strings.Contains(out, "key=KEY_Z") {
		t.Errorf("missing warning, logs:\n%s", out)
	}
	if l.HeldCombo() != "" || l.FreshCombo() != "" {
		t.Errorf("held=%q fresh=%q after untracked release", l.HeldCombo(), l.FreshCombo())
	}
}
