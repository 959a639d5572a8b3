package dispatch

import (
	"strings"

	"github.com/keebie/settings"
)

// Kind is the variant of a parsed action.
type Kind int

const (
	RawCommand Kind = iota
	LayerSwitch
	ShellScript
	InterpretedScript
	DirectExecutable
)

func (k Kind) String() string {
	switch k {
	case LayerSwitch:
		return "layer"
	case ShellScript:
		return "script"
	case InterpretedScript:
		return "interpreted"
	case DirectExecutable:
		return "exec"
	default:
		return "shell"
	}
}

// prefixes in classification order
var prefixes = []struct {
	prefix      string
	kind        Kind
	interpreter string
}{
	{"layer:", LayerSwitch, ""},
	{"script:", ShellScript, "bash"},
	{"py:", InterpretedScript, "python"},
	{"py2:", InterpretedScript, "python2"},
	{"py3:", InterpretedScript, "python3"},
	{"exec:", DirectExecutable, ""},
}

// Action is a bound action string after parsing.
type Action struct {
	Kind Kind
	// Target is the layer name, the script or executable path relative to
	// the scripts directory, or the shell command line.
	Target string
	// Interpreter runs Target for ShellScript and InterpretedScript.
	Interpreter string
	// Detached actions are started without waiting for them.
	Detached bool
}

// Parse classifies an action string by its prefix and strips the trailing
// background marker.
func Parse(raw string) Action {
	body, detached := splitDetached(raw)

	for _, p := range prefixes {
		if strings.HasPrefix(body, p.prefix) {
			return Action{
				Kind:        p.kind,
				Target:      strings.TrimSpace(strings.TrimPrefix(body, p.prefix)),
				Interpreter: p.interpreter,
				Detached:    detached,
			}
		}
	}
	return Action{Kind: RawCommand, Target: body, Detached: detached}
}

// String renders the action back into its on-disk form.
func (a Action) String() string {
	var b strings.Builder
	for _, p := range prefixes {
		if p.kind == a.Kind && p.interpreter == a.Interpreter {
			b.WriteString(p.prefix)
			break
		}
	}
	b.WriteString(a.Target)
	if a.Detached {
		b.WriteString(" &")
	}
	return b.String()
}

// ApplyBackground resolves the background policy. forceBackground is applied
// first, then backgroundInversion re-evaluates the result, so with both set a
// foreground action ends up in the foreground again.
// TODO: revisit once there is a decision on what forceBackground plus
// backgroundInversion should mean together.
func ApplyBackground(a Action, s settings.Settings) Action {
	if s.ForceBackground && !a.Detached {
		a.Detached = true
	}
	if s.BackgroundInversion {
		a.Detached = !a.Detached
	}
	return a
}

func splitDetached(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasSuffix(trimmed, "&") {
		return trimmed, false
	}
	return strings.TrimRight(trimmed, " &"), true
}
