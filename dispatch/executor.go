package dispatch

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ShellExecutor runs actions through /bin/sh, resolving script paths against
// a scripts directory.
type ShellExecutor struct {
	Shell      string
	ScriptsDir string
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
}

// NewShellExecutor returns an executor rooted at scriptsDir.
func NewShellExecutor(scriptsDir string, logger *slog.Logger) *ShellExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShellExecutor{
		Shell:      "/bin/sh",
		ScriptsDir: scriptsDir,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
	}
}

// CommandLine builds the shell command line for a.
func (e *ShellExecutor) CommandLine(a Action) string {
	switch a.Kind {
	case ShellScript, InterpretedScript:
		return a.Interpreter + " " + e.scriptPath(a.Target)
	case DirectExecutable:
		return e.scriptPath(a.Target)
	default:
		return a.Target
	}
}

// Execute runs a. Attached actions block until they exit, detached ones
// are reaped in the background.
func (e *ShellExecutor) Execute(a Action) {
	line := e.CommandLine(a)
	cmd := exec.Command(e.Shell, "-c", line)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if !a.Detached {
		if err := cmd.Run(); err != nil {
			e.Logger.Warn("command failed", "command", line, "error", err)
		}
		return
	}

	if err := cmd.Start(); err != nil {
		e.Logger.Warn("command failed to start", "command", line, "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			e.Logger.Debug("detached command exited", "command", line, "error", err)
		}
	}()
}

// scriptPath joins the scripts directory with the first word of target,
// keeping any trailing arguments.
func (e *ShellExecutor) scriptPath(target string) string {
	name, args, _ := strings.Cut(target, " ")
	path := name
	if !filepath.IsAbs(name) {
		path = filepath.Join(e.ScriptsDir, name)
	}
	if args != "" {
		return path + " " + args
	}
	return path
}
