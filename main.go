package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bendahl/uinput"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/keebie/atomicfile"
	"github.com/keebie/dispatch"
	"github.com/keebie/layers"
	"github.com/keebie/ledger"
	"github.com/keebie/registry"
	"github.com/keebie/settings"
	"github.com/keebie/shell"
)

var logger *slog.Logger

func setupLogging(path string, debug bool) (*os.File, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	var logFile *os.File
	if path != "" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), atomicfile.DirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, atomicfile.FilePermissions)
		if err != nil {
			return nil, err
		}
		logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}

	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logFile, nil
}

// Flags
var (
	flagDir         string
	flagLayers      bool
	flagAdd         bool
	flagLayer       string
	flagTimeout     time.Duration
	flagDevice      string
	flagSettings    bool
	flagPassthrough bool
	flagDebug       bool
	flagLogFile     string
)

var rootCmd = &cobra.Command{
	Use:   "keebie",
	Short: "Turn a second keyboard into a macro pad",
	Long: `keebie grabs a secondary keyboard and runs the commands bound to its key
combinations in the active layer.

Bindings live in <dir>/layers/*.json, scripts in <dir>/scripts, and <dir>/config
names the device, the active layer file and the settings file, one per line.

Examples:
  keebie                         # Listen on the configured device, default layer
  keebie --device usb-Pad-kbd    # Listen on /dev/input/by-id/usb-Pad-kbd
  keebie --add                   # Bind new combos interactively
  keebie --layers                # Show all layers
  keebie --settings              # Edit settings`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logFile, err := setupLogging(flagLogFile, flagDebug)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		if logFile != nil {
			defer logFile.Close()
		}
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagDir, "dir", defaultDir(), "Directory holding config, layers/ and scripts/")
	rootCmd.Flags().BoolVar(&flagLayers, "layers", false, "Show saved layer files")
	rootCmd.Flags().BoolVar(&flagAdd, "add", false, "Add new keys")
	rootCmd.Flags().StringVar(&flagLayer, "layer", layers.DefaultName, "Layer that --add writes to")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", time.Second, "How long --add records a combo")
	rootCmd.Flags().StringVar(&flagDevice, "device", "", "Change target device (name under /dev/input/by-id)")
	rootCmd.Flags().BoolVar(&flagSettings, "settings", false, "Edits settings file")
	rootCmd.Flags().BoolVar(&flagPassthrough, "passthrough", false, "Forward keys no binding uses to a virtual keyboard")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Log every event")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")
	rootCmd.MarkFlagsMutuallyExclusive("layers", "add", "device", "settings")
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "keebie")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the state shared by every mode
type env struct {
	registry *registry.Registry
	entries  registry.Entries
	settings *settings.Store
}

func loadEnv(dir string) (*env, error) {
	reg := registry.New(filepath.Join(dir, "config"))
	entries, err := reg.Load()
	if err != nil {
		return nil, err
	}
	return &env{
		registry: reg,
		entries:  entries,
		settings: settings.NewStore(filepath.Join(dir, entries.Settings), logger),
	}, nil
}

func (e *env) layerStore(escapeKey string) *layers.Store {
	return layers.NewStore(filepath.Join(flagDir, "layers"), e.registry,
		layers.WithEscapeKey(escapeKey), layers.WithLogger(logger))
}

func run(ctx context.Context) error {
	fmt.Println("Welcome to Keebie")

	e, err := loadEnv(flagDir)
	if err != nil {
		return err
	}

	switch {
	case flagLayers:
		return listLayers(e.layerStore(layers.DefaultEscapeKey), os.Stdout)
	case flagSettings:
		warnIfNotTerminal()
		return (&shell.EditSettings{Store: e.settings}).Run(os.Stdin, os.Stdout)
	case flagAdd:
		return runAdd(e)
	case flagDevice != "":
		return runListen(ctx, e, DevicePathByID(flagDevice), flagDevice)
	default:
		return runListen(ctx, e, e.entries.Device, layers.DefaultName)
	}
}

func warnIfNotTerminal() {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		logger.Warn("stdin is not a terminal, prompts will read from it anyway")
	}
}

// openDevice opens and grabs the macro keyboard. Without exclusive access
// combo detection is unreliable, so failures are fatal.
func openDevice(path string) (*InputDevice, error) {
	dev, err := OpenInputDevice(path)
	if err != nil {
		return nil, err
	}
	if err := dev.Grab(); err != nil {
		dev.device.File.Close()
		return nil, err
	}
	logger.Info("monitoring device", "name", dev.name, "path", dev.path, "keyboard", dev.mapping().Name)
	return dev, nil
}

// handleSignals exits cleanly on interrupt. Files are only ever replaced by
// rename, so exiting mid-write leaves them intact.
func handleSignals(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cleanup()
		os.Exit(0)
	}()
}

func runAdd(e *env) error {
	dev, err := openDevice(e.entries.Device)
	if err != nil {
		return err
	}
	defer dev.Close()
	handleSignals(func() { dev.Close() })

	store := e.layerStore(dev.escapeKey())
	if _, err := store.SwitchActive(layers.DefaultName); err != nil {
		return err
	}
	s, err := e.settings.Load()
	if err != nil {
		return err
	}

	warnIfNotTerminal()
	add := &shell.AddMacro{
		Layers:   store,
		Source:   dev,
		Settings: s,
		Layer:    flagLayer,
		Timeout:  flagTimeout,
		Logger:   logger,
	}
	return add.Run(os.Stdin, os.Stdout)
}

func runListen(ctx context.Context, e *env, devicePath, layer string) error {
	dev, err := openDevice(devicePath)
	if err != nil {
		return err
	}
	defer dev.Close()

	s, err := e.settings.Load()
	if err != nil {
		return err
	}
	store := e.layerStore(dev.escapeKey())
	if _, err := store.SwitchActive(layer); err != nil {
		return err
	}

	l := &Listener{
		reader:     dev,
		ledger:     ledger.New(s.MultiKeyMode, logger),
		dispatcher: dispatch.New(store, dispatch.NewShellExecutor(filepath.Join(flagDir, "scripts"), logger), s, logger),
		store:      store,
		logger:     logger,
	}

	var keyboard uinput.Keyboard
	if flagPassthrough {
		keyboard, err = uinput.CreateKeyboard("/dev/uinput", []byte("keebie passthrough"))
		if err != nil {
			return fmt.Errorf("failed to create virtual keyboard: %w", err)
		}
		defer keyboard.Close()
		l.passthrough = NewPassthrough(keyboard, store.ActiveLayer, logger)
	}

	watcher, err := layers.NewWatcher(store, logger, e.registry.Path())
	if err != nil {
		logger.Warn("layer files will not be reloaded on change", "error", err)
	} else {
		defer watcher.Close()
		l.changes = watcher.Changes()
	}

	handleSignals(func() {
		// destroying the virtual keyboard lets go of any key it still holds
		if keyboard != nil {
			keyboard.Close()
		}
		dev.Close()
	})

	fmt.Println("Listening for macros. Press Ctrl+C to exit.")
	err = l.Run(ctx)
	if l.passthrough != nil {
		l.passthrough.ReleaseAll()
	}
	return err
}
