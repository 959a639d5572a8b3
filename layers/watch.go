package layers

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to layer files and the config file so a running
// listener can drop its cached layer.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	layerDir string
	files    map[string]bool // extra files of interest, by clean path
	changes  chan string
	done     chan struct{}
}

// NewWatcher watches the layer directory of store plus the given files.
// Files are watched through their parent directory since layer, settings and
// config writes are atomic renames.
func NewWatcher(store *Store, logger *slog.Logger, files ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		logger:  logger,
		files:   make(map[string]bool),
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}

	dirs := map[string]bool{filepath.Clean(store.Dir()): true}
	for _, f := range files {
		f = filepath.Clean(f)
		w.files[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w.layerDir = filepath.Clean(store.Dir())

	go w.loop()
	return w, nil
}

// Changes delivers the path of each relevant file that changed. Sends never
// block; a burst of writes may collapse into fewer notifications.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	return filepath.Dir(name) == w.layerDir && filepath.Ext(name) == Ext
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(ev.Name) {
				continue
			}
			w.logger.Debug("watched file changed", "file", ev.Name, "op", ev.Op.String())
			select {
			case w.changes <- ev.Name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
