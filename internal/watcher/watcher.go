// Package watcher reports changes made to client config files by anything
// other than the hub itself.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Op is what happened to a watched file.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// Event reports drift on one config file.
type Event struct {
	Path        string
	InstanceIDs []string
	Op          Op
	Time        time.Time
}

type pending struct {
	event Event
	timer *time.Timer
}

// Watcher watches the parent directories of instance config files and
// emits debounced events for the files themselves.
type Watcher struct {
	mu sync.Mutex

	debounce time.Duration
	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	running  bool

	// targets maps a cleaned config path to the instances writing it.
	targets map[string][]string
	dirs    map[string]bool
	ignored map[string]time.Time
	pending map[string]*pending

	now func() time.Time
}

// New creates a Watcher. A zero debounce means DefaultDebounce.
func New(debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		debounce: debounce,
		targets:  make(map[string][]string),
		dirs:     make(map[string]bool),
		ignored:  make(map[string]time.Time),
		pending:  make(map[string]*pending),
		now:      time.Now,
	}
}

// SetTargets replaces the watched files with the config paths of instances.
// Directories that do not exist yet are skipped until the next call.
func (w *Watcher) SetTargets(instances []models.ClientInstance) {
	targets := make(map[string][]string)
	for _, inst := range instances {
		if inst.ConfigPath == "" {
			continue
		}
		p := filepath.Clean(inst.ConfigPath)
		targets[p] = append(targets[p], inst.ID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.targets = targets
	if w.running {
		w.addDirsLocked()
	}
}

// Ignore suppresses events for path until window has passed. The hub calls
// it right before writing a config file.
func (w *Watcher) Ignore(path string, window time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignored[filepath.Clean(path)] = w.now().Add(window)
}

// Start begins watching. Events are sent to out until ctx is done or Stop
// is called.
func (w *Watcher) Start(ctx context.Context, out chan<- Event) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.dirs = make(map[string]bool)
	w.addDirsLocked()
	stopCh := w.stopCh
	w.mu.Unlock()

	go w.loop(ctx, fsw, stopCh, out)

	logging.Info("Watcher", "Watching %d client config files", len(w.Targets()))
	return nil
}

// Targets lists the watched config paths.
func (w *Watcher) Targets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.targets))
	for p := range w.targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) addDirsLocked() {
	for p := range w.targets {
		dir := filepath.Dir(p)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			logging.Debug("Watcher", "Not watching %s: %v", dir, err)
			continue
		}
		w.dirs[dir] = true
		logging.Debug("Watcher", "Watching directory: %s", dir)
	}
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, stopCh chan struct{}, out chan<- Event) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-stopCh:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev, out)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, out chan<- Event) {
	var op Op
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpWrite
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = OpRemove
	default:
		return
	}

	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	ids, watched := w.targets[path]
	if !watched {
		return
	}
	if until, ok := w.ignored[path]; ok {
		if w.now().Before(until) {
			return
		}
		delete(w.ignored, path)
	}

	event := Event{Path: path, InstanceIDs: append([]string(nil), ids...), Op: op, Time: w.now()}
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		event.Op = mergeOps(p.event.Op, op)
	}

	w.pending[path] = &pending{
		event: event,
		timer: time.AfterFunc(w.debounce, func() { w.fire(path, out) }),
	}
}

func (w *Watcher) fire(path string, out chan<- Event) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	running := w.running
	w.mu.Unlock()

	if !ok || !running {
		return
	}
	select {
	case out <- p.event:
		logging.Debug("Watcher", "Drift on %s (%s)", p.event.Path, p.event.Op)
	default:
		logging.Warn("Watcher", "Event channel full, dropping drift event for %s", p.event.Path)
	}
}

// mergeOps folds two operations seen within one debounce window.
func mergeOps(prev, next Op) Op {
	if next == OpRemove {
		return OpRemove
	}
	if prev == OpCreate {
		return OpCreate
	}
	return next
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pending)

	err := w.fsw.Close()
	w.fsw = nil
	logging.Info("Watcher", "Stopped watching client config files")
	return err
}
