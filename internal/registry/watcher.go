package registry

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"specgate/internal/spec"
)

// defaultDebounce coalesces rapid successive writes (editors, rsync) into a
// single directory reload.
const defaultDebounce = 100 * time.Millisecond

// newWatcherFunc creates an fsnotify watcher; tests may replace it to inject errors.
type newWatcherFunc func() (*fsnotify.Watcher, error)

// DirWatcher watches a directory of specification documents and, whenever its
// contents change, reloads the whole directory and replaces the namespace in
// the registry atomically. Partial updates are never applied: a failed strict
// reload leaves the previous set in place.
type DirWatcher struct {
	dir       string
	namespace string
	reg       *Registry

	debounce time.Duration
	strict   bool
	schedule string // optional cron expression for full resyncs
	logger   *slog.Logger

	watcher      *fsnotify.Watcher
	cron         *cron.Cron
	done         chan struct{}
	mu           sync.Mutex
	running      bool
	newWatcherFn newWatcherFunc // nil means use fsnotify.NewWatcher
}

// WatcherOption configures a DirWatcher.
type WatcherOption func(*DirWatcher)

// WithLogger sets a structured logger. If l is nil it is ignored and the
// default slog logger is used.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *DirWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce overrides the event debounce delay. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *DirWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithStrictBatch makes reloads reject the whole directory when any document
// has an error finding, keeping the previous set.
func WithStrictBatch(strict bool) WatcherOption {
	return func(w *DirWatcher) { w.strict = strict }
}

// WithResyncSchedule adds a cron-scheduled full reload as a polling fallback
// for filesystems whose events fsnotify misses. Empty disables it.
func WithResyncSchedule(schedule string) WatcherOption {
	return func(w *DirWatcher) { w.schedule = schedule }
}

// NewDirWatcher creates a watcher that loads dir into reg under namespace.
// Call Start to begin watching and Stop to release resources.
func NewDirWatcher(reg *Registry, namespace, dir string, opts ...WatcherOption) *DirWatcher {
	w := &DirWatcher{
		dir:       dir,
		namespace: namespace,
		reg:       reg,
		debounce:  defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// log returns the watcher's logger, falling back to the default slog logger.
func (w *DirWatcher) log() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

// Start performs an initial load, then begins watching for changes. Start
// must not be called more than once without an intervening Stop. The initial
// load's error (if any) is returned; later reload failures are logged.
func (w *DirWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("dir watcher: already started")
	}

	if err := w.Reload(); err != nil {
		return err
	}

	newWatcher := fsnotify.NewWatcher
	if w.newWatcherFn != nil {
		newWatcher = w.newWatcherFn
	}
	watcher, err := newWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true

	if w.schedule != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(w.schedule, w.resync); err != nil {
			watcher.Close()
			w.running = false
			return err
		}
		w.cron.Start()
	}

	go w.eventLoop()
	return nil
}

// Stop ceases watching and releases resources. Safe to call even if not started.
func (w *DirWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.done)
	if w.cron != nil {
		w.cron.Stop()
	}
	err := w.watcher.Close()
	w.running = false
	return err
}

// Reload loads the directory once and replaces the namespace. Under strict
// batch policy a report with errors rejects the whole batch and the previous
// set stays registered.
func (w *DirWatcher) Reload() error {
	specs, rep, err := spec.LoadDir(w.namespace, w.dir)
	if err != nil {
		return err
	}

	if w.strict {
		if err := w.reg.ReplaceStrict(w.namespace, specs, rep); err != nil {
			return err
		}
	} else {
		w.reg.Replace(w.namespace, specs)
	}

	w.log().Info("spec directory loaded",
		"namespace", w.namespace,
		"dir", w.dir,
		"specs", len(specs),
		"errors", len(rep.Errors()),
		"warnings", len(rep.Warnings()),
	)
	return nil
}

// resync is the cron fallback: a full reload with failures logged, not fatal.
func (w *DirWatcher) resync() {
	if err := w.Reload(); err != nil {
		w.log().Warn("scheduled resync failed", "namespace", w.namespace, "error", err)
	}
}

// eventLoop listens for fsnotify events and reloads with debouncing.
func (w *DirWatcher) eventLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Creates, writes, renames and removals all change the loaded set.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			// Debounce: reset the timer on every qualifying event.
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.log().Warn("reload failed, keeping previous set",
						"namespace", w.namespace, "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log().Warn("fsnotify error", "error", err)
		}
	}
}
