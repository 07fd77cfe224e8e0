// Package watcher notices when the catalog file changes on disk so the
// viewer can reload it. It uses fsnotify on the containing directory and
// falls back to stat polling on remote filesystems, when fsnotify is
// unavailable, or when polling is forced.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/museumhub/pkg/debug"
)

// DefaultPollInterval is the polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("catalog file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// EventKind says what happened to the catalog file.
type EventKind int

const (
	EventChanged EventKind = iota
	EventRemoved
	EventError
)

// Event is delivered on Events. Err is set for EventRemoved and EventError.
type Event struct {
	Kind EventKind
	Path string
	Err  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithForcePoll skips fsnotify entirely.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher watches one catalog file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool

	debouncer *Debouncer
	events    chan Event

	mu        sync.Mutex
	started   bool
	polling   bool
	fsType    FilesystemType
	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	lastMtime time.Time
	lastSize  int64
}

// New returns a Watcher for path. Nothing runs until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		pollInterval: DefaultPollInterval,
		events:       make(chan Event, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. It stops when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMtime = info.ModTime()
		w.lastSize = info.Size()
	case os.IsPermission(err):
		return ErrPermission
	default:
		// Not created yet; polling picks it up when it appears.
		w.lastMtime = time.Time{}
		w.lastSize = 0
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.fsType = DetectFilesystemType(w.path)
	w.polling = w.forcePoll || isRemoteFilesystem(w.fsType)

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", w.path, err)
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.runFsnotify(ctx, fsw)
		}
	}
	if w.polling {
		go w.runPolling(ctx)
	}

	debug.Log("watcher: watching %s (fs=%s polling=%v)", w.path, w.fsType, w.polling)
	w.started = true
	return nil
}

// Stop stops watching. Events is left open; a pending receive simply
// never fires.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Events delivers changes. Sends never block; a burst the reader has not
// drained yet collapses into the pending event.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Path returns the watched absolute path.
func (w *Watcher) Path() string {
	return w.path
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// FilesystemType returns the detected filesystem of the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsType
}

func (w *Watcher) runFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				// Editors that save by rename remove then recreate; let the
				// debounced change win if the file comes back.
				w.debouncer.Trigger(w.checkExists)
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChanged)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.send(Event{Kind: EventError, Path: w.path, Err: err})
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.mu.Lock()
		hadFile := !w.lastMtime.IsZero()
		w.lastMtime = time.Time{}
		w.lastSize = 0
		w.mu.Unlock()

		switch {
		case os.IsNotExist(err):
			if hadFile {
				w.send(Event{Kind: EventRemoved, Path: w.path, Err: ErrFileRemoved})
			}
		case os.IsPermission(err):
			w.send(Event{Kind: EventError, Path: w.path, Err: ErrPermission})
		default:
			w.send(Event{Kind: EventError, Path: w.path, Err: err})
		}
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastMtime) || info.Size() != w.lastSize
	if changed {
		w.lastMtime = info.ModTime()
		w.lastSize = info.Size()
	}
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notifyChanged)
	}
}

func (w *Watcher) checkExists() {
	if _, err := os.Stat(w.path); err != nil {
		w.send(Event{Kind: EventRemoved, Path: w.path, Err: ErrFileRemoved})
		return
	}
	w.notifyChanged()
}

func (w *Watcher) notifyChanged() {
	w.send(Event{Kind: EventChanged, Path: w.path})
}

func (w *Watcher) send(ev Event) {
	if !w.IsStarted() {
		return
	}
	select {
	case w.events <- ev:
	default:
		// Reader is behind; one pending event is enough to trigger a reload.
	}
}
