// Package content watches the move-list directory and reloads every
// character when a file changes, so authors see validation errors as they
// save.
package content

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

// Characters is a loaded move-list directory keyed by character name.
type Characters = map[string]*action.Character

// Reload reports one reload attempt.
type Reload struct {
	// Path is the file whose change caused the reload, or "" for the initial load.
	Path       string
	Characters Characters
	Err        error
}

// Watcher reloads a move-list directory on change. Current always returns
// the last set that loaded without error.
type Watcher struct {
	dir      string
	debounce time.Duration
	fs       *fsnotify.Watcher
	logger   *zap.Logger
	onReload func(Reload)
	current  atomic.Pointer[Characters]
	once     sync.Once
}

// NewWatcher loads dir once and starts watching it. onReload, if non-nil, is
// called for the initial load synchronously before NewWatcher returns, and
// for every later debounced reload from the goroutine running Run.
//
// Precondition: dir exists; debounce >= 0.
// Postcondition: Returns a watcher or an error if the directory cannot be
// watched. A failed initial load is reported through onReload, not as an error.
func NewWatcher(dir string, debounce time.Duration, logger *zap.Logger, onReload func(Reload)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		fs:       fs,
		logger:   logger.With(zap.String("dir", dir)),
		onReload: onReload,
	}
	w.reload("")
	return w, nil
}

// Current returns the last successfully loaded characters, or nil if none
// has loaded yet.
func (w *Watcher) Current() Characters {
	if p := w.current.Load(); p != nil {
		return *p
	}
	return nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 || !isMoveList(ev.Name) {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload(pending)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-ctx.Done():
			_ = w.Close()
			return ctx.Err()
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() { err = w.fs.Close() })
	return err
}

func (w *Watcher) reload(path string) {
	chars, err := action.LoadCharacterDir(w.dir)
	if err != nil {
		w.logger.Warn("move list reload failed", zap.String("changed", path), zap.Error(err))
	} else {
		w.current.Store(&chars)
		w.logger.Info("move lists loaded", zap.String("changed", path), zap.Int("characters", len(chars)))
	}
	if w.onReload != nil {
		w.onReload(Reload{Path: path, Characters: chars, Err: err})
	}
}

func isMoveList(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
