// Package watch reports settled file changes in the active car directory so
// the viewer can reload models and skins while they are being edited.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/logger"
)

// DefaultDebounce is how long the directory has to stay quiet before a
// Change is reported.
const DefaultDebounce = 300 * time.Millisecond

// Change lists the files touched under Root since the last report.
type Change struct {
	Root  string
	Paths []string
}

// Touches reports whether any changed path has one of the extensions.
func (c Change) Touches(exts ...string) bool {
	for _, p := range c.Paths {
		ext := strings.ToLower(filepath.Ext(p))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
	}
	return false
}

// Watcher follows one root directory and its skins subdirectories.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	root    string
	watched []string
}

// New creates an idle watcher. Zero debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fs: fs, debounce: debounce, log: logger.Named("watch")}, nil
}

// Root returns the directory being watched, or "".
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// Watch switches to root: the directory itself, root/skins and every skin
// directory. An empty root stops watching.
func (w *Watcher) Watch(root string) error {
	if root != "" {
		root = filepath.Clean(root)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if root == w.root {
		return nil
	}
	for _, dir := range w.watched {
		_ = w.fs.Remove(dir)
	}
	w.watched, w.root = nil, root
	if root == "" {
		return nil
	}

	if err := w.addLocked(root); err != nil {
		w.root = ""
		return err
	}
	skins := filepath.Join(root, "skins")
	if err := w.addLocked(skins); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.log.Warn("skins not watched", zap.String("dir", skins), zap.Error(err))
	}
	entries, _ := os.ReadDir(skins)
	for _, e := range entries {
		if e.IsDir() {
			if err := w.addLocked(filepath.Join(skins, e.Name())); err != nil {
				w.log.Warn("skin not watched", zap.String("skin", e.Name()), zap.Error(err))
			}
		}
	}
	w.log.Debug("watching", zap.String("root", root), zap.Int("dirs", len(w.watched)))
	return nil
}

func (w *Watcher) addLocked(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.watched = append(w.watched, dir)
	return nil
}

// within reports whether path lies under the current root.
func (w *Watcher) within(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.root == "" {
		return "", false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return w.root, true
}

func ignored(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(ev.Name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

// Run delivers debounced changes to fn until ctx is done or Close is called.
// fn runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, fn func(Change)) error {
	var (
		root    string
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ignored(ev) {
				continue
			}
			r, ok := w.within(ev.Name)
			if !ok {
				continue
			}
			if r != root {
				clear(pending)
				root = r
			}
			if ev.Has(fsnotify.Create) {
				w.followSkin(ev.Name)
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			if len(pending) == 0 || root != w.Root() {
				clear(pending)
				continue
			}
			c := Change{Root: root, Paths: make([]string, 0, len(pending))}
			for p := range pending {
				c.Paths = append(c.Paths, p)
			}
			sort.Strings(c.Paths)
			clear(pending)
			fn(c)
		}
	}
}

// followSkin starts watching directories created under root/skins.
func (w *Watcher) followSkin(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	parent := filepath.Dir(path)
	if parent != filepath.Join(w.root, "skins") && path != filepath.Join(w.root, "skins") {
		return
	}
	if err := w.addLocked(path); err != nil {
		w.log.Warn("new directory not watched", zap.String("dir", path), zap.Error(err))
	}
}

// Close stops the watcher and ends Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
