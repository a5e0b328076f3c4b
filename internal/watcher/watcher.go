package watcher

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/bnema/gw2ctl/internal/addons"
)

// Change reports the current state of an addon touched by a filesystem event
type Change struct {
	Addon     addons.Addon
	Installed bool
	State     addons.State
}

// Watcher watches the game directory and maps raw file events back to
// catalog addons. Notifications are a re-read of filesystem state, never a
// write, so events caused by the manager itself are harmless.
type Watcher struct {
	catalog addons.Catalog
	fs      afero.Fs
	log     *log.Logger

	mu       sync.Mutex
	root     string
	resolver *addons.Manager
	fsw      *fsnotify.Watcher
	wg       sync.WaitGroup

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

// New creates a watcher. Nothing is watched until SetRoot is called.
func New(catalog addons.Catalog, fs afero.Fs, logger *log.Logger) *Watcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Watcher{
		catalog: catalog,
		fs:      fs,
		log:     logger,
		subs:    make(map[int]chan Change),
	}
}

// Root returns the directory currently watched
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// SetRoot tears down the current watch and watches root recursively instead.
// Subscribers are kept. An empty root only stops watching.
func (w *Watcher) SetRoot(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	w.root = root
	w.resolver = nil
	if root == "" {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.resolver = addons.NewManager(addons.Options{
		Fs:      w.fs,
		GameDir: root,
		Catalog: w.catalog,
	})

	if err := w.addRecursive(fsw, root); err != nil {
		_ = fsw.Close()
		w.resolver = nil
		return err
	}

	w.fsw = fsw
	w.wg.Add(1)
	go w.loop(fsw, w.resolver)

	w.log.Info("Watching game directory", "root", root)
	return nil
}

// Close stops watching and closes every subscriber channel
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.stopLocked()
	w.mu.Unlock()

	w.subMu.Lock()
	defer w.subMu.Unlock()
	for id, ch := range w.subs {
		close(ch)
		delete(w.subs, id)
	}
	w.closed = true
	return nil
}

// Subscribe registers a listener. Delivery never blocks the watcher: when the
// channel buffer is full the change is dropped and logged. The returned
// function unsubscribes and closes the channel.
func (w *Watcher) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)

	w.subMu.Lock()
	defer w.subMu.Unlock()

	if w.closed {
		close(ch)
		return ch, func() {}
	}

	id := w.nextID
	w.nextID++
	w.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.subMu.Lock()
			defer w.subMu.Unlock()
			if _, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(ch)
			}
		})
	}
}

// Affected returns the catalog addons possibly changed by events on paths
func (w *Watcher) Affected(paths ...string) []addons.Addon {
	w.mu.Lock()
	resolver := w.resolver
	w.mu.Unlock()

	if resolver == nil {
		return nil
	}
	return w.affected(resolver, paths)
}

// stopLocked requires w.mu to be held
func (w *Watcher) stopLocked() {
	if w.fsw == nil {
		return
	}
	_ = w.fsw.Close()
	w.wg.Wait()
	w.fsw = nil
	w.log.Debug("Stopped watching", "root", w.root)
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, resolver *addons.Manager) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.log.Debug("Filesystem event", "op", event.Op.String(), "path", event.Name)

			// fsnotify is not recursive: follow new directories
			if event.Has(fsnotify.Create) {
				if ok, _ := afero.IsDir(w.fs, event.Name); ok {
					if err := w.addRecursive(fsw, event.Name); err != nil {
						w.log.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			w.reconcile(resolver, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Filesystem watch error", "error", err)
		}
	}
}

func (w *Watcher) reconcile(resolver *addons.Manager, paths ...string) {
	for _, addon := range w.affected(resolver, paths) {
		state, err := resolver.State(addon)
		if err != nil {
			w.log.Warn("Failed to read addon state", "addon", addon.Name(), "error", err)
			continue
		}
		w.emit(Change{Addon: addon, Installed: state.Installed(), State: state})
	}
}

func (w *Watcher) emit(change Change) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- change:
		default:
			w.log.Warn("Dropping addon change, subscriber is not keeping up", "addon", change.Addon.Name())
		}
	}
}

// affected matches paths against each addon's enabled path, disabled path and
// directory, then falls back to looking for the file name anywhere under the
// addon's directory
func (w *Watcher) affected(resolver *addons.Manager, paths []string) []addons.Addon {
	names := make(map[string]map[string]bool) // dir -> lowercase file names under it
	var out []addons.Addon

	for _, addon := range w.catalog.Addons() {
		candidates := w.artifactPaths(resolver, addon)
		dir, err := resolver.AddonDirectory(addon)
		if err != nil {
			continue
		}
		candidates = append(candidates, dir)

		if w.matches(paths, candidates, dir, names) {
			out = append(out, addon)
		}
	}
	return out
}

func (w *Watcher) artifactPaths(resolver *addons.Manager, addon addons.Addon) []string {
	if addon.InstallMode == addons.InstallModeLoader {
		return addons.LoaderFiles(resolver.GameDir())
	}

	var out []string
	for _, enabled := range []bool{true, false} {
		p, err := resolver.AddonPath(addon, enabled)
		if err == nil && p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (w *Watcher) matches(paths, candidates []string, dir string, names map[string]map[string]bool) bool {
	for _, p := range paths {
		for _, candidate := range candidates {
			if strings.EqualFold(filepath.Clean(p), filepath.Clean(candidate)) {
				return true
			}
		}
	}

	files, ok := names[dir]
	if !ok {
		files = w.fileNames(dir)
		names[dir] = files
	}
	for _, p := range paths {
		if files[strings.ToLower(filepath.Base(p))] {
			return true
		}
	}
	return false
}

// fileNames lists the file names under dir; a missing or unreadable directory is empty
func (w *Watcher) fileNames(dir string) map[string]bool {
	files := make(map[string]bool)
	err := afero.Walk(w.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if ignorable(err) {
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return err
		}
		if !info.IsDir() {
			files[strings.ToLower(info.Name())] = true
		}
		return nil
	})
	if err != nil && !ignorable(err) {
		w.log.Debug("Failed to search addon directory", "dir", dir, "error", err)
	}
	return files
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return afero.Walk(w.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p != root && ignorable(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := fsw.Add(p); err != nil {
			if p == root {
				return err
			}
			w.log.Debug("Failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}

func ignorable(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission)
}
