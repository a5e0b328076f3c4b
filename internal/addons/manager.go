package addons

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Catalog is the read-only view of the merged addon catalog
type Catalog interface {
	// Lookup finds an addon by nickname or display name, ignoring case
	Lookup(name string) (Addon, bool)
	// Addons returns every addon in a stable order
	Addons() []Addon
}

// Transport fetches addon payloads
type Transport interface {
	Download(ctx context.Context, url string, dst io.Writer, onProgress func(fraction float64)) error
	// ResolveFilename returns the file name a single-file download should be saved under
	ResolveFilename(ctx context.Context, url string) (string, error)
}

// Extractor unpacks an archive under destDir and returns the relative paths of the files written
type Extractor interface {
	Extract(src io.ReaderAt, size int64, destDir string) ([]string, error)
}

// Confirmer gates destructive batch operations on a yes/no answer
type Confirmer interface {
	Confirm(title, message string) bool
}

// Phase is a step in the processing of one addon
type Phase int

const (
	PhaseStarted Phase = iota
	PhaseDownloading
	PhaseSkipped
	PhaseDone
)

// Progress reports what the manager is doing with one addon of a batch.
// Dependencies pulled in by install and dependents removed by delete are
// reported too.
type Progress struct {
	Addon    string
	Phase    Phase
	Fraction float64 // download progress, 0..1
}

// Options configures a Manager
type Options struct {
	Fs        afero.Fs // defaults to the OS filesystem
	GameDir   string
	Catalog   Catalog
	Transport Transport
	Extractor Extractor
	Confirmer Confirmer      // nil means every prompt is answered yes
	Backup    *BackupManager // nil disables backups before delete
	Logger    *log.Logger
}

// Manager installs, deletes and toggles addons. The filesystem is the only
// source of truth for addon state; the manager keeps no ledger of its own.
//
// Batch operations are not safe to run concurrently with each other; callers
// serialize them.
type Manager struct {
	fs         afero.Fs
	gameDir    string
	addonsDir  string
	catalog    Catalog
	transport  Transport
	extractor  Extractor
	confirm    Confirmer
	backup     *BackupManager
	onProgress func(Progress)
	log        *log.Logger
}

// NewManager creates a new addon manager
func NewManager(opts Options) *Manager {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Manager{
		fs:        fs,
		gameDir:   opts.GameDir,
		catalog:   opts.Catalog,
		transport: opts.Transport,
		extractor: opts.Extractor,
		confirm:   opts.Confirmer,
		backup:    opts.Backup,
		log:       logger,
	}
	if opts.GameDir != "" {
		m.addonsDir = filepath.Join(opts.GameDir, "addons")
	}

	return m
}

// WithConfirmer returns a copy of the manager using c for prompts
func (m *Manager) WithConfirmer(c Confirmer) *Manager {
	clone := *m
	clone.confirm = c
	return &clone
}

// WithProgress returns a copy of the manager reporting progress events to fn
func (m *Manager) WithProgress(fn func(Progress)) *Manager {
	clone := *m
	clone.onProgress = fn
	return &clone
}

// Find looks up a catalog addon by nickname or display name
func (m *Manager) Find(name string) (Addon, error) {
	addon, ok := m.catalog.Lookup(name)
	if !ok {
		return Addon{}, fmt.Errorf("%w: %s", ErrAddonNotFound, name)
	}
	return addon, nil
}

// FindAll resolves several names, failing on the first unknown one
func (m *Manager) FindAll(names []string) ([]Addon, error) {
	found := make([]Addon, 0, len(names))
	for _, name := range names {
		addon, err := m.Find(name)
		if err != nil {
			return nil, err
		}
		found = append(found, addon)
	}
	return found, nil
}

// Install installs each addon in order, dependencies first. Addons already
// present are skipped without a version check. A failure aborts the rest of
// the batch; addons installed before it are kept.
func (m *Manager) Install(ctx context.Context, addons []Addon) error {
	if len(addons) == 0 {
		m.log.Warn("No addons selected, nothing to install")
		return nil
	}
	if m.gameDir == "" {
		return ErrNoGameDir
	}

	v := newVisit()
	for _, addon := range addons {
		m.log.Info("Installing addon", "addon", addon.Name())
		if err := m.install(ctx, addon, v); err != nil {
			return m.batchFailed("installing", addons, err)
		}
	}
	return nil
}

func (m *Manager) install(ctx context.Context, addon Addon, v *visit) error {
	if v.isDone(addon) {
		return nil
	}
	if err := v.push(addon); err != nil {
		return err
	}
	defer v.pop()

	for _, dependency := range addon.Requires {
		dep, ok := m.catalog.Lookup(dependency)
		if !ok {
			return &MissingDependencyError{Addon: addon.Name(), Dependency: dependency}
		}
		if err := m.install(ctx, dep, v); err != nil {
			return err
		}
	}

	installed, err := m.IsInstalled(addon)
	if err != nil {
		return err
	}
	if installed {
		m.log.Info("Skipping addon, already installed", "addon", addon.Name())
		m.notify(addon, PhaseSkipped, 0)
		return nil
	}
	m.notify(addon, PhaseStarted, 0)

	dir, err := m.AddonDirectory(addon)
	if err != nil {
		return err
	}

	var files []string
	switch addon.DownloadType {
	case DownloadTypeArchive:
		files, err = m.installArchive(ctx, addon, dir)
	case DownloadTypeDLL:
		files, err = m.installFile(ctx, addon, dir)
	default:
		err = fmt.Errorf("unknown download type %s for %s", addon.DownloadType, addon.Name())
	}
	if err != nil {
		return err
	}

	m.log.Info("Installed addon", "addon", addon.Name(), "files", len(files), "dir", dir)
	m.notify(addon, PhaseDone, 1)
	return nil
}

func (m *Manager) installArchive(ctx context.Context, addon Addon, dir string) ([]string, error) {
	var buf bytes.Buffer
	if err := m.transport.Download(ctx, addon.DownloadURL, &buf, m.progressFor(addon)); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", addon.Name(), err)
	}
	m.log.Debug("Downloaded addon", "addon", addon.Name(), "bytes", buf.Len())

	data := buf.Bytes()
	files, err := m.extractor.Extract(bytes.NewReader(data), int64(len(data)), dir)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", addon.Name(), err)
	}
	return files, nil
}

func (m *Manager) installFile(ctx context.Context, addon Addon, dir string) ([]string, error) {
	fileName, err := m.transport.ResolveFilename(ctx, addon.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file name of %s: %w", addon.Name(), err)
	}

	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create addon directory: %w", err)
	}

	target := filepath.Join(dir, fileName)
	out, err := m.fs.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", target, err)
	}

	err = m.transport.Download(ctx, addon.DownloadURL, out, m.progressFor(addon))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial artifact would read as installed
		_ = m.fs.Remove(target)
		return nil, fmt.Errorf("failed to download %s: %w", addon.Name(), err)
	}
	m.log.Debug("Downloaded addon", "addon", addon.Name(), "path", target)

	return []string{fileName}, nil
}

// Delete removes each addon after first removing every installed addon that
// depends on it. Missing addons are skipped.
func (m *Manager) Delete(ctx context.Context, addons []Addon) error {
	if len(addons) == 0 {
		m.log.Warn("No addons selected, nothing to delete")
		return nil
	}
	if m.gameDir == "" {
		return ErrNoGameDir
	}
	if !m.confirmed("Delete", "Delete the selected addons and everything that depends on them?") {
		m.log.Info("Delete cancelled")
		return nil
	}

	v := newVisit()
	for _, addon := range addons {
		m.log.Info("Deleting addon", "addon", addon.Name())
		if err := m.delete(addon, v); err != nil {
			return m.batchFailed("deleting", addons, err)
		}
	}
	return nil
}

func (m *Manager) delete(addon Addon, v *visit) error {
	state, err := m.State(addon)
	if err != nil {
		return err
	}
	if !state.Installed() {
		m.log.Debug("Skipping addon, not installed", "addon", addon.Name())
		m.notify(addon, PhaseSkipped, 0)
		return nil
	}

	if err := v.push(addon); err != nil {
		return err
	}
	defer v.pop()

	for _, dependent := range m.catalog.Addons() {
		if strings.EqualFold(dependent.Nickname, addon.Nickname) {
			continue
		}
		if dependent.DependsOn(addon) {
			if err := m.delete(dependent, v); err != nil {
				return err
			}
		}
	}

	m.notify(addon, PhaseStarted, 0)
	dir, err := m.AddonDirectory(addon)
	if err != nil {
		return err
	}
	if !m.dirExists(dir) {
		m.log.Warn("Addon directory does not exist, addon does not appear to be installed",
			"addon", addon.Name(), "dir", dir)
		return nil
	}

	artifacts, err := m.artifacts(addon, state)
	if err != nil {
		return err
	}
	if m.backup != nil {
		if backupPath, err := m.backup.CreateBackup(addon.Nickname, artifacts); err != nil {
			m.log.Warn("Failed to create backup", "addon", addon.Name(), "error", err)
		} else {
			m.log.Info("Backup created", "addon", addon.Name(), "path", backupPath)
		}
	}

	switch addon.InstallMode {
	case InstallModeArc:
		m.log.Info("Deleting file", "path", artifacts[0])
		if err := m.fs.Remove(artifacts[0]); err != nil {
			return fmt.Errorf("failed to delete %s: %w", addon.Name(), err)
		}
	case InstallModeBinary:
		m.log.Info("Deleting directory", "path", dir)
		if err := m.fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to delete %s: %w", addon.Name(), err)
		}
	case InstallModeLoader:
		m.removeLoaderFiles()
	default:
		return &UnsupportedInstallModeError{Mode: addon.InstallMode.String()}
	}

	m.log.Info("Deleted addon", "addon", addon.Name())
	m.notify(addon, PhaseDone, 1)
	return nil
}

// artifacts returns what delete removes for an addon in the given state
func (m *Manager) artifacts(addon Addon, state State) ([]string, error) {
	switch addon.InstallMode {
	case InstallModeBinary:
		dir, err := m.AddonDirectory(addon)
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	case InstallModeArc:
		p, err := m.AddonPath(addon, state == StateEnabled)
		if err != nil {
			return nil, err
		}
		if p == "" {
			return nil, fmt.Errorf("%w: no artifact for %s", ErrAddonNotFound, addon.Name())
		}
		return []string{p}, nil
	case InstallModeLoader:
		var present []string
		for _, p := range LoaderFiles(m.gameDir) {
			if m.fileExists(p) {
				present = append(present, p)
			}
		}
		return present, nil
	}
	return nil, &UnsupportedInstallModeError{Mode: addon.InstallMode.String()}
}

// removeLoaderFiles deletes the loader file set; missing files are fine
func (m *Manager) removeLoaderFiles() {
	for _, p := range LoaderFiles(m.gameDir) {
		if !m.fileExists(p) {
			continue
		}
		m.log.Info("Deleting file", "path", p)
		if err := m.fs.Remove(p); err != nil {
			m.log.Warn("Failed to delete loader file", "path", p, "error", err)
		}
	}
}

// Enable renames disabled artifacts back to their enabled extension
func (m *Manager) Enable(ctx context.Context, addons []Addon) error {
	return m.toggle(addons, true)
}

// Disable renames enabled artifacts to the disabled extension, keeping the files
func (m *Manager) Disable(ctx context.Context, addons []Addon) error {
	return m.toggle(addons, false)
}

func (m *Manager) toggle(addons []Addon, enable bool) error {
	verb, title := "disabling", "Disable"
	if enable {
		verb, title = "enabling", "Enable"
	}

	if len(addons) == 0 {
		m.log.Warn("No addons selected, nothing to do", "operation", verb)
		return nil
	}
	if m.gameDir == "" {
		return ErrNoGameDir
	}
	if !m.confirmed(title, title+" the selected addons?") {
		m.log.Info("Operation cancelled", "operation", verb)
		return nil
	}

	for _, addon := range addons {
		m.log.Info(title+" addon", "addon", addon.Name())
		if err := m.setEnabled(addon, enable); err != nil {
			return m.batchFailed(verb, addons, err)
		}
	}
	return nil
}

func (m *Manager) setEnabled(addon Addon, enable bool) error {
	state, err := m.State(addon)
	if err != nil {
		return err
	}
	if !state.Installed() || (state == StateEnabled) == enable {
		m.log.Info("Skipping addon, not installed or already in desired state", "addon", addon.Name())
		m.notify(addon, PhaseSkipped, 0)
		return nil
	}
	m.notify(addon, PhaseStarted, 0)

	current, err := m.AddonPath(addon, state == StateEnabled)
	if err != nil {
		return err
	}
	if !m.fileExists(current) {
		m.log.Warn("Expected addon path does not exist, skipping", "addon", addon.Name(), "path", current)
		m.notify(addon, PhaseSkipped, 0)
		return nil
	}

	target := changeExtension(current, extensionFor(enable))
	if err := m.fs.Rename(current, target); err != nil {
		return fmt.Errorf("failed to rename %s: %w", current, err)
	}

	if enable {
		m.log.Info("Enabled addon", "addon", addon.Name())
	} else {
		m.log.Info("Disabled addon", "addon", addon.Name())
	}
	m.notify(addon, PhaseDone, 1)
	return nil
}

// Reset returns the game directory to a clean install: the whole addons
// directory and the loader files are removed.
func (m *Manager) Reset() error {
	if m.gameDir == "" || !m.dirExists(m.gameDir) {
		return ErrNoGameDir
	}
	if !m.confirmed("Reset to clean install", "Remove every addon and the addon loader?") {
		m.log.Info("Reset cancelled")
		return nil
	}

	if m.dirExists(m.addonsDir) {
		m.log.Info("Deleting directory", "path", m.addonsDir)
		if err := m.fs.RemoveAll(m.addonsDir); err != nil {
			return fmt.Errorf("failed to remove addons directory: %w", err)
		}
	}
	m.removeLoaderFiles()

	m.log.Info("Reset to clean install complete", "game_dir", m.gameDir)
	return nil
}

func (m *Manager) confirmed(title, message string) bool {
	if m.confirm == nil {
		return true
	}
	return m.confirm.Confirm(title, message)
}

func (m *Manager) notify(addon Addon, phase Phase, fraction float64) {
	if m.onProgress != nil {
		m.onProgress(Progress{Addon: addon.Name(), Phase: phase, Fraction: fraction})
	}
}

func (m *Manager) progressFor(addon Addon) func(float64) {
	if m.onProgress == nil {
		return nil
	}
	return func(fraction float64) {
		m.notify(addon, PhaseDownloading, fraction)
	}
}

func (m *Manager) batchFailed(op string, addons []Addon, err error) error {
	names := make([]string, 0, len(addons))
	for _, addon := range addons {
		names = append(names, addon.Name())
	}
	batchErr := &BatchError{Op: op, Addons: names, Err: err}
	m.log.Error("Batch operation failed", "operation", op, "addons", strings.Join(names, ", "), "error", err)
	return batchErr
}

// visit tracks the recursion path of one batch to detect dependency cycles
type visit struct {
	path []Addon
	done map[string]bool
}

func newVisit() *visit {
	return &visit{done: make(map[string]bool)}
}

func (v *visit) push(addon Addon) error {
	for i, seen := range v.path {
		if strings.EqualFold(seen.Nickname, addon.Nickname) {
			cycle := make([]string, 0, len(v.path)-i+1)
			for _, a := range v.path[i:] {
				cycle = append(cycle, a.Name())
			}
			cycle = append(cycle, addon.Name())
			return &DependencyCycleError{Cycle: cycle}
		}
	}
	v.path = append(v.path, addon)
	return nil
}

func (v *visit) pop() {
	last := v.path[len(v.path)-1]
	v.done[strings.ToLower(last.Nickname)] = true
	v.path = v.path[:len(v.path)-1]
}

func (v *visit) isDone(addon Addon) bool {
	return v.done[strings.ToLower(addon.Nickname)]
}
