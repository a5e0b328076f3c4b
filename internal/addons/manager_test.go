package addons_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/archive"
)

const gameDir = "/game"

type fakeCatalog []addons.Addon

func (c fakeCatalog) Lookup(name string) (addons.Addon, bool) {
	for _, addon := range c {
		if addon.Matches(name) {
			return addon, true
		}
	}
	return addons.Addon{}, false
}

func (c fakeCatalog) Addons() []addons.Addon {
	return c
}

type fakeTransport struct {
	payloads  map[string][]byte
	failures  map[string]error
	downloads []string
}

func (t *fakeTransport) Download(_ context.Context, url string, dst io.Writer, onProgress func(float64)) error {
	t.downloads = append(t.downloads, url)
	if err, ok := t.failures[url]; ok {
		_, _ = dst.Write([]byte("partial"))
		return err
	}
	data, ok := t.payloads[url]
	if !ok {
		return fmt.Errorf("no payload for %s", url)
	}
	if _, err := dst.Write(data); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(1)
	}
	return nil
}

func (t *fakeTransport) ResolveFilename(_ context.Context, url string) (string, error) {
	return addons.FilenameFromURL(url), nil
}

type answer bool

func (a answer) Confirm(string, string) bool { return bool(a) }

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

var (
	loader = addons.Addon{
		Nickname:     "addon-loader",
		AddonName:    "Addon Loader",
		InstallMode:  addons.InstallModeLoader,
		DownloadType: addons.DownloadTypeArchive,
		DownloadURL:  "https://example.com/loader.zip",
	}
	arcdps = addons.Addon{
		Nickname:     "arcdps",
		AddonName:    "ArcDPS",
		InstallMode:  addons.InstallModeBinary,
		DownloadType: addons.DownloadTypeDLL,
		DownloadURL:  "https://example.com/gw2addon_arcdps.dll",
		Requires:     []string{"Addon Loader"},
	}
	radial = addons.Addon{
		Nickname:     "radial",
		AddonName:    "Radial",
		InstallMode:  addons.InstallModeArc,
		DownloadType: addons.DownloadTypeArchive,
		DownloadURL:  "https://example.com/radial.zip",
		PluginName:   "d3d9_arcdps_radial",
		Requires:     []string{"arcdps", "Addon Loader"},
	}
)

type harness struct {
	fs        afero.Fs
	transport *fakeTransport
	manager   *addons.Manager
	events    []addons.Progress
}

func newHarness(t *testing.T, opts addons.Options, catalog ...addons.Addon) *harness {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(gameDir, 0755))

	transport := &fakeTransport{
		payloads: map[string][]byte{
			loader.DownloadURL: zipBytes(t, map[string]string{
				"addonLoader.dll": "loader",
				"dxgi.dll":        "dxgi",
				"d3d11.dll":       "d3d11",
				"bin64/d3d9.dll":  "d3d9",
			}),
			arcdps.DownloadURL: []byte("arcdps"),
			radial.DownloadURL: zipBytes(t, map[string]string{"d3d9_arcdps_radial.dll": "radial"}),
		},
		failures: map[string]error{},
	}

	opts.Fs = fs
	opts.GameDir = gameDir
	if opts.Catalog == nil {
		opts.Catalog = fakeCatalog(catalog)
	}
	opts.Transport = transport
	opts.Extractor = archive.NewZipExtractor(fs)

	h := &harness{fs: fs, transport: transport}
	h.manager = addons.NewManager(opts).WithProgress(func(p addons.Progress) {
		h.events = append(h.events, p)
	})
	return h
}

func (h *harness) phase(phase addons.Phase) []string {
	var names []string
	for _, e := range h.events {
		if e.Phase == phase {
			names = append(names, e.Addon)
		}
	}
	return names
}

func (h *harness) state(t *testing.T, addon addons.Addon) addons.State {
	t.Helper()
	state, err := h.manager.State(addon)
	require.NoError(t, err)
	return state
}

func (h *harness) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(h.fs, path)
	require.NoError(t, err)
	return ok
}

func TestInstallResolvesDependenciesFirst(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)

	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))

	assert.Equal(t, []string{loader.DownloadURL, arcdps.DownloadURL, radial.DownloadURL}, h.transport.downloads)
	assert.Equal(t, []string{"Addon Loader", "ArcDPS", "Radial"}, h.phase(addons.PhaseStarted))
	assert.Equal(t, []string{"Addon Loader", "ArcDPS", "Radial"}, h.phase(addons.PhaseDone))

	assert.Equal(t, addons.StateEnabled, h.state(t, loader))
	assert.Equal(t, addons.StateEnabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateEnabled, h.state(t, radial))

	assert.True(t, h.exists(t, "/game/addons/arcdps/gw2addon_arcdps.dll"))
	assert.True(t, h.exists(t, "/game/addons/arcdps/d3d9_arcdps_radial.dll"))
	assert.True(t, h.exists(t, "/game/bin64/d3d9.dll"))
}

func TestInstallSkipsInstalledAddons(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps)

	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{arcdps}))
	h.events = nil

	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{arcdps, loader}))
	assert.Len(t, h.transport.downloads, 2, "nothing is downloaded twice")
	assert.Equal(t, []string{"Addon Loader", "ArcDPS"}, h.phase(addons.PhaseSkipped))
}

func TestInstallEmptySelectionIsNoop(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader)
	require.NoError(t, h.manager.Install(context.Background(), nil))
	assert.Empty(t, h.transport.downloads)
}

func TestOperationsWithoutGameDir(t *testing.T) {
	operations := map[string]func(*addons.Manager, context.Context, []addons.Addon) error{
		"install": (*addons.Manager).Install,
		"delete":  (*addons.Manager).Delete,
		"enable":  (*addons.Manager).Enable,
		"disable": (*addons.Manager).Disable,
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "arcdps/gw2addon_arcdps.dll", []byte("arcdps"), 0644))
			require.NoError(t, afero.WriteFile(fs, "arcdps/notes.txt", []byte("keep"), 0644))
			require.NoError(t, afero.WriteFile(fs, "dxgi.dll", []byte("dxgi"), 0644))

			m := addons.NewManager(addons.Options{Fs: fs, Catalog: fakeCatalog{loader, arcdps}})
			err := op(m, context.Background(), []addons.Addon{arcdps, loader})
			assert.ErrorIs(t, err, addons.ErrNoGameDir)

			for _, path := range []string{"arcdps/gw2addon_arcdps.dll", "arcdps/notes.txt", "dxgi.dll"} {
				ok, err := afero.Exists(fs, path)
				require.NoError(t, err)
				assert.True(t, ok, "%s must be left alone", path)
			}
		})
	}
}

func TestInstallMissingDependency(t *testing.T) {
	foo := addons.Addon{
		Nickname:     "foo",
		AddonName:    "Foo",
		InstallMode:  addons.InstallModeBinary,
		DownloadType: addons.DownloadTypeDLL,
		DownloadURL:  "https://example.com/gw2addon_foo.dll",
		Requires:     []string{"ghost"},
	}
	h := newHarness(t, addons.Options{}, foo)

	err := h.manager.Install(context.Background(), []addons.Addon{foo})
	require.Error(t, err)
	assert.True(t, addons.IsMissingDependency(err))
	assert.ErrorIs(t, err, addons.ErrAddonNotFound)

	var batchErr *addons.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, "installing", batchErr.Op)
	assert.Equal(t, []string{"Foo"}, batchErr.Addons)
	assert.Contains(t, err.Error(), "unable to find dependency 'ghost' of Foo")
	assert.Empty(t, h.transport.downloads)
}

func TestDependencyCycles(t *testing.T) {
	a := addons.Addon{Nickname: "a", AddonName: "A", InstallMode: addons.InstallModeBinary, Requires: []string{"b"}}
	b := addons.Addon{Nickname: "b", AddonName: "B", InstallMode: addons.InstallModeBinary, Requires: []string{"a"}}
	self := addons.Addon{Nickname: "self", AddonName: "Self", InstallMode: addons.InstallModeBinary, Requires: []string{"self"}}

	t.Run("install", func(t *testing.T) {
		h := newHarness(t, addons.Options{}, a, b, self)

		err := h.manager.Install(context.Background(), []addons.Addon{a})
		require.Error(t, err)
		assert.True(t, addons.IsDependencyCycle(err))
		assert.Contains(t, err.Error(), "A -> B -> A")

		err = h.manager.Install(context.Background(), []addons.Addon{self})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Self -> Self")
	})

	t.Run("delete", func(t *testing.T) {
		h := newHarness(t, addons.Options{}, a, b)
		require.NoError(t, afero.WriteFile(h.fs, "/game/addons/a/gw2addon_a.dll", []byte("a"), 0644))
		require.NoError(t, afero.WriteFile(h.fs, "/game/addons/b/gw2addon_b.dll", []byte("b"), 0644))

		err := h.manager.Delete(context.Background(), []addons.Addon{a})
		require.Error(t, err)
		assert.True(t, addons.IsDependencyCycle(err))
	})
}

func TestInstallFailureKeepsEarlierAddons(t *testing.T) {
	bar := addons.Addon{
		Nickname:     "bar",
		AddonName:    "Bar",
		InstallMode:  addons.InstallModeBinary,
		DownloadType: addons.DownloadTypeDLL,
		DownloadURL:  "https://example.com/gw2addon_bar.dll",
	}
	h := newHarness(t, addons.Options{}, loader, arcdps, bar)
	h.transport.failures[bar.DownloadURL] = errors.New("connection reset")

	err := h.manager.Install(context.Background(), []addons.Addon{arcdps, bar})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while installing addons (ArcDPS, Bar)")
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, addons.StateEnabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateAbsent, h.state(t, bar), "partial download is removed")
}

func TestDeleteCascadesToDependents(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))
	h.events = nil

	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{arcdps}))

	assert.Equal(t, []string{"Radial", "ArcDPS"}, h.phase(addons.PhaseDone))
	assert.Equal(t, addons.StateAbsent, h.state(t, radial))
	assert.Equal(t, addons.StateAbsent, h.state(t, arcdps))
	assert.Equal(t, addons.StateEnabled, h.state(t, loader))
	assert.False(t, h.exists(t, "/game/addons/arcdps"))
}

func TestDeleteLoaderRemovesEverything(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))
	h.events = nil

	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{loader}))

	assert.Equal(t, []string{"Radial", "ArcDPS", "Addon Loader"}, h.phase(addons.PhaseDone))
	for _, p := range addons.LoaderFiles(gameDir) {
		assert.False(t, h.exists(t, p), p)
	}
	assert.True(t, h.exists(t, gameDir))
}

func TestDeleteArcPluginKeepsSiblings(t *testing.T) {
	boon := addons.Addon{
		Nickname:    "boon",
		AddonName:   "Boon Table",
		InstallMode: addons.InstallModeArc,
		PluginName:  "d3d9_arcdps_table",
	}
	plugin := radial
	plugin.Requires = nil

	h := newHarness(t, addons.Options{}, plugin, boon)
	require.NoError(t, afero.WriteFile(h.fs, "/game/addons/arcdps/d3d9_arcdps_radial.dll_disabled", []byte("r"), 0644))
	require.NoError(t, afero.WriteFile(h.fs, "/game/addons/arcdps/d3d9_arcdps_table.dll", []byte("b"), 0644))

	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{plugin}))

	assert.Equal(t, addons.StateAbsent, h.state(t, plugin))
	assert.Equal(t, addons.StateEnabled, h.state(t, boon))
}

func TestDeleteAbsentAddonIsNoop(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps)
	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{arcdps}))
	assert.Equal(t, []string{"ArcDPS"}, h.phase(addons.PhaseSkipped))
}

func TestDestructiveOperationsNeedConfirmation(t *testing.T) {
	h := newHarness(t, addons.Options{Confirmer: answer(false)}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}), "install is never gated")

	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{arcdps}))
	require.NoError(t, h.manager.Disable(context.Background(), []addons.Addon{arcdps}))
	require.NoError(t, h.manager.Reset())

	assert.Equal(t, addons.StateEnabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateEnabled, h.state(t, radial))
	assert.Equal(t, addons.StateEnabled, h.state(t, loader))

	yes := h.manager.WithConfirmer(answer(true))
	require.NoError(t, yes.Disable(context.Background(), []addons.Addon{arcdps}))
	assert.Equal(t, addons.StateDisabled, h.state(t, arcdps))
}

func TestEnableDisableRoundTrip(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))

	require.NoError(t, h.manager.Disable(context.Background(), []addons.Addon{arcdps, radial}))
	assert.Equal(t, addons.StateDisabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateDisabled, h.state(t, radial))
	assert.True(t, h.exists(t, "/game/addons/arcdps/gw2addon_arcdps.dll_disabled"))
	assert.True(t, h.exists(t, "/game/addons/arcdps/d3d9_arcdps_radial.dll_disabled"))

	// Disabling twice is a logged skip
	h.events = nil
	require.NoError(t, h.manager.Disable(context.Background(), []addons.Addon{arcdps}))
	assert.Equal(t, []string{"ArcDPS"}, h.phase(addons.PhaseSkipped))

	require.NoError(t, h.manager.Enable(context.Background(), []addons.Addon{arcdps, radial}))
	assert.Equal(t, addons.StateEnabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateEnabled, h.state(t, radial))

	data, err := afero.ReadFile(h.fs, "/game/addons/arcdps/d3d9_arcdps_radial.dll")
	require.NoError(t, err)
	assert.Equal(t, "radial", string(data))
}

func TestToggleSkipsLoaderAndAbsentAddons(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{loader}))

	require.NoError(t, h.manager.Disable(context.Background(), []addons.Addon{loader}))
	assert.Equal(t, addons.StateEnabled, h.state(t, loader), "the loader has no disabled form")

	require.NoError(t, h.manager.Enable(context.Background(), []addons.Addon{arcdps}))
	assert.Equal(t, addons.StateAbsent, h.state(t, arcdps))
}

func TestReset(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))
	require.NoError(t, afero.WriteFile(h.fs, "/game/Gw2-64.exe", []byte("game"), 0644))

	require.NoError(t, h.manager.Reset())

	assert.False(t, h.exists(t, "/game/addons"))
	for _, p := range addons.LoaderFiles(gameDir) {
		assert.False(t, h.exists(t, p), p)
	}
	assert.True(t, h.exists(t, "/game/Gw2-64.exe"))
}

func TestDeleteWithBackupAndRestore(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	backups := addons.NewBackupManager(h.fs, "/data", gameDir)
	h.manager = addons.NewManager(addons.Options{
		Fs:        h.fs,
		GameDir:   gameDir,
		Catalog:   fakeCatalog{loader, arcdps, radial},
		Transport: h.transport,
		Extractor: archive.NewZipExtractor(h.fs),
		Backup:    backups,
	})

	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radial}))
	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{arcdps}))
	assert.Equal(t, addons.StateAbsent, h.state(t, arcdps))

	list, err := backups.ListBackups("radial")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = backups.RestoreBackup("arcdps", "")
	require.NoError(t, err)
	_, err = backups.RestoreBackup("radial", "")
	require.NoError(t, err)

	assert.Equal(t, addons.StateEnabled, h.state(t, arcdps))
	assert.Equal(t, addons.StateEnabled, h.state(t, radial))
	assert.True(t, h.exists(t, filepath.Join("/data", "backups", "arcdps")))
}

func TestFindAll(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)

	found, err := h.manager.FindAll([]string{"RADIAL", "Addon Loader"})
	require.NoError(t, err)
	assert.Equal(t, []string{"radial", "addon-loader"}, []string{found[0].Nickname, found[1].Nickname})

	_, err = h.manager.FindAll([]string{"ghost"})
	assert.ErrorIs(t, err, addons.ErrAddonNotFound)
}

func TestListStatus(t *testing.T) {
	h := newHarness(t, addons.Options{}, loader, arcdps, radial)
	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{arcdps}))

	statuses, err := h.manager.ListStatus()
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, addons.StateEnabled, statuses[0].State)
	assert.Equal(t, addons.StateEnabled, statuses[1].State)
	assert.Equal(t, addons.StateAbsent, statuses[2].State)
}
