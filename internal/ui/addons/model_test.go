package addons

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/watcher"
)

type fakeCatalog []addons.Addon

func (c fakeCatalog) Lookup(name string) (addons.Addon, bool) {
	for _, a := range c {
		if a.Matches(name) {
			return a, true
		}
	}
	return addons.Addon{}, false
}

func (c fakeCatalog) Addons() []addons.Addon { return c }

var (
	arcdps = addons.Addon{Nickname: "arcdps", AddonName: "ArcDPS", InstallMode: addons.InstallModeBinary}
	radial = addons.Addon{Nickname: "radial", AddonName: "Radial", InstallMode: addons.InstallModeArc, PluginName: "d3d9_arcdps_radial"}
)

func newTestModel(t *testing.T) (Model, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/addons/arcdps/gw2addon_arcdps.dll", []byte("x"), 0644))

	manager := addons.NewManager(addons.Options{
		Fs:      fs,
		GameDir: "/game",
		Catalog: fakeCatalog{arcdps, radial},
	})

	var m tea.Model = NewModel(context.Background(), manager, nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(m.(Model).loadStatuses())
	return m.(Model), fs
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func itemStates(m Model) map[string]addons.State {
	states := map[string]addons.State{}
	for _, item := range m.list.Items() {
		ai := item.(addonItem)
		states[ai.addon.Nickname] = ai.state
	}
	return states
}

func TestModelLoadsStatuses(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, map[string]addons.State{
		"arcdps": addons.StateEnabled,
		"radial": addons.StateAbsent,
	}, itemStates(m))
	assert.Contains(t, m.View(), "ArcDPS")
}

func TestModelAppliesWatcherChanges(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(changeMsg(watcher.Change{Addon: arcdps, Installed: true, State: addons.StateDisabled}))
	assert.Equal(t, addons.StateDisabled, itemStates(updated.(Model))["arcdps"])
}

func TestModelConfirmFlow(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(keyPress("d"))
	m = updated.(Model)
	require.Equal(t, viewConfirm, m.state)
	assert.Equal(t, opDelete, m.pending)
	assert.Contains(t, m.View(), "ArcDPS")

	updated, _ = m.Update(keyPress("n"))
	m = updated.(Model)
	assert.Equal(t, viewList, m.state)
	assert.Nil(t, m.selected)
}

func TestModelInstallSkipsInstalled(t *testing.T) {
	m, _ := newTestModel(t)

	updated, cmd := m.Update(keyPress("i"))
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, viewList, m.state)
	assert.Equal(t, "ArcDPS is already installed", m.statusMsg)
}

func TestRunOperationReportsProgress(t *testing.T) {
	m, fs := newTestModel(t)

	events := make(chan addons.Progress, 16)
	msg := m.runOperation(opDisable, []addons.Addon{arcdps}, events)()

	done, ok := msg.(operationDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, "ArcDPS disabled", done.op.summary(done.names))

	var phases []addons.Phase
	for e := range events {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, []addons.Phase{addons.PhaseStarted, addons.PhaseDone}, phases)

	exists, err := afero.Exists(fs, "/game/addons/arcdps/gw2addon_arcdps.dll_disabled")
	require.NoError(t, err)
	assert.True(t, exists)

	updated, _ := m.Update(done)
	assert.Equal(t, viewList, updated.(Model).state)
	assert.Equal(t, "ArcDPS disabled", updated.(Model).statusMsg)
}
