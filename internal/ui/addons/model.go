package addons

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/gw2ctl/internal/addons"
	uiprogress "github.com/bnema/gw2ctl/internal/ui/progress"
	"github.com/bnema/gw2ctl/internal/ui/styles"
	"github.com/bnema/gw2ctl/internal/watcher"
)

// View states
type viewState int

const (
	viewList viewState = iota
	viewConfirm
	viewProgress
	viewInfo
)

// addonItem implements list.Item for bubbles/list
type addonItem struct {
	addon addons.Addon
	state addons.State
}

func (i addonItem) Title() string {
	return i.addon.Name()
}

func (i addonItem) Description() string {
	parts := []string{styles.FormatState(i.state), styles.FormatMode(i.addon.InstallMode)}

	if i.addon.VersionID != "" {
		parts = append(parts, styles.FormatVersion(i.addon.VersionID))
	}
	if i.addon.Developer != "" {
		parts = append(parts, "by "+i.addon.Developer)
	}

	return strings.Join(parts, " | ")
}

func (i addonItem) FilterValue() string {
	return i.addon.Nickname + " " + i.addon.AddonName + " " + i.addon.Developer
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	Install key.Binding
	Remove  key.Binding
	Enable  key.Binding
	Disable key.Binding
	Info    key.Binding
	Reload  key.Binding
	Quit    key.Binding
	Back    key.Binding
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Install: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "install"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		Enable: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable"),
		),
		Disable: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "disable"),
		),
		Info: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "info"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
	}
}

// Model is the catalog browser. It lists every catalog addon with its
// current state and keeps the states fresh from the watcher's changes.
type Model struct {
	ctx     context.Context
	manager *addons.Manager
	changes <-chan watcher.Change
	list    list.Model
	spinner spinner.Model
	keys    KeyMap

	state         viewState
	width, height int

	selected  *addonItem
	pending   operation
	progress  *uiprogress.Progress
	statusMsg string
	errorMsg  string
}

// NewModel creates the browser. changes may be nil when no watcher runs.
// Destructive operations are confirmed in the browser itself, so manager
// should carry no confirmer.
func NewModel(ctx context.Context, manager *addons.Manager, changes <-chan watcher.Change) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(styles.Primary).
		BorderForeground(styles.Primary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(styles.Muted).
		BorderForeground(styles.Primary)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Guild Wars 2 addons"
	l.Styles.Title = styles.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return Model{
		ctx:     ctx,
		manager: manager,
		changes: changes,
		list:    l,
		spinner: s,
		keys:    DefaultKeyMap(),
		state:   viewList,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadStatuses,
		waitForChange(m.changes),
		m.spinner.Tick,
	)
}

// loadStatuses reads the state of every catalog addon
func (m Model) loadStatuses() tea.Msg {
	statuses, err := m.manager.ListStatus()
	if err != nil {
		return errMsg{err}
	}
	return statusesLoadedMsg{statuses}
}

// waitForChange blocks on the next watcher change
func waitForChange(changes <-chan watcher.Change) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return changeMsg(change)
	}
}

// Messages
type statusesLoadedMsg struct {
	statuses []addons.AddonStatus
}

type changeMsg watcher.Change

type errMsg struct {
	err error
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := styles.App.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-2)
		return m, nil

	case tea.KeyMsg:
		// Filtering owns the keyboard
		if m.state == viewList && m.list.FilterState() == list.Filtering {
			break
		}

		if key.Matches(msg, m.keys.Quit) {
			if m.state == viewList {
				return m, tea.Quit
			}
			if m.state == viewProgress {
				// Operations run to completion
				return m, nil
			}
			m.state = viewList
			m.errorMsg = ""
			m.statusMsg = ""
			return m, nil
		}

		switch m.state {
		case viewList:
			return m.updateList(msg)
		case viewConfirm:
			return m.updateConfirm(msg)
		case viewInfo:
			return m.updateInfo(msg)
		case viewProgress:
			return m, nil
		}

	case statusesLoadedMsg:
		items := make([]list.Item, len(msg.statuses))
		for i, status := range msg.statuses {
			items[i] = addonItem{addon: status.Addon, state: status.State}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case changeMsg:
		m.applyChange(watcher.Change(msg))
		return m, waitForChange(m.changes)

	case progressEventMsg:
		if m.progress != nil {
			applyEvent(m.progress, msg.event)
		}
		return m, waitForEvent(msg.events)

	case operationDoneMsg:
		m.state = viewList
		m.selected = nil
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			m.statusMsg = ""
		} else {
			m.errorMsg = ""
			m.statusMsg = msg.op.summary(msg.names)
		}
		return m, m.loadStatuses

	case errMsg:
		m.errorMsg = msg.err.Error()
		m.state = viewList
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyChange updates the state of the changed addon in place
func (m *Model) applyChange(change watcher.Change) {
	items := m.list.Items()
	for i, item := range items {
		ai, ok := item.(addonItem)
		if !ok || ai.addon.Nickname != change.Addon.Nickname {
			continue
		}
		ai.state = change.State
		m.list.SetItem(i, ai)
		return
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, hasItem := m.list.SelectedItem().(addonItem)

	switch {
	case key.Matches(msg, m.keys.Install):
		if !hasItem {
			return m, nil
		}
		if item.state.Installed() {
			m.statusMsg = item.addon.Name() + " is already installed"
			return m, nil
		}
		return m.startOperation(opInstall, item.addon)

	case key.Matches(msg, m.keys.Remove):
		return m.askConfirm(opDelete, item, hasItem)

	case key.Matches(msg, m.keys.Enable):
		return m.askConfirm(opEnable, item, hasItem)

	case key.Matches(msg, m.keys.Disable):
		return m.askConfirm(opDisable, item, hasItem)

	case key.Matches(msg, m.keys.Info):
		if hasItem {
			m.selected = &item
			m.state = viewInfo
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.statusMsg = ""
		m.errorMsg = ""
		return m, m.loadStatuses
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) askConfirm(op operation, item addonItem, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	if !item.state.Installed() {
		m.statusMsg = item.addon.Name() + " is not installed"
		return m, nil
	}
	m.selected = &item
	m.pending = op
	m.state = viewConfirm
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if m.selected != nil {
			return m.startOperation(m.pending, m.selected.addon)
		}
		m.state = viewList
		return m, nil

	case key.Matches(msg, m.keys.Back), msg.String() == "n":
		m.state = viewList
		m.selected = nil
		return m, nil
	}

	return m, nil
}

func (m Model) updateInfo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) || msg.Type == tea.KeyEnter {
		m.state = viewList
		m.selected = nil
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var content string

	switch m.state {
	case viewList:
		content = m.viewList()
	case viewConfirm:
		content = m.viewConfirm()
	case viewProgress:
		content = m.viewProgress()
	case viewInfo:
		content = m.viewInfo()
	}

	return styles.App.Render(content)
}

func (m Model) viewList() string {
	var s strings.Builder

	s.WriteString(m.list.View())

	if m.errorMsg != "" {
		s.WriteString("\n" + styles.FormatError(m.errorMsg))
	} else if m.statusMsg != "" {
		s.WriteString("\n" + styles.FormatSuccess(m.statusMsg))
	}

	help := "\n" + styles.Help.Render("i:install  d:remove  e:enable  x:disable  enter:info  r:reload  /:filter  q:quit")
	s.WriteString(help)

	return s.String()
}

func (m Model) viewConfirm() string {
	var s strings.Builder

	name := ""
	if m.selected != nil {
		name = m.selected.addon.Name()
	}

	s.WriteString(styles.Title.Render(m.pending.title()) + "\n\n")
	s.WriteString(fmt.Sprintf("%s %s?\n", m.pending.question(), styles.Highlighted.Render(name)))
	if m.pending == opDelete {
		s.WriteString("Installed addons that depend on it are removed too.\n")
	}
	s.WriteString("\n" + styles.Help.Render("y:confirm  n/esc:cancel"))

	return s.String()
}

func (m Model) viewInfo() string {
	var s strings.Builder

	if m.selected == nil {
		return "No addon selected"
	}

	a := m.selected.addon

	s.WriteString(styles.Title.Render("Addon Info") + "\n\n")

	s.WriteString(styles.AddonName.Render(a.Name()) + "\n")
	if a.Description != "" {
		s.WriteString(styles.MutedText.Render(a.Description) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(fmt.Sprintf("Nickname:  %s\n", a.Nickname))
	s.WriteString(fmt.Sprintf("State:     %s\n", styles.FormatState(m.selected.state)))
	s.WriteString(fmt.Sprintf("Mode:      %s\n", styles.FormatMode(a.InstallMode)))
	if a.VersionID != "" {
		s.WriteString(fmt.Sprintf("Version:   %s\n", a.VersionID))
	}
	if a.Developer != "" {
		s.WriteString(fmt.Sprintf("Developer: %s\n", a.Developer))
	}
	if a.Website != "" {
		s.WriteString(fmt.Sprintf("Website:   %s\n", a.Website))
	}
	if len(a.Requires) > 0 {
		s.WriteString(fmt.Sprintf("Requires:  %s\n", strings.Join(a.Requires, ", ")))
	}
	if dir, err := m.manager.AddonDirectory(a); err == nil {
		s.WriteString(fmt.Sprintf("Directory: %s\n", dir))
	}

	s.WriteString("\n" + styles.Help.Render("esc/enter:back"))

	return s.String()
}
