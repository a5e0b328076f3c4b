package addons

// State queries the filesystem for the install state of an addon.
// Nothing is cached: two calls around an out-of-band change see different answers.
func (m *Manager) State(addon Addon) (State, error) {
	switch addon.InstallMode {
	case InstallModeBinary, InstallModeArc:
		enabledPath, err := m.AddonPath(addon, true)
		if err != nil {
			return StateAbsent, err
		}
		if m.fileExists(enabledPath) {
			return StateEnabled, nil
		}

		disabledPath, err := m.AddonPath(addon, false)
		if err != nil {
			return StateAbsent, err
		}
		if m.fileExists(disabledPath) {
			return StateDisabled, nil
		}
		return StateAbsent, nil

	case InstallModeLoader:
		// No disabled form: all four files or nothing
		for _, p := range LoaderFiles(m.gameDir) {
			if !m.fileExists(p) {
				return StateAbsent, nil
			}
		}
		return StateEnabled, nil
	}
	return StateAbsent, &UnsupportedInstallModeError{Mode: addon.InstallMode.String()}
}

// IsInstalled reports whether an addon is present, enabled or not
func (m *Manager) IsInstalled(addon Addon) (bool, error) {
	state, err := m.State(addon)
	if err != nil {
		return false, err
	}
	return state.Installed(), nil
}

// AddonStatus pairs a catalog entry with its current state
type AddonStatus struct {
	Addon Addon
	State State
}

// ListStatus returns the state of every catalog addon, in catalog order
func (m *Manager) ListStatus() ([]AddonStatus, error) {
	catalogAddons := m.catalog.Addons()
	statuses := make([]AddonStatus, 0, len(catalogAddons))
	for _, addon := range catalogAddons {
		state, err := m.State(addon)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, AddonStatus{Addon: addon, State: state})
	}
	return statuses, nil
}
