package addons

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAddonNotFound = errors.New("addon not found")
	ErrNoGameDir     = errors.New("game directory is not set")
)

// MissingDependencyError is returned when a requires entry is not in the catalog
type MissingDependencyError struct {
	Addon      string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("unable to find dependency '%s' of %s", e.Dependency, e.Addon)
}

// Unwrap lets callers match ErrAddonNotFound
func (e *MissingDependencyError) Unwrap() error {
	return ErrAddonNotFound
}

// DependencyCycleError is returned when install or delete recursion revisits an addon
// that is still being processed
type DependencyCycleError struct {
	Cycle []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// UnsupportedInstallModeError is returned for install modes the manager does not implement
type UnsupportedInstallModeError struct {
	Mode string
}

func (e *UnsupportedInstallModeError) Error() string {
	return fmt.Sprintf("unsupported install mode '%s'", e.Mode)
}

// BatchError aggregates the failure that aborted a batch operation
type BatchError struct {
	Op     string // "installing", "deleting", "enabling", "disabling"
	Addons []string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("error while %s addons (%s): %v", e.Op, strings.Join(e.Addons, ", "), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// IsMissingDependency returns true if err is or wraps a MissingDependencyError
func IsMissingDependency(err error) bool {
	var target *MissingDependencyError
	return errors.As(err, &target)
}

// IsDependencyCycle returns true if err is or wraps a DependencyCycleError
func IsDependencyCycle(err error) bool {
	var target *DependencyCycleError
	return errors.As(err, &target)
}

// IsUnsupportedInstallMode returns true if err is or wraps an UnsupportedInstallModeError
func IsUnsupportedInstallMode(err error) bool {
	var target *UnsupportedInstallModeError
	return errors.As(err, &target)
}
