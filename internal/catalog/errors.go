package catalog

import (
	"errors"
	"fmt"
)

// FetchError is returned when a repository is unreachable or serves an invalid manifest.
// The catalog keeps whatever earlier sources of the same refresh already applied.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch addon catalog from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError returns true if err is or wraps a FetchError
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}
