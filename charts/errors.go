package charts

import (
	"errors"
	"fmt"
)

// Failures are logged and reported through ManagerParams.OnError; none of
// them reach the caller of Load.
var (
	ErrMissingDependency = errors.New("chart renderer not available")
	ErrElementNotFound   = errors.New("no element found")
	ErrRenderFailure     = errors.New("chart render failed")
)

// guard runs fn, turning a panic into ErrRenderFailure.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrRenderFailure, op, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderFailure, op, err)
	}
	return nil
}
