package export

import (
	"errors"
	"fmt"
)

// Run failure classes. A failed run always wraps exactly one of these.
var (
	ErrInputUnavailable = errors.New("input unavailable")
	ErrSerialization    = errors.New("serialization failure")
	ErrSink             = errors.New("sink failure")
)

// RunError is the single run-level failure reported to callers.
type RunError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("export %s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("export %s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Is reports whether target is the failure class of e.
func (e *RunError) Is(target error) bool { return target == e.Kind }

func (e *RunError) Unwrap() error { return e.Err }

func fail(stage string, kind, err error) error {
	var re *RunError
	if errors.As(err, &re) {
		return re
	}
	return &RunError{Stage: stage, Kind: kind, Err: err}
}
