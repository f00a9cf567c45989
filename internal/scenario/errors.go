package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrSelectionMissing is returned when a required list selection is empty.
	ErrSelectionMissing = errors.New("selection missing")

	// ErrUnknownScenario is returned for a scenario name with no descriptor.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// InputError is a form value that could not be coerced to a number.
type InputError struct {
	Key   string
	Value any
	Err   error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid value %v for %s: %v", e.Value, e.Key, e.Err)
	}
	return fmt.Sprintf("invalid value %v for %s", e.Value, e.Key)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// UnavailableSelectionError is returned when the engine has no data for the
// selected match on the selected site.
type UnavailableSelectionError struct {
	Site string
	Err  error
}

func (e *UnavailableSelectionError) Error() string {
	return fmt.Sprintf("selection unavailable on %s: %v", e.Site, e.Err)
}

func (e *UnavailableSelectionError) Unwrap() error {
	return e.Err
}

// failureKind classifies caller-side failures for the scenario policies.
type failureKind int

const (
	failureOther failureKind = iota
	failureSelection
	failureInput
	failureUnavailable
)

func (k failureKind) String() string {
	switch k {
	case failureSelection:
		return "selection"
	case failureInput:
		return "input"
	case failureUnavailable:
		return "unavailable"
	default:
		return "other"
	}
}

func classify(err error) failureKind {
	var inputErr *InputError
	var unavailableErr *UnavailableSelectionError
	switch {
	case errors.Is(err, ErrSelectionMissing):
		return failureSelection
	case errors.As(err, &inputErr):
		return failureInput
	case errors.As(err, &unavailableErr):
		return failureUnavailable
	default:
		return failureOther
	}
}
