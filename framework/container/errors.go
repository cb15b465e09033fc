package container

import (
	"errors"
	"strconv"
)

var (
	// ErrUnmetDependency matches every *UnmetDependencyError.
	ErrUnmetDependency = errors.New("container: unmet dependency")

	// ErrCyclicDependency matches every *CyclicDependencyError.
	ErrCyclicDependency = errors.New("container: dependency cycle")

	// ErrConstruction matches every *ConstructionError.
	ErrConstruction = errors.New("container: construction failure")

	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("container: configuration error")

	// ErrNilComponent is the cause recorded when a constructor returns nil.
	ErrNilComponent = errors.New("constructor returned nil")
)

// UnmetDependencyError is returned when no handler, extra value or fallback
// constructor can satisfy a dependency.
type UnmetDependencyError struct {
	// Component is the requesting component, empty for top-level lookups.
	Component string

	// Dependency is the role or type that could not be satisfied.
	Dependency string

	// Reason is an optional detail.
	Reason string
}

// Error implements the error interface.
func (e *UnmetDependencyError) Error() string {
	msg := "container: can't satisfy dependency " + strconv.Quote(e.Dependency)
	if e.Component != "" {
		msg += " of " + e.Component
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrUnmetDependency.
func (e *UnmetDependencyError) Is(target error) bool { return target == ErrUnmetDependency }

// CyclicDependencyError is returned when recursion exceeds MaxDepth.
type CyclicDependencyError struct {
	Component string
	Depth     int
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return "container: dependency cycle while injecting " + e.Component +
		" (depth " + strconv.Itoa(e.Depth) + "), aborting"
}

// Is reports whether target is ErrCyclicDependency.
func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// ConstructionError wraps a failure raised by a constructor itself.
type ConstructionError struct {
	Component string
	Cause     error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	cause := "<nil>"
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return "container: " + e.Component + " could not be initialized due to " + cause
}

// Unwrap returns the constructor's error.
func (e *ConstructionError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrConstruction.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// ConfigurationError reports a constructor parameter the container cannot
// inject: untyped collections or maps keyed by anything but string.
type ConfigurationError struct {
	Component string
	Param     int
	Reason    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "container: can't satisfy constructor parameter " + strconv.Itoa(e.Param) +
		" of " + e.Component + ": " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// RootCause follows the Unwrap chain to its innermost error.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}
