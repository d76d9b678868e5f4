package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Concrete errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrInvalidFormat = errors.New("invalid email or domain format")
	ErrUnknownSource = errors.New("unknown source")
	ErrSourceFetch   = errors.New("source fetch failed")
	ErrPersistence   = errors.New("persistence failure")
	ErrConfiguration = errors.New("invalid configuration")
)

// FormatError describes why an input could not be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// UnknownSourceError is returned when a registry lookup misses.
// Available holds every registered name for operator guidance.
type UnknownSourceError struct {
	Name      string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("source '%s' not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownSourceError) Unwrap() error { return ErrUnknownSource }

// SourceFetchError wraps a network or parse failure while streaming a source.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() []error { return []error{ErrSourceFetch, e.Err} }

// PersistenceError wraps a storage failure. Op names the failed operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// ConfigError reports an invalid or contradictory setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }
