// ABOUTME: Error types returned by the engine
// ABOUTME: Configuration errors before start and device errors while starting
package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoSource       = errors.New("no capture source configured")
	ErrNoSink         = errors.New("no render sink configured")
	ErrFormatMismatch = errors.New("source format does not match session format")
	ErrDeviceVanished = errors.New("selected device vanished")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrNilComponent   = errors.New("nil source or sink")
	ErrNotIdle        = errors.New("engine is not idle")
	ErrUnknownSource  = errors.New("unknown source")
)

// ConfigurationError reports a problem found before anything was started
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(field string, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...), Err: err}
}

// DeviceUnavailableError reports a driver failure while starting
type DeviceUnavailableError struct {
	Device string
	Op     string
	Err    error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("device %s: %s failed: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error { return e.Err }
