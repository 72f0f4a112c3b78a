package models

import "fmt"

// ConfigError is a fatal problem detected before any row is processed: an invalid job file,
// a template with missing or unknown placeholders, or an unreachable template source.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a configuration error for op.
func NewConfigError(op string, err error) error {
	return &ConfigError{Op: op, Err: err}
}
