package core

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Codes are stable and machine-readable;
// messages are not.
const (
	// Configuration errors
	ErrCodeConfigValidation = "CONFIGURATION_VALIDATION_ERROR"
	ErrCodeConfigInit       = "CONFIGURATION_INITIALIZATION_ERROR"

	// MCP tool acquisition errors
	ErrCodeMCPTimeout        = "MCP_TIMEOUT_ERROR"
	ErrCodeMCPConnection     = "MCP_CONNECTION_ERROR"
	ErrCodeProductionMCPConn = "PRODUCTION_MCP_CONNECTION_ERROR"
)

// Error is the canonical error envelope. It carries a machine-readable code
// plus optional structured details for diagnosis.
type Error struct {
	Err     error
	Code    string
	Details map[string]any
}

// NewError creates an Error wrapping err with the given code and details.
func NewError(err error, code string, details map[string]any) *Error {
	return &Error{Err: err, Code: code, Details: details}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GetCode returns the machine-readable error code.
func (e *Error) GetCode() string {
	return e.Code
}

// CodeOf extracts the machine-readable code from err, or "" when err does not
// carry one anywhere in its chain.
func CodeOf(err error) string {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
