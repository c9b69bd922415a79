package common

import (
	"errors"
	"fmt"
)

// DecodeError represents a failure to turn an encoded blob into PCM
type DecodeError struct {
	Format  Format `json:"format"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s: %s", e.Format, e.Message)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Decode error codes
const (
	ErrCodeEmptyInput  = "EMPTY_INPUT"
	ErrCodeTruncated   = "TRUNCATED"
	ErrCodeUnsupported = "UNSUPPORTED_FORMAT"
	ErrCodeDecoding    = "DECODING_FAILED"
	ErrCodeResample    = "RESAMPLE_FAILED"
)

// NewDecodeError creates a new decode error
func NewDecodeError(format Format, code, message string, cause error) *DecodeError {
	return &DecodeError{
		Format:  format,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InsufficientSignalError is returned when there are no samples to analyse.
// Re-recording is the only recovery.
type InsufficientSignalError struct {
	Stage   string `json:"stage"`
	Samples int    `json:"samples"`
}

func (e *InsufficientSignalError) Error() string {
	return fmt.Sprintf("insufficient signal at %s: %d samples", e.Stage, e.Samples)
}

// NewInsufficientSignalError creates a new insufficient signal error
func NewInsufficientSignalError(stage string, samples int) *InsufficientSignalError {
	return &InsufficientSignalError{Stage: stage, Samples: samples}
}

// IsDecodeError reports whether err wraps a *DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsInsufficientSignal reports whether err wraps an *InsufficientSignalError
func IsInsufficientSignal(err error) bool {
	var ise *InsufficientSignalError
	return errors.As(err, &ise)
}
