package models

import (
	"errors"
	"fmt"
)

// Stable error codes for expected failure modes across the pipeline.
// These travel into PublicationError.Code so operators can see why an
// attempt failed and whether retrying can help.
const (
	CodeAuthFailed        = "AUTH_FAILED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeEmptyResponse     = "EMPTY_RESPONSE"
	CodeNetworkError      = "NETWORK_ERROR"
	CodePlatformError     = "PLATFORM_ERROR"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeDownloadTimeout   = "DOWNLOAD_TIMEOUT"
)

// PipelineError is the typed failure returned by provider, image, and
// upload adapters. Expected failures are returned, never panicked;
// thrown-style errors are reserved for invariant violations in the
// aggregates.
type PipelineError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError builds a typed failure with an optional cause.
func NewPipelineError(code, message string, retryable bool, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Retryable: retryable, Err: cause}
}

// AsPipelineError unwraps err into a PipelineError, or wraps it as a
// retryable network error when it is something untyped.
func AsPipelineError(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{Code: CodeNetworkError, Message: err.Error(), Retryable: true, Err: err}
}

// ToPublicationError converts a pipeline failure into the form the
// Publication aggregate records.
func (e *PipelineError) ToPublicationError() PublicationError {
	return PublicationError{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
	}
}
