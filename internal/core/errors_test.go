// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	err := WrapError(ErrInsufficientData, fmt.Errorf("got 49 candles, need at least 50"))
	want := "[INSUFFICIENT_DATA] insufficient data for analysis: got 49 candles, need at least 50"
	if err.Error() != want {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrMalformedCandle, ErrMalformedCandle) {
		t.Error("same error should match")
	}

	wrapped := fmt.Errorf("validating: %w", WrapError(ErrMalformedCandle, errors.New("bad")))
	if !errors.Is(wrapped, ErrMalformedCandle) {
		t.Error("wrapped error should match by code")
	}
	if errors.Is(wrapped, ErrInsufficientData) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := WrapError(ErrComputationFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrComputationFailed.Code {
		t.Error("code not preserved")
	}
}
