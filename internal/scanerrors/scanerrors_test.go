package scanerrors

import (
	"errors"
	"testing"
)

func TestErrorMessagesNonEmpty(t *testing.T) {
	cause := errors.New("boom")
	errs := []error{
		&SpecInvalidError{Reason: "missing paths"},
		&SpecUnreachableError{Location: "http://x", Cause: cause},
		&TargetUnreachableError{URL: "http://x/a", Cause: cause},
		&RequestBudgetExhausted{Budget: 400},
		&ProbeInternalError{Probe: "BOLA", Cause: cause},
		&QueueBackendError{Op: "reserve", Cause: cause},
		&CancelledError{JobID: "job-1"},
	}
	for _, e := range errs {
		if e.Error() == "" {
			t.Errorf("%T: expected non-empty message", e)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := []error{
		&SpecUnreachableError{Location: "x", Cause: cause},
		&TargetUnreachableError{URL: "x", Cause: cause},
		&ProbeInternalError{Probe: "x", Cause: cause},
		&QueueBackendError{Op: "x", Cause: cause},
	}
	for _, e := range wrapped {
		if !errors.Is(e, cause) {
			t.Errorf("%T: expected errors.Is to find the wrapped cause", e)
		}
	}
}
