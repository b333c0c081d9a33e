package errorutil_test

import (
	"errors"
	"testing"

	"github.com/go-siptx/siptx/internal/errorutil"
)

func TestNewWrapperError(t *testing.T) {
	t.Parallel()

	const sentinel errorutil.Error = "sentinel"

	if err := errorutil.NewWrapperError(sentinel); !errors.Is(err, sentinel) {
		t.Fatalf("bare wrap: errors.Is = false for %v", err)
	}

	inner := errors.New("boom")
	err := errorutil.NewWrapperError(sentinel, inner)
	if !errors.Is(err, sentinel) || !errors.Is(err, inner) {
		t.Fatalf("error wrap: %v must carry both sentinel and inner", err)
	}

	// wrapping an already wrapped error is a no-op
	if again := errorutil.NewWrapperError(sentinel, err); again != err {
		t.Fatalf("double wrap: got %v, want the original %v", again, err)
	}

	msg := errorutil.NewWrapperError(sentinel, "context %d", 42)
	if !errors.Is(msg, sentinel) {
		t.Fatalf("message wrap: errors.Is = false for %v", msg)
	}
	if got, want := msg.Error(), "sentinel: context 42"; got != want {
		t.Fatalf("message wrap: Error() = %q, want %q", got, want)
	}
}

func TestNewInvalidArgumentError(t *testing.T) {
	t.Parallel()

	err := errorutil.NewInvalidArgumentError("bad value %q", "x")
	if !errors.Is(err, errorutil.ErrInvalidArgument) {
		t.Fatalf("errors.Is = false for %v", err)
	}
	if got, want := err.Error(), `invalid argument: bad value "x"`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
