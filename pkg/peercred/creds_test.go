package peercred

import (
	"errors"
	"math"
	"testing"
)

func TestGetBadDescriptor(t *testing.T) {
	// Malformed descriptor values fail before any kernel call, so no
	// open socket is needed.
	for _, fd := range []int{-1, -42} {
		_, err := Get(fd)
		if !errors.Is(err, ErrBadDescriptor) {
			t.Errorf("Get(%d) error = %v, want ErrBadDescriptor", fd, err)
		}
		if errors.Is(err, ErrQueryFailed) {
			t.Errorf("Get(%d) must not be classified as a query failure", fd)
		}
	}

	tooBig := int64(math.MaxInt32) + 1
	if int64(math.MaxInt) >= tooBig {
		if _, err := Get(int(tooBig)); !errors.Is(err, ErrBadDescriptor) {
			t.Errorf("Get(%d) error = %v, want ErrBadDescriptor", tooBig, err)
		}
	}
}

func TestQueryErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&QueryError{Cause: cause})

	if !errors.Is(err, ErrQueryFailed) {
		t.Error("QueryError should match ErrQueryFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("QueryError should preserve its cause")
	}
	if errors.Is(err, ErrBadDescriptor) {
		t.Error("QueryError must not match ErrBadDescriptor")
	}
}

func TestHasPID(t *testing.T) {
	if (PeerCredentials{PID: 0}).HasPID() {
		t.Error("pid 0 must read as unavailable")
	}
	if !(PeerCredentials{PID: 1234}).HasPID() {
		t.Error("non-zero pid must read as available")
	}
}
