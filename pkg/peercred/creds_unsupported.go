//go:build !linux && !darwin && !freebsd

package peercred

import (
	"errors"
)

// getPeerCredentials has no kernel mechanism to query on this platform.
func getPeerCredentials(_ int) (PeerCredentials, error) {
	return PeerCredentials{}, &QueryError{Cause: errors.ErrUnsupported}
}
