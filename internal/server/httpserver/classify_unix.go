//go:build unix

package httpserver

import (
	"errors"

	"golang.org/x/sys/unix"
)

func classify(err error) Cause {
	switch {
	case errors.Is(err, unix.EADDRINUSE):
		return CauseAddrInUse
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return CausePermissionDenied
	default:
		return CauseOther
	}
}
