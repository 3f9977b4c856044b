//go:build windows

package httpserver

import (
	"errors"

	"golang.org/x/sys/windows"
)

func classify(err error) Cause {
	switch {
	case errors.Is(err, windows.WSAEADDRINUSE):
		return CauseAddrInUse
	case errors.Is(err, windows.WSAEACCES):
		return CausePermissionDenied
	default:
		return CauseOther
	}
}
