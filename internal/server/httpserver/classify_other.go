//go:build !unix && !windows

package httpserver

func classify(err error) Cause {
	return CauseOther
}
