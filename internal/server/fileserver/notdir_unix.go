//go:build unix

package fileserver

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isNotDir reports whether err comes from using a file as a directory,
// as in /index.html/extra.
func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}
