package fileserver

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

var (
	// ErrTraversal is returned for request paths containing a ".." segment.
	ErrTraversal = errors.New("fileserver: path escapes root")

	// ErrInvalidPath is returned for request paths that cannot name a file.
	ErrInvalidPath = errors.New("fileserver: invalid path")

	// ErrHidden is returned for dotfile paths when hidden files are not served.
	ErrHidden = errors.New("fileserver: hidden path")
)

// resolve maps the decoded URL path onto a filesystem path inside root.
func resolve(root, urlPath string, hidden bool) (string, error) {
	if strings.IndexByte(urlPath, 0) >= 0 {
		return "", ErrInvalidPath
	}

	for _, seg := range strings.FieldsFunc(urlPath, isSeparator) {
		if seg == ".." {
			return "", ErrTraversal
		}
		if !hidden && seg != "." && strings.HasPrefix(seg, ".") {
			return "", ErrHidden
		}
	}

	clean := path.Clean("/" + urlPath)
	target, err := securejoin.SecureJoin(root, filepath.FromSlash(clean))
	if err != nil {
		return "", err
	}
	return target, nil
}

// isSeparator treats backslash as a separator too, so "..\" is caught on
// every platform.
func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
