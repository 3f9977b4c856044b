//go:build !unix && !windows

package fileserver

// isNotDir is not needed where the file-as-directory case reports
// fs.ErrNotExist.
func isNotDir(error) bool {
	return false
}
