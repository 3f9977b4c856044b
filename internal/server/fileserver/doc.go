// Package fileserver implements the request handler that maps URL paths to
// files and directories under a root directory.
//
// For a request path the handler, in order:
//
//   - rejects traversal (403) and malformed paths (400)
//   - answers directories with a listing (HTML, JSON or plain text)
//   - answers regular files with their content via http.ServeContent
//   - answers anything else with 404
//
// Resolution goes through filepath-securejoin, so symlinks are evaluated as
// if the root were the filesystem root and can never lead outside it.
package fileserver
