package fileserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
)

const allowedMethods = "GET, HEAD, OPTIONS"

// Handler serves files and directory listings from a root directory.
type Handler struct {
	root   string
	hidden bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithHidden serves dotfiles and lists them in directory listings.
func WithHidden(hidden bool) Option {
	return func(h *Handler) {
		h.hidden = hidden
	}
}

// New creates a handler for root, which must be an existing directory.
func New(root string, opts ...Option) (*Handler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fileserver: root %s: %w", root, err)
	}
	// Symlinks in the root itself are allowed; securejoin scopes below it.
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("fileserver: root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("fileserver: root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fileserver: root %s is not a directory", root)
	}

	h := &Handler{root: abs}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Root returns the absolute root directory.
func (h *Handler) Root() string {
	return h.root
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodOptions:
		w.Header().Set("Allow", allowedMethods)
		w.WriteHeader(http.StatusOK)
		return
	default:
		w.Header().Set("Allow", allowedMethods)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	target, err := resolve(h.root, r.URL.Path, h.hidden)
	switch {
	case errors.Is(err, ErrTraversal):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	case errors.Is(err, ErrInvalidPath):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	case err != nil:
		// ErrHidden, and securejoin failures such as symlink loops.
		h.notFound(w, r)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDir(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			redirectSlash(w, r)
			return
		}
		h.serveDir(w, r, target)
		return
	}

	if !info.Mode().IsRegular() {
		h.notFound(w, r)
		return
	}
	h.serveFile(w, r, target)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, target string) {
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	defer f.Close()

	// Stat the open file so headers describe exactly what is sent.
	info, err := f.Stat()
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=0")
	w.Header().Set("ETag", etag(info))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// etag is a weak validator built from size and modification time.
func etag(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixMilli())
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	u.Path = path.Clean("/"+r.URL.Path) + "/"
	u.RawPath = ""
	http.Redirect(w, r, u.RequestURI(), http.StatusMovedPermanently)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "Cannot %s %s\n", r.Method, r.URL.Path)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.L(r.Context()).Error("filesystem error",
		"path", r.URL.Path,
		"error", err,
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
