package fileserver

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/dustin/go-humanize"

	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
)

// entry is one child shown in a directory listing.
type entry struct {
	Name    string
	Href    string
	IsDir   bool
	Size    string
	ModTime time.Time
	Age     string
}

type listingPage struct {
	Path    string
	Parent  string
	Entries []entry
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>listing directory {{.Path}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
ul#files { list-style: none; padding: 0; }
ul#files li { padding: 0.2em 0; }
.size, .date { color: #888; margin-left: 1em; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.Path}}</h1>
<ul id="files">
{{- if .Parent}}
<li><a class="parent" href="{{.Parent}}">..</a></li>
{{- end}}
{{- range .Entries}}
<li><a class="entry{{if .IsDir}} dir{{end}}" href="{{.Href}}" title="{{.Name}}">{{.Name}}{{if .IsDir}}/{{end}}</a>
{{- if not .IsDir}}<span class="size">{{.Size}}</span>{{end}}<span class="date" title="{{.ModTime.Format "2006-01-02 15:04:05"}}">{{.Age}}</span></li>
{{- end}}
</ul>
</body>
</html>
`))

func (h *Handler) serveDir(w http.ResponseWriter, r *http.Request, dir string) {
	entries, err := h.readDir(dir, r.URL.Path)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	switch negotiate(r.Header.Get("Accept")) {
	case mediaJSON:
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		if err := json.NewEncoder(w).Encode(names); err != nil {
			logger.L(r.Context()).Warn("encode listing", "path", r.URL.Path, "error", err)
		}

	case mediaPlain:
		var b strings.Builder
		for _, e := range entries {
			b.WriteString(e.Name)
			b.WriteByte('\n')
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte(b.String()))

	default:
		page := listingPage{Path: r.URL.Path, Entries: entries}
		if r.URL.Path != "/" {
			page.Parent = "../"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		if err := listingTemplate.Execute(w, page); err != nil {
			logger.L(r.Context()).Warn("render listing", "path", r.URL.Path, "error", err)
		}
	}
}

// readDir returns the visible children of dir, directories first, each
// group ordered by name.
func (h *Handler) readDir(dir, urlPath string) ([]entry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(h.root, dir)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entries := make([]entry, 0, len(children))
	for _, c := range children {
		name := c.Name()
		if !h.hidden && strings.HasPrefix(name, ".") {
			continue
		}

		// Resolve links the way requests are resolved, so an entry that
		// would escape the root is skipped instead of describing its target.
		target, err := securejoin.SecureJoin(h.root, filepath.Join(rel, name))
		if err != nil {
			continue
		}
		info, err := os.Stat(target)
		if err != nil || !(info.IsDir() || info.Mode().IsRegular()) {
			continue
		}

		e := entry{
			Name:    name,
			IsDir:   info.IsDir(),
			ModTime: info.ModTime(),
			Age:     humanize.RelTime(info.ModTime(), now, "ago", "from now"),
		}
		href := (&url.URL{Path: path.Join(urlPath, name)}).EscapedPath()
		if e.IsDir {
			href += "/"
		} else {
			e.Size = humanize.Bytes(uint64(info.Size()))
		}
		e.Href = href
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
