package fileserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

var (
	indexHTML = []byte("<!DOCTYPE html><title>av-device</title>\n")
	docsA     = []byte("alpha\nbeta\n")
)

// newTestTree builds the tree used by most handler tests:
//
//	index.html
//	docs/a.txt
//	.secret
func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string][]byte{
		"index.html": indexHTML,
		"docs/a.txt": docsA,
		".secret":    []byte("hidden"),
	}
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestHandler(t *testing.T, root string, opts ...Option) *Handler {
	t.Helper()
	h, err := New(root, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h
}

func serve(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	root := newTestTree(t)

	h := newTestHandler(t, root)
	want, _ := filepath.EvalSymlinks(root)
	if h.Root() != want {
		t.Errorf("Root() = %q, want %q", h.Root(), want)
	}

	if _, err := New(filepath.Join(root, "missing")); err == nil {
		t.Error("New() with missing root should fail")
	}
	if _, err := New(filepath.Join(root, "index.html")); err == nil {
		t.Error("New() with file root should fail")
	}
}

func TestHandler_Scenario(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	t.Run("index.html", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/index.html", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
			t.Errorf("Content-Type = %q, want text/html", got)
		}
		if rec.Body.String() != string(indexHTML) {
			t.Errorf("body = %q, want %q", rec.Body.String(), indexHTML)
		}
	})

	t.Run("docs/a.txt", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/docs/a.txt", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
			t.Errorf("Content-Type = %q, want text/plain", got)
		}
		if rec.Body.String() != string(docsA) {
			t.Errorf("body = %q, want %q", rec.Body.String(), docsA)
		}
	})

	t.Run("docs listing", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/docs/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		entries := listedEntries(t, rec)
		if len(entries) != 1 || entries["a.txt"] != 1 {
			t.Errorf("entries = %v, want exactly a.txt", entries)
		}
	})

	t.Run("missing.txt", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/missing.txt", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if got := rec.Body.String(); got != "Cannot GET /missing.txt\n" {
			t.Errorf("body = %q", got)
		}
	})
}

// listedEntries counts each entry name in an HTML listing.
func listedEntries(t *testing.T, rec *httptest.ResponseRecorder) map[string]int {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse listing: %v", err)
	}
	counts := make(map[string]int)
	doc.Find("ul#files a.entry").Each(func(_ int, s *goquery.Selection) {
		counts[strings.TrimSuffix(s.Text(), "/")]++
	})
	return counts
}

func TestHandler_ListingContainsEveryChildOnce(t *testing.T) {
	root := t.TempDir()
	names := []string{"b.txt", "a.txt", "a b.txt", "z.bin", "sub"}
	for _, n := range names {
		p := filepath.Join(root, n)
		if n == "sub" {
			if err := os.Mkdir(p, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.WriteFile(p, []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h := newTestHandler(t, root)

	rec := serve(h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Find("a.parent").Length() != 0 {
		t.Error("root listing should not link to a parent")
	}
	if title := doc.Find("title").Text(); title != "listing directory /" {
		t.Errorf("title = %q", title)
	}

	var order []string
	hrefs := make(map[string]string)
	doc.Find("ul#files a.entry").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSuffix(s.Text(), "/")
		order = append(order, name)
		hrefs[name], _ = s.Attr("href")
	})

	want := []string{"sub", "a b.txt", "a.txt", "b.txt", "z.bin"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
	if hrefs["sub"] != "/sub/" {
		t.Errorf("href(sub) = %q, want /sub/", hrefs["sub"])
	}
	if hrefs["a b.txt"] != "/a%20b.txt" {
		t.Errorf("href(a b.txt) = %q, want /a%%20b.txt", hrefs["a b.txt"])
	}
}

func TestHandler_ListingParentLink(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	rec := serve(h, http.MethodGet, "/docs/", nil)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	href, ok := doc.Find("a.parent").Attr("href")
	if !ok || href != "../" {
		t.Errorf("parent href = %q, %v; want ../", href, ok)
	}
}

func TestHandler_ListingFormats(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	t.Run("json", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/", http.Header{"Accept": {"application/json"}})
		if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
			t.Fatalf("Content-Type = %q", got)
		}
		var names []string
		if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
			t.Fatal(err)
		}
		if strings.Join(names, ",") != "docs,index.html" {
			t.Errorf("names = %v", names)
		}
	})

	t.Run("plain", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/", http.Header{"Accept": {"text/plain"}})
		if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
			t.Fatalf("Content-Type = %q", got)
		}
		if got := rec.Body.String(); got != "docs\nindex.html\n" {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("head", func(t *testing.T) {
		rec := serve(h, http.MethodHead, "/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("HEAD body length = %d, want 0", rec.Body.Len())
		}
	})
}

func TestHandler_Traversal(t *testing.T) {
	root := newTestTree(t)
	outside := t.TempDir()
	secret := "outside-the-root"
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte(secret), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	h := newTestHandler(t, filepath.Join(root, "docs"))

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"dotdot", "/../index.html", http.StatusForbidden},
		{"encoded dotdot", "/%2e%2e/index.html", http.StatusForbidden},
		{"nested dotdot", "/a/../../index.html", http.StatusForbidden},
		{"encoded slash", "/..%2findex.html", http.StatusForbidden},
		{"nul", "/a.txt%00", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, tt.target, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if strings.Contains(rec.Body.String(), "av-device") {
				t.Error("response leaked a file outside the root")
			}
		})
	}

	t.Run("symlink out of root", func(t *testing.T) {
		h := newTestHandler(t, root)
		rec := serve(h, http.MethodGet, "/link/secret.txt", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		if strings.Contains(rec.Body.String(), secret) {
			t.Error("symlink leaked a file outside the root")
		}
	})
}

func TestHandler_Hidden(t *testing.T) {
	root := newTestTree(t)

	h := newTestHandler(t, root)
	if rec := serve(h, http.MethodGet, "/.secret", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if entries := listedEntries(t, serve(h, http.MethodGet, "/", nil)); entries[".secret"] != 0 {
		t.Error("listing should hide dotfiles")
	}

	h = newTestHandler(t, root, WithHidden(true))
	rec := serve(h, http.MethodGet, "/.secret", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "hidden" {
		t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if entries := listedEntries(t, serve(h, http.MethodGet, "/", nil)); entries[".secret"] != 1 {
		t.Error("listing should show dotfiles when enabled")
	}
}

func TestHandler_DirectoryRedirect(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	rec := serve(h, http.MethodGet, "/docs?sort=name", nil)
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/docs/?sort=name" {
		t.Errorf("Location = %q, want /docs/?sort=name", got)
	}
}

func TestHandler_Methods(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	rec := serve(h, http.MethodOptions, "/index.html", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != allowedMethods {
		t.Errorf("OPTIONS Allow = %q", got)
	}

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := serve(h, m, "/index.html", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", m, rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != allowedMethods {
			t.Errorf("%s Allow = %q", m, got)
		}
	}

	rec = serve(h, http.MethodHead, "/index.html", nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD status = %d, body length = %d", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Length") != "40" {
		t.Errorf("HEAD Content-Length = %q, want 40", rec.Header().Get("Content-Length"))
	}
}

func TestHandler_Conditional(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	rec := serve(h, http.MethodGet, "/docs/a.txt", nil)
	tag := rec.Header().Get("ETag")
	if !strings.HasPrefix(tag, `W/"`) {
		t.Fatalf("ETag = %q, want weak validator", tag)
	}
	if rec.Header().Get("Last-Modified") == "" {
		t.Error("Last-Modified not set")
	}

	rec = serve(h, http.MethodGet, "/docs/a.txt", http.Header{"If-None-Match": {tag}})
	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/docs/a.txt", http.Header{"Range": {"bytes=0-4"}})
	if rec.Code != http.StatusPartialContent || rec.Body.String() != "alpha" {
		t.Errorf("range: status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_FileAsDirectory(t *testing.T) {
	h := newTestHandler(t, newTestTree(t))

	rec := serve(h, http.MethodGet, "/index.html/extra", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_ListingSkipsLinksOutOfRoot(t *testing.T) {
	root := newTestTree(t)
	outside := t.TempDir()
	big := filepath.Join(outside, "big.bin")
	if err := os.WriteFile(big, make([]byte, 123456), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(big, filepath.Join(root, "link.bin")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "docs", "away")); err != nil {
		t.Fatal(err)
	}
	// A relative link that stays inside the root is listed.
	if err := os.Symlink("index.html", filepath.Join(root, "home.html")); err != nil {
		t.Fatal(err)
	}
	h := newTestHandler(t, root)

	rec := serve(h, http.MethodGet, "/", nil)
	entries := listedEntries(t, rec)
	if entries["link.bin"] != 0 {
		t.Error("listing shows a link whose target is outside the root")
	}
	if entries["home.html"] != 1 {
		t.Errorf("entries = %v, want home.html listed", entries)
	}

	if entries := listedEntries(t, serve(h, http.MethodGet, "/docs/", nil)); entries["away"] != 0 {
		t.Error("nested listing shows a link to a directory outside the root")
	}

	if rec := serve(h, http.MethodGet, "/home.html", nil); rec.Code != http.StatusOK || rec.Body.String() != string(indexHTML) {
		t.Errorf("GET /home.html = %d %q", rec.Code, rec.Body.String())
	}
}
