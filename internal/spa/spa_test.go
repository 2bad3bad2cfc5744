package spa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

const indexBody = "<!doctype html><div id=app></div>"

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":       {Data: []byte(indexBody)},
		"favicon.ico":      {Data: []byte("ico")},
		"js/app.3f9a1c.js": {Data: []byte("console.log('app')")},
		"css/app.css":      {Data: []byte("body{}")},
		"docs/index.html":  {Data: []byte("docs home")},
		"img/empty/.keep":  {Data: []byte{}},
	}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewFS(testFS(), Options{
		Index:      "index.html",
		NoFallback: []string{"api/**", "ws/**", "*.map"},
		Immutable:  []string{"js/**"},
	})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return h
}

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUnknownPathsReturnIndex(t *testing.T) {
	h := newTestHandler(t)
	for _, target := range []string{"/", "/calendar", "/file-upload", "/a/b/c", "/missing.js", "/img/empty", "/../../etc/passwd", "/reports/api", "/calendar/api", "/users/ws"} {
		w := get(t, h, http.MethodGet, target)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, w.Code)
			continue
		}
		if w.Body.String() != indexBody {
			t.Errorf("%s: expected index document, got %q", target, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: expected text/html, got %q", target, ct)
		}
		if cc := w.Header().Get("Cache-Control"); cc != cacheNoCache {
			t.Errorf("%s: expected no-cache, got %q", target, cc)
		}
	}
}

func TestExistingFilesAreServed(t *testing.T) {
	h := newTestHandler(t)

	w := get(t, h, http.MethodGet, "/css/app.css")
	if w.Code != http.StatusOK || w.Body.String() != "body{}" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("expected text/css, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheNoCache {
		t.Errorf("expected no-cache for unhashed asset, got %q", cc)
	}

	w = get(t, h, http.MethodGet, "/js/app.3f9a1c.js")
	if cc := w.Header().Get("Cache-Control"); cc != cacheImmutable {
		t.Errorf("expected immutable cache policy, got %q", cc)
	}
}

func TestDirectoryIndex(t *testing.T) {
	h := newTestHandler(t)
	w := get(t, h, http.MethodGet, "/docs/")
	if w.Body.String() != "docs home" {
		t.Errorf("expected directory index, got %q", w.Body.String())
	}
}

func TestNoFallbackPaths(t *testing.T) {
	h := newTestHandler(t)
	for _, target := range []string{"/api/unknown", "/ws/state", "/js/app.js.map"} {
		if w := get(t, h, http.MethodGet, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, w.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	w := get(t, h, http.MethodPost, "/")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
	if w.Header().Get("Allow") == "" {
		t.Error("expected Allow header")
	}

	w = get(t, h, http.MethodHead, "/calendar")
	if w.Code != http.StatusOK {
		t.Errorf("HEAD: expected 200, got %d", w.Code)
	}
}

func TestMissingIndex(t *testing.T) {
	_, err := NewFS(fstest.MapFS{"app.js": {Data: []byte("x")}}, Options{})
	if err == nil {
		t.Fatal("expected error for missing index")
	}

	if _, err := New(Options{Root: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing dist dir")
	}
}

func writeIndex(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(body), 0o644); err != nil {
		t.Fatalf("writing index: %v", err)
	}
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "v1")

	h, err := New(Options{Root: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := get(t, h, http.MethodGet, "/x").Body.String(); got != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}

	writeIndex(t, dir, "v2")
	if got := get(t, h, http.MethodGet, "/x").Body.String(); got != "v1" {
		t.Fatalf("expected cached v1 before reload, got %q", got)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := get(t, h, http.MethodGet, "/x").Body.String(); got != "v2" {
		t.Fatalf("expected v2 after reload, got %q", got)
	}
	if h.IndexPath() != filepath.Join(dir, "index.html") {
		t.Errorf("unexpected index path %q", h.IndexPath())
	}
}

func TestWatchReloadsIndex(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "before")

	h, err := New(Options{Root: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Watch(ctx) }()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-errCh:
		t.Skipf("file watching unavailable: %v", err)
	default:
	}

	writeIndex(t, dir, "after")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if get(t, h, http.MethodGet, "/").Body.String() == "after" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("index was not reloaded after change")
}

func TestWatchRequiresDirectory(t *testing.T) {
	h := newTestHandler(t)
	if err := h.Watch(context.Background()); err == nil {
		t.Error("expected error watching an in-memory handler")
	}
}

func TestValidatePatterns(t *testing.T) {
	if p, ok := ValidatePatterns([]string{"api/**", "*.map"}); !ok {
		t.Errorf("unexpected invalid pattern %q", p)
	}
	if p, ok := ValidatePatterns([]string{"ok/**", "bad/[a"}); ok || p != "bad/[a" {
		t.Errorf("expected bad/[a to be rejected, got %q %t", p, ok)
	}
}
