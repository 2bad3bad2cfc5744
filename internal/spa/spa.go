// Package spa serves a built single-page app: files that exist in the build
// directory are served as-is and every other path gets the index document so
// the client-side router can take over.
package spa

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheNoCache   = "no-cache"
)

// Options configures a Handler.
type Options struct {
	Root       string   // build output directory
	Index      string   // index document, relative to Root
	NoFallback []string // globs (relative to Root) answered with 404 instead of the index
	Immutable  []string // globs of fingerprinted assets cached for a year
}

// Handler serves static assets with an index fallback.
type Handler struct {
	fsys  fs.FS
	root  string
	index string
	opts  Options

	mu       sync.RWMutex
	indexDoc []byte
	indexMod time.Time
}

// New creates a Handler over opts.Root. It fails if the index document
// cannot be read.
func New(opts Options) (*Handler, error) {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("accessing dist dir %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dist dir %s is not a directory", opts.Root)
	}
	return NewFS(os.DirFS(opts.Root), opts)
}

// NewFS creates a Handler over an arbitrary file system, such as an
// embedded build.
func NewFS(fsys fs.FS, opts Options) (*Handler, error) {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	h := &Handler{
		fsys:  fsys,
		root:  opts.Root,
		index: strings.TrimPrefix(path.Clean("/"+opts.Index), "/"),
		opts:  opts,
	}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload re-reads the index document.
func (h *Handler) Reload() error {
	doc, err := fs.ReadFile(h.fsys, h.index)
	if err != nil {
		return fmt.Errorf("reading index document %s: %w", h.index, err)
	}
	mod := time.Now()
	if info, err := fs.Stat(h.fsys, h.index); err == nil {
		mod = info.ModTime()
	}

	h.mu.Lock()
	h.indexDoc = doc
	h.indexMod = mod
	h.mu.Unlock()
	return nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == h.index {
		h.serveIndex(w, r)
		return
	}

	if h.serveFile(w, r, name) {
		return
	}
	if info, err := fs.Stat(h.fsys, name); err == nil && info.IsDir() {
		if h.serveFile(w, r, path.Join(name, "index.html")) {
			return
		}
	}

	if matchesAny(name, h.opts.NoFallback) {
		http.NotFound(w, r)
		return
	}
	h.serveIndex(w, r)
}

// serveFile serves name if it is a regular file and reports whether it did.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := h.fsys.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			log.Printf("spa: reading %s: %v", name, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return true
		}
		content = bytes.NewReader(data)
	}

	if matchesAny(name, h.opts.Immutable) {
		w.Header().Set("Cache-Control", cacheImmutable)
	} else {
		w.Header().Set("Cache-Control", cacheNoCache)
	}
	http.ServeContent(w, r, name, info.ModTime(), content)
	return true
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	doc, mod := h.indexDoc, h.indexMod
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheNoCache)
	http.ServeContent(w, r, h.index, mod, bytes.NewReader(doc))
}

// IndexPath returns the index document's path on disk, or "" for
// non-directory file systems.
func (h *Handler) IndexPath() string {
	if h.root == "" {
		return ""
	}
	return filepath.Join(h.root, filepath.FromSlash(h.index))
}
