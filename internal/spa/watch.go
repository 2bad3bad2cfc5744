package spa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the index document whenever it changes on disk, until ctx
// is done. It watches the index's directory so that atomic replacements by
// build tools are picked up.
func (h *Handler) Watch(ctx context.Context) error {
	indexPath := h.IndexPath()
	if indexPath == "" {
		return errors.New("spa: watch requires a directory-backed handler")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(indexPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(indexPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := h.Reload(); err != nil {
				// The file may be mid-replacement; the next event retries.
				log.Printf("spa: reload index: %v", err)
				continue
			}
			log.Printf("spa: reloaded %s", indexPath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("spa: watcher: %v", err)
		}
	}
}
