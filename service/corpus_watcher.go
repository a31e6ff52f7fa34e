package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchCorpusFile rebuilds the corpus index whenever the file at path is
// written or replaced and hands the new index to apply. The directory is
// watched rather than the file so editors that save by renaming are seen.
// Unreadable or empty versions are skipped and the previous index stays in
// use. Watching stops when ctx is done.
func WatchCorpusFile(ctx context.Context, path string, apply func(*LegalCorpusIndex)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create corpus watcher: %w", err)
	}

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				idx, err := LoadCorpusFile(target)
				if err != nil {
					log.Printf("Warning: corpus reload failed: %v", err)
					continue
				}
				if idx.Len() == 0 {
					log.Printf("Warning: ignoring empty corpus file %s", target)
					continue
				}
				apply(idx)
				log.Printf("Legal corpus reloaded (%d sections)", idx.Len())

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Warning: corpus watcher error: %v", err)
			}
		}
	}()

	return nil
}
