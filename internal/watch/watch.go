// Package watch re-indexes and re-validates vault files as they change on
// disk. Events are debounced per path so editors that write in bursts
// trigger one pass.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

// Handler is invoked with a batch of changed vault-relative paths after the
// debounce window closes.
type Handler func(ctx context.Context, paths []string)

// Watcher follows a vault directory tree.
type Watcher struct {
	vault    *models.Vault
	log      *logger.Logger
	debounce time.Duration
	handler  Handler
	ignore   map[string]bool
}

// New creates a watcher. A zero debounce defaults to 500ms.
func New(vault *models.Vault, debounce time.Duration, handler Handler, log *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	ignore := map[string]bool{".obsidian": true, ".trash": true}
	if vault.ArchiveFolder != "" {
		ignore[vault.ArchiveFolder] = true
	}
	return &Watcher{
		vault:    vault,
		log:      log,
		debounce: debounce,
		handler:  handler,
		ignore:   ignore,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.vault.RootPath); err != nil {
		return err
	}

	w.log.Info().Str("root", w.vault.RootPath).Dur("debounce", w.debounce).Msg("watching vault")

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					base := filepath.Base(event.Name)
					if strings.HasPrefix(base, ".") || w.ignore[base] {
						continue
					}
					if err := w.addRecursive(fsw, event.Name); err != nil {
						w.log.Warn().Str("path", event.Name).Err(err).Msg("failed to watch new folder")
					}
					continue
				}
			}
			relPath, keep := w.relevant(event.Name)
			if !keep {
				continue
			}
			pending[relPath] = true
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			pending = make(map[string]bool)
			w.handler(ctx, paths)
		}
	}
}

// relevant maps an absolute event path to a vault-relative path, filtering
// out ignored folders and non-vault files.
func (w *Watcher) relevant(absPath string) (string, bool) {
	relPath, err := filepath.Rel(w.vault.RootPath, absPath)
	if err != nil {
		return "", false
	}
	relPath = filepath.ToSlash(relPath)

	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") || w.ignore[part] {
			return "", false
		}
	}

	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".md", ".canvas":
		return relPath, true
	default:
		return "", false
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || w.ignore[name]) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
