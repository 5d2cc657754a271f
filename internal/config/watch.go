package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of write events most editors emit
// for a single save.
const watchDebounce = 500 * time.Millisecond

// Watcher reloads a YAML config file when it changes on disk and hands the
// re-validated result to a callback. Invalid intermediate states (half-saved
// files, bad values) are logged and skipped; the last good config stands.
type Watcher struct {
	path     string
	base     Config // defaults + env, re-applied under each reload
	onReload func(Config)

	fw   *fsnotify.Watcher
	mu   sync.Mutex
	wg   sync.WaitGroup
	done chan struct{}
}

// NewWatcher creates a watcher for the given config file.
// base is the config layer below the file (defaults + env); each reload
// starts from base so removing a key from the file reverts its value.
func NewWatcher(path string, base Config, onReload func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	// Watch the directory, not the file: editors that rename-on-save would
	// otherwise drop the watch after the first write.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	w := &Watcher{
		path:     path,
		base:     base,
		onReload: onReload,
		fw:       fw,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: restart the timer on every event in the burst.
			w.mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
			w.mu.Unlock()
		case <-pending:
			w.reload()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("[Config] Watcher error: %v", err)
		}
	}
}

// reload re-layers file over base, validates, and invokes the callback.
func (w *Watcher) reload() {
	cfg := w.base
	if err := cfg.LoadFile(w.path); err != nil {
		log.Printf("[Config] Reload skipped, cannot load %s: %v", w.path, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[Config] Reload skipped, invalid values in %s: %v", w.path, err)
		return
	}
	log.Printf("[Config] Reloaded %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
