// Package watch invalidates cached dashboards when the config file
// changes on disk, so TTL and field-id tweaks take effect without a
// restart.
package watch

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"rollout_dashboard/internal/config"
	"rollout_dashboard/internal/events"
)

// CacheClearer is the slice of the aggregator the watcher needs.
type CacheClearer interface {
	ClearAll()
}

// Watcher monitors the config file and clears dashboard caches on change.
type Watcher struct {
	cfg  config.Config
	dash CacheClearer
	bus  *events.Bus
}

func New(cfg config.Config, dash CacheClearer, bus *events.Bus) *Watcher {
	return &Watcher{cfg: cfg, dash: dash, bus: bus}
}

// Start begins watching the config file's directory. fsnotify watches the
// directory rather than the file itself so editors that replace the file
// on save are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher {
		log.Println("watch: disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := filepath.Base(w.cfg.ConfigPath)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Base(evt.Name) != target {
					continue
				}
				log.Printf("watch: config file changed (%s), clearing dashboard caches", evt.Name)
				w.dash.ClearAll()
				if w.bus != nil {
					w.bus.Publish(events.Event{Type: events.TypeConfigReload, Detail: evt.Name})
				}
			case err := <-watcher.Errors:
				log.Printf("watch: error: %v", err)
			}
		}
	}()
	return watcher.Add(filepath.Dir(w.cfg.ConfigPath))
}
