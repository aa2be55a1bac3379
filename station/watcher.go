// Package station watches the playlist directory so edits to station
// playlists take effect without a restart.
package station

import (
	"context"
	"path/filepath"
	"strings"

	"mpdfm/cache"
	"mpdfm/core/hub"
	"mpdfm/logger"

	"github.com/fsnotify/fsnotify"
)

// Broadcaster pushes a typed message to all connected clients.
type Broadcaster interface {
	Broadcast(msgType string, data any)
}

// Watcher invalidates cached playlists and notifies clients when an m3u
// file in the playlist directory changes.
type Watcher struct {
	fsw   *fsnotify.Watcher
	cache *cache.StationCache
	bus   Broadcaster
}

// NewWatcher starts watching dir. cache and bus may be nil.
func NewWatcher(dir string, stationCache *cache.StationCache, bus Broadcaster) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, cache: stationCache, bus: bus}, nil
}

// Run processes filesystem events until Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("playlist watcher error", logger.ErrorField(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), ".m3u") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	name := strings.TrimSuffix(filepath.Base(event.Name), filepath.Ext(event.Name))
	logger.Info("playlist changed",
		logger.String("playlist", name),
		logger.String("op", event.Op.String()))

	w.cache.Invalidate(context.Background(), name)
	if w.bus != nil {
		w.bus.Broadcast(hub.MsgPlaylistChanged, map[string]string{"playlist": name})
	}
}
