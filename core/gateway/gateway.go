// Package gateway is the single entry point routes and websocket handlers
// call. It composes the MPD session, the broadcast hub and the station
// playlist sources behind one explicitly constructed value.
package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mpdfm/cache"
	"mpdfm/core/hub"
	"mpdfm/core/mpd"
	"mpdfm/logger"
	"mpdfm/playlist"
)

// Gateway holds the one session and hub instance for the process. It is
// injected into handlers; nothing reaches the session any other way.
type Gateway struct {
	session     *mpd.Session
	hub         *hub.Hub
	playlistDir string
	stationFile string
	stations    *cache.StationCache
}

// New composes a gateway. stations may be nil.
func New(session *mpd.Session, h *hub.Hub, playlistDir, stationFile string, stations *cache.StationCache) *Gateway {
	return &Gateway{
		session:     session,
		hub:         h,
		playlistDir: playlistDir,
		stationFile: stationFile,
		stations:    stations,
	}
}

// Hub exposes the broadcast hub for client registration.
func (g *Gateway) Hub() *hub.Hub { return g.hub }

// ConnectionState reports the session lifecycle state.
func (g *Gateway) ConnectionState() mpd.ConnState { return g.session.State() }

// Status returns a fresh player status snapshot.
func (g *Gateway) Status() (mpd.PlayerStatus, error) { return g.session.Status() }

// PlayerState returns the daemon's play/pause/stop state.
func (g *Gateway) PlayerState() (mpd.PlayState, error) { return g.session.PlayerState() }

// CurrentSong returns the enriched current track.
func (g *Gateway) CurrentSong() (mpd.Track, error) { return g.session.CurrentSong() }

// Control issues a playback command and returns the resulting state.
func (g *Gateway) Control(cmd string) (mpd.PlayState, error) { return g.session.Control(cmd) }

// SetVolume sets the daemon volume.
func (g *Gateway) SetVolume(volume int) error { return g.session.SetVolume(volume) }

// PlaySong clears the queue and plays the given URI.
func (g *Gateway) PlaySong(uri string) error { return g.session.PlayURL(uri) }

// Playlists lists the daemon's stored playlist names.
func (g *Gateway) Playlists() ([]string, error) { return g.session.ListPlaylists() }

// Library lists every song in the daemon's database.
func (g *Gateway) Library() ([]mpd.LibraryEntry, error) { return g.session.Library() }

// Queue lists the current play queue.
func (g *Gateway) Queue() ([]mpd.LibraryEntry, error) { return g.session.Queue() }

// SearchByArtist returns files matching the given artist.
func (g *Gateway) SearchByArtist(artist string) ([]string, error) {
	return g.session.SearchByArtist(artist)
}

// SearchByTitle returns files matching the given title.
func (g *Gateway) SearchByTitle(title string) ([]string, error) {
	return g.session.SearchByTitle(title)
}

// Broadcast pushes a message to every connected client.
func (g *Gateway) Broadcast(msgType string, data any) {
	g.hub.Broadcast(msgType, data)
}

// PlaylistContent returns the stations of the named m3u playlist, served
// from the cache when possible.
func (g *Gateway) PlaylistContent(name string) ([]playlist.Station, error) {
	ctx := context.Background()
	if stations, ok := g.stations.Get(ctx, name); ok {
		return stations, nil
	}

	path := filepath.Join(g.playlistDir, name+".m3u")
	stations, err := playlist.ParseFile(path)
	if err != nil {
		return nil, err
	}
	g.stations.Set(ctx, name, stations)
	return stations, nil
}

// PlayStation looks up a station by name in the named playlist and plays
// its stream URL. The playlist content is returned for display.
func (g *Gateway) PlayStation(playlistName, stationName string) ([]playlist.Station, error) {
	stations, err := g.PlaylistContent(playlistName)
	if err != nil {
		return nil, err
	}

	var url string
	for _, st := range stations {
		if st.Name == stationName {
			url = st.URL
			break
		}
	}
	if url == "" {
		return nil, fmt.Errorf("station %q not found in playlist %q", stationName, playlistName)
	}

	if err := g.session.PlayURL(url); err != nil {
		return nil, err
	}
	logger.Info("playing station",
		logger.String("playlist", playlistName),
		logger.String("station", stationName))
	return stations, nil
}

// StationList returns the static station list file contents.
func (g *Gateway) StationList() (string, error) {
	raw, err := os.ReadFile(g.stationFile)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
