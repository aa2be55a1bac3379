package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mpdfm/core/mpd"
	"mpdfm/logger"
	"mpdfm/playlist"

	"github.com/gorilla/mux"
)

// PlayerAPI is the gateway surface the HTTP and websocket handlers call.
type PlayerAPI interface {
	Status() (mpd.PlayerStatus, error)
	CurrentSong() (mpd.Track, error)
	Control(cmd string) (mpd.PlayState, error)
	SetVolume(volume int) error
	PlaySong(uri string) error
	Playlists() ([]string, error)
	Library() ([]mpd.LibraryEntry, error)
	Queue() ([]mpd.LibraryEntry, error)
	SearchByArtist(artist string) ([]string, error)
	SearchByTitle(title string) ([]string, error)
	PlaylistContent(name string) ([]playlist.Station, error)
	PlayStation(playlistName, stationName string) ([]playlist.Station, error)
	StationList() (string, error)
}

var validCommands = map[string]bool{
	"play":     true,
	"pause":    true,
	"stop":     true,
	"next":     true,
	"previous": true,
}

// PlayerHandler serves the /player HTTP API.
type PlayerHandler struct {
	api PlayerAPI
}

// NewPlayerHandler creates a handler around the gateway.
func NewPlayerHandler(api PlayerAPI) *PlayerHandler {
	return &PlayerHandler{api: api}
}

// RegisterRoutes mounts the player routes on the router.
func (h *PlayerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/player", h.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/currentsong", h.CurrentSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/listplaylists", h.ListPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/control", h.ControlHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/setvol", h.SetVolumeHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/playstation", h.PlayStationHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/playlistcontent", h.PlaylistContentHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/playlist", h.QueueHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/listallsongs", h.LibraryHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/playsong", h.PlaySongHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/searchByArtist", h.SearchByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/player/searchByTitle", h.SearchByTitleHandler).Methods(http.MethodGet)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		logger.Error("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

// writeUpstreamError maps session errors onto status codes: a session that
// is not Ready is 503, everything else talking to the daemon is 500.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, mpd.ErrNotConnected) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// StatusHandler returns the daemon status snapshot.
func (h *PlayerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.api.Status()
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, status)
}

// CurrentSongHandler returns the enriched current track.
func (h *PlayerHandler) CurrentSongHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.api.CurrentSong()
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, track)
}

// ListPlaylistsHandler returns the daemon's stored playlist names.
func (h *PlayerHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := h.api.Playlists()
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, names)
}

// ControlHandler issues a validated playback command.
func (h *PlayerHandler) ControlHandler(w http.ResponseWriter, r *http.Request) {
	command := r.URL.Query().Get("command")
	if command == "" {
		writeError(w, http.StatusBadRequest, "Command parameter is required")
		return
	}
	if !validCommands[command] {
		writeError(w, http.StatusBadRequest, "Invalid command. Must be one of: play, pause, stop, next, previous")
		return
	}

	state, err := h.api.Control(command)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, map[string]any{"status": state})
}

// SetVolumeHandler validates the 0-100 range before it reaches the session.
func (h *PlayerHandler) SetVolumeHandler(w http.ResponseWriter, r *http.Request) {
	vol := r.URL.Query().Get("vol")
	if vol == "" {
		writeError(w, http.StatusBadRequest, "Volume parameter is required")
		return
	}
	volume, err := strconv.Atoi(vol)
	if err != nil || volume < 0 || volume > 100 {
		writeError(w, http.StatusBadRequest, "Volume must be between 0 and 100")
		return
	}

	if err := h.api.SetVolume(volume); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, map[string]any{"volume": volume})
}

// PlayStationHandler plays a named station from a named playlist.
func (h *PlayerHandler) PlayStationHandler(w http.ResponseWriter, r *http.Request) {
	playlistName := r.URL.Query().Get("playlistname")
	stationName := r.URL.Query().Get("stationname")
	if playlistName == "" || stationName == "" {
		writeError(w, http.StatusBadRequest, "Playlist name and station name are required")
		return
	}

	stations, err := h.api.PlayStation(playlistName, stationName)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, map[string]any{"status": stations})
}

// PlaylistContentHandler returns the stations of a named m3u playlist.
func (h *PlayerHandler) PlaylistContentHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	stations, err := h.api.PlaylistContent(name)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, stations)
}

// QueueHandler returns the daemon's current play queue.
func (h *PlayerHandler) QueueHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.api.Queue()
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, entries)
}

// LibraryHandler returns every song in the daemon's database.
func (h *PlayerHandler) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.api.Library()
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, entries)
}

// PlaySongHandler clears the queue and plays the given file or URL.
func (h *PlayerHandler) PlaySongHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Song name parameter is required")
		return
	}

	if err := h.api.PlaySong(name); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, map[string]any{"name": name})
}

// SearchByArtistHandler returns files matching an artist.
func (h *PlayerHandler) SearchByArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	if artist == "" {
		writeError(w, http.StatusBadRequest, "Artist name is required")
		return
	}

	files, err := h.api.SearchByArtist(artist)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, files)
}

// SearchByTitleHandler returns files matching a title.
func (h *PlayerHandler) SearchByTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title parameter is required")
		return
	}

	files, err := h.api.SearchByTitle(title)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeData(w, files)
}
