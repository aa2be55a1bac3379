package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mpdfm/core/mpd"
	"mpdfm/playlist"

	"github.com/gorilla/mux"
)

// fakeAPI implements PlayerAPI with overridable function fields.
type fakeAPI struct {
	statusFn      func() (mpd.PlayerStatus, error)
	currentSongFn func() (mpd.Track, error)
	controlFn     func(cmd string) (mpd.PlayState, error)
	setVolumeFn   func(volume int) error

	setVolumeCalls int
	controlCalls   int
}

func (f *fakeAPI) Status() (mpd.PlayerStatus, error) {
	if f.statusFn != nil {
		return f.statusFn()
	}
	return mpd.PlayerStatus{State: mpd.StatePlay}, nil
}

func (f *fakeAPI) CurrentSong() (mpd.Track, error) {
	if f.currentSongFn != nil {
		return f.currentSongFn()
	}
	return mpd.Track{Artist: "Artist", Title: "Song"}, nil
}

func (f *fakeAPI) Control(cmd string) (mpd.PlayState, error) {
	f.controlCalls++
	if f.controlFn != nil {
		return f.controlFn(cmd)
	}
	return mpd.StatePlay, nil
}

func (f *fakeAPI) SetVolume(volume int) error {
	f.setVolumeCalls++
	if f.setVolumeFn != nil {
		return f.setVolumeFn(volume)
	}
	return nil
}

func (f *fakeAPI) PlaySong(uri string) error                 { return nil }
func (f *fakeAPI) Playlists() ([]string, error)              { return []string{"radio"}, nil }
func (f *fakeAPI) Library() ([]mpd.LibraryEntry, error)      { return nil, nil }
func (f *fakeAPI) Queue() ([]mpd.LibraryEntry, error)        { return nil, nil }
func (f *fakeAPI) SearchByArtist(a string) ([]string, error) { return nil, nil }
func (f *fakeAPI) SearchByTitle(ti string) ([]string, error) { return nil, nil }
func (f *fakeAPI) StationList() (string, error)              { return "[]", nil }

func (f *fakeAPI) PlaylistContent(name string) ([]playlist.Station, error) {
	return []playlist.Station{{Name: "Radio Alpha", URL: "http://alpha.example/stream"}}, nil
}

func (f *fakeAPI) PlayStation(playlistName, stationName string) ([]playlist.Station, error) {
	return nil, nil
}

func serveRequest(api PlayerAPI, target string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	NewPlayerHandler(api).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return resp
}

func TestSetVolumeValidation(t *testing.T) {
	tests := []struct {
		vol        string
		wantStatus int
	}{
		{"0", http.StatusOK},
		{"100", http.StatusOK},
		{"50", http.StatusOK},
		{"-1", http.StatusBadRequest},
		{"101", http.StatusBadRequest},
		{"abc", http.StatusBadRequest},
		{"", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("vol="+tt.vol, func(t *testing.T) {
			api := &fakeAPI{}
			rec := serveRequest(api, "/player/setvol?vol="+tt.vol)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusBadRequest && api.setVolumeCalls != 0 {
				t.Fatal("invalid volume must never reach the session")
			}
			if tt.wantStatus == http.StatusOK && api.setVolumeCalls != 1 {
				t.Fatalf("setVolumeCalls = %d, want 1", api.setVolumeCalls)
			}
		})
	}
}

func TestControlValidation(t *testing.T) {
	api := &fakeAPI{}
	rec := serveRequest(api, "/player/control?command=selfdestruct")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if api.controlCalls != 0 {
		t.Fatal("invalid command must never reach the session")
	}

	rec = serveRequest(api, "/player/control")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing command: status = %d, want 400", rec.Code)
	}

	rec = serveRequest(api, "/player/control?command=pause")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
}

func TestStatusEnvelope(t *testing.T) {
	api := &fakeAPI{statusFn: func() (mpd.PlayerStatus, error) {
		return mpd.PlayerStatus{State: mpd.StatePause, Volume: 30}, nil
	}}
	rec := serveRequest(api, "/player")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	if data["state"] != "pause" {
		t.Fatalf("data = %v", data)
	}
}

func TestNotConnectedMapsToServiceUnavailable(t *testing.T) {
	api := &fakeAPI{statusFn: func() (mpd.PlayerStatus, error) {
		return mpd.PlayerStatus{}, mpd.ErrNotConnected
	}}
	rec := serveRequest(api, "/player")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success || resp.Error == "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestCurrentSongEnvelope(t *testing.T) {
	api := &fakeAPI{currentSongFn: func() (mpd.Track, error) {
		return mpd.Track{Artist: "Artist", Title: "Song", AlbumName: "The Album"}, nil
	}}
	rec := serveRequest(api, "/player/currentsong")

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data := resp.Data.(map[string]any)
	if data["artist"] != "Artist" || data["albumname"] != "The Album" {
		t.Fatalf("data = %v", data)
	}
}
