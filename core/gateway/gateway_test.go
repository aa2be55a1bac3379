package gateway

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mpdfm/core/hub"
	"mpdfm/core/mpd"
)

const radioM3U = `#EXTM3U
#EXTINF:-1,Radio Alpha
http://alpha.example/stream
#EXTINF:-1,Radio Beta
https://beta.example/stream
`

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "radio.m3u"), []byte(radioM3U), 0644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	stationFile := filepath.Join(dir, "stations.json")
	if err := os.WriteFile(stationFile, []byte(`[{"name":"Radio Alpha"}]`), 0644); err != nil {
		t.Fatalf("write station file: %v", err)
	}

	h := hub.NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	session := mpd.NewSession(mpd.Options{})
	return New(session, h, dir, stationFile, nil)
}

func TestPlaylistContent(t *testing.T) {
	gw := newTestGateway(t)

	stations, err := gw.PlaylistContent("radio")
	if err != nil {
		t.Fatalf("PlaylistContent: %v", err)
	}
	if len(stations) != 2 || stations[0].Name != "Radio Alpha" {
		t.Fatalf("stations = %v", stations)
	}

	if _, err := gw.PlaylistContent("missing"); err == nil {
		t.Fatal("missing playlist should error")
	}
}

func TestPlayStationUnknownName(t *testing.T) {
	gw := newTestGateway(t)

	_, err := gw.PlayStation("radio", "Radio Gamma")
	if err == nil {
		t.Fatal("unknown station should error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestPlayStationRequiresSession(t *testing.T) {
	gw := newTestGateway(t)

	// The station resolves, but the session was never connected.
	_, err := gw.PlayStation("radio", "Radio Alpha")
	if !errors.Is(err, mpd.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestStationList(t *testing.T) {
	gw := newTestGateway(t)

	raw, err := gw.StationList()
	if err != nil {
		t.Fatalf("StationList: %v", err)
	}
	if !strings.Contains(raw, "Radio Alpha") {
		t.Fatalf("raw = %q", raw)
	}
}
