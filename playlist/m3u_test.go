package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleM3U = `#EXTM3U
#EXTINF:-1,Radio Alpha
http://alpha.example/stream
#EXTINF:-1,Radio Beta
https://beta.example/stream.aac
# a comment
http://bare.example/stream
`

func TestParse(t *testing.T) {
	stations, err := Parse(strings.NewReader(sampleM3U))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Station{
		{Name: "Radio Alpha", URL: "http://alpha.example/stream"},
		{Name: "Radio Beta", URL: "https://beta.example/stream.aac"},
		{Name: "", URL: "http://bare.example/stream"},
	}
	if len(stations) != len(want) {
		t.Fatalf("stations = %v, want %v", stations, want)
	}
	for i := range want {
		if stations[i] != want[i] {
			t.Errorf("stations[%d] = %+v, want %+v", i, stations[i], want[i])
		}
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("http://alpha.example/stream\n"))
	if !errors.Is(err, ErrNotM3U) {
		t.Fatalf("err = %v, want ErrNotM3U", err)
	}
}

func TestParseEmptyPlaylist(t *testing.T) {
	stations, err := Parse(strings.NewReader("#EXTM3U\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stations) != 0 {
		t.Fatalf("stations = %v, want none", stations)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radio.m3u")
	if err := os.WriteFile(path, []byte(sampleM3U), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stations, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("stations = %v", stations)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.m3u")); err == nil {
		t.Fatal("missing file should error")
	}
}
