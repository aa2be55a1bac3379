// Package playlist parses extended m3u station playlists.
package playlist

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrNotM3U is returned when the file does not carry the #EXTM3U header.
var ErrNotM3U = errors.New("playlist: not an m3u file")

// Station is one entry of a station playlist.
type Station struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

// ParseFile parses the m3u file at path.
func ParseFile(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an extended m3u playlist: the first line must start with
// #EXTM3U, #EXTINF lines carry the station name after the first comma, and
// http(s) lines are stream URLs closing out the pending entry.
func Parse(r io.Reader) ([]Station, error) {
	var stations []Station
	var pending Station

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if line == 1 {
			if !strings.HasPrefix(text, "#EXTM3U") {
				return nil, ErrNotM3U
			}
			continue
		}

		if strings.HasPrefix(text, "#EXTINF") {
			if _, name, ok := strings.Cut(text, ","); ok && name != "" {
				pending.Name = name
			}
			continue
		}

		if strings.HasPrefix(text, "http") {
			pending.URL = text
			stations = append(stations, pending)
			pending = Station{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
