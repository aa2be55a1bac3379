package mpd

import (
	"strings"

	gompd "github.com/fhs/gompd/v2/mpd"
)

// Track is the client-facing view of the currently playing song. Artist and
// title are derived from the raw tags; Station is only set for stream URLs;
// Album, AlbumName and Wiki are filled in by enrichment when available.
type Track struct {
	Artist    string `json:"artist"`
	Title     string `json:"title"`
	Station   string `json:"station,omitempty"`
	Album     string `json:"album,omitempty"` // cover image URL
	AlbumName string `json:"albumname,omitempty"`
	Wiki      string `json:"wiki,omitempty"`
	File      string `json:"file,omitempty"`
	Time      string `json:"time,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// LibraryEntry is one song in the daemon's database or queue.
type LibraryEntry struct {
	File     string `json:"file"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Time     string `json:"time,omitempty"`
	Duration string `json:"duration,omitempty"`
}

const titleSeparator = " - "

// deriveTrack extracts artist and title from a currentsong response.
//
// The title is split on " - "; when the title has no separator the file path
// is split instead. The first segment becomes the artist, the last the title,
// and anything from the first "." on is stripped from the title (a trailing
// extension). A file with an http(s) scheme is a stream: the daemon-reported
// station name is carried instead of title semantics.
func deriveTrack(attrs gompd.Attrs) Track {
	track := Track{
		File:     attrs["file"],
		Time:     attrs["Time"],
		Duration: attrs["duration"],
	}

	title := attrs["Title"]
	if title == "" {
		return track
	}

	var parts []string
	if strings.Contains(title, titleSeparator) {
		parts = strings.Split(title, titleSeparator)
	} else {
		parts = strings.Split(track.File, titleSeparator)
	}

	track.Artist = parts[0]
	track.Title = parts[len(parts)-1]
	if i := strings.Index(track.Title, "."); i > 0 {
		track.Title = track.Title[:i]
	}

	if strings.HasPrefix(track.File, "http") {
		track.Station = attrs["Name"]
	}

	return track
}

// libraryEntry maps a database listing row into a LibraryEntry.
func libraryEntry(attrs gompd.Attrs) LibraryEntry {
	return LibraryEntry{
		File:     attrs["file"],
		Title:    attrs["Title"],
		Artist:   attrs["Artist"],
		Album:    attrs["Album"],
		Time:     attrs["Time"],
		Duration: attrs["duration"],
	}
}
