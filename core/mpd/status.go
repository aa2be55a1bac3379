package mpd

import (
	"strconv"

	gompd "github.com/fhs/gompd/v2/mpd"
)

// PlayState is the daemon's single authoritative player state.
type PlayState string

const (
	StatePlay  PlayState = "play"
	StatePause PlayState = "pause"
	StateStop  PlayState = "stop"
)

// PlayerStatus is an immutable snapshot of the daemon's status block,
// recomputed on every query.
type PlayerStatus struct {
	Volume         int       `json:"volume"`
	Repeat         bool      `json:"repeat"`
	Random         bool      `json:"random"`
	Single         bool      `json:"single"`
	Consume        bool      `json:"consume"`
	Playlist       int       `json:"playlist"`
	PlaylistLength int       `json:"playlistlength"`
	State          PlayState `json:"state"`
	Song           int       `json:"song"`
	SongID         int       `json:"songid"`
	NextSong       int       `json:"nextsong,omitempty"`
	NextSongID     int       `json:"nextsongid,omitempty"`
	Bitrate        int       `json:"bitrate"`
	Elapsed        float64   `json:"elapsed,omitempty"`
	Duration       float64   `json:"duration,omitempty"`
	Audio          string    `json:"audio,omitempty"`
}

// translateStatus turns a raw MPD status block into a typed snapshot.
// Missing or malformed fields fall back to zero values; elapsed/duration
// are only present while something is playing, audio only while decoding.
func translateStatus(attrs gompd.Attrs) PlayerStatus {
	return PlayerStatus{
		Volume:         attrInt(attrs, "volume"),
		Repeat:         attrBool(attrs, "repeat"),
		Random:         attrBool(attrs, "random"),
		Single:         attrBool(attrs, "single"),
		Consume:        attrBool(attrs, "consume"),
		Playlist:       attrInt(attrs, "playlist"),
		PlaylistLength: attrInt(attrs, "playlistlength"),
		State:          PlayState(attrs["state"]),
		Song:           attrInt(attrs, "song"),
		SongID:         attrInt(attrs, "songid"),
		NextSong:       attrInt(attrs, "nextsong"),
		NextSongID:     attrInt(attrs, "nextsongid"),
		Bitrate:        attrInt(attrs, "bitrate"),
		Elapsed:        attrFloat(attrs, "elapsed"),
		Duration:       attrFloat(attrs, "duration"),
		Audio:          attrs["audio"],
	}
}

func attrInt(attrs gompd.Attrs, key string) int {
	n, err := strconv.Atoi(attrs[key])
	if err != nil {
		return 0
	}
	return n
}

func attrFloat(attrs gompd.Attrs, key string) float64 {
	f, err := strconv.ParseFloat(attrs[key], 64)
	if err != nil {
		return 0
	}
	return f
}

func attrBool(attrs gompd.Attrs, key string) bool {
	return attrs[key] == "1"
}
