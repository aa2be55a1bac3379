package mpd

import (
	"testing"

	gompd "github.com/fhs/gompd/v2/mpd"
)

func TestDeriveTrack(t *testing.T) {
	tests := []struct {
		name  string
		attrs gompd.Attrs
		want  Track
	}{
		{
			name:  "artist and title split from tag",
			attrs: gompd.Attrs{"file": "music/x.mp3", "Title": "Artist - Song.mp3"},
			want:  Track{Artist: "Artist", Title: "Song", File: "music/x.mp3"},
		},
		{
			name:  "title without separator falls back to file path",
			attrs: gompd.Attrs{"file": "The Band - Tune.flac", "Title": "Tune"},
			want:  Track{Artist: "The Band", Title: "Tune", File: "The Band - Tune.flac"},
		},
		{
			name:  "multiple separators use first and last segment",
			attrs: gompd.Attrs{"file": "x", "Title": "A - B - C"},
			want:  Track{Artist: "A", Title: "C", File: "x"},
		},
		{
			name:  "title without dot is left unmodified",
			attrs: gompd.Attrs{"file": "x", "Title": "Some Artist - Some Song"},
			want:  Track{Artist: "Some Artist", Title: "Some Song", File: "x"},
		},
		{
			name:  "stream carries the daemon-reported station name",
			attrs: gompd.Attrs{"file": "http://stream.example/live", "Title": "Artist - Song", "Name": "Radio X"},
			want:  Track{Artist: "Artist", Title: "Song", Station: "Radio X", File: "http://stream.example/live"},
		},
		{
			name:  "local file never gets a station",
			attrs: gompd.Attrs{"file": "music/x.mp3", "Title": "Artist - Song", "Name": "ignored"},
			want:  Track{Artist: "Artist", Title: "Song", File: "music/x.mp3"},
		},
		{
			name:  "no title yields empty derivation",
			attrs: gompd.Attrs{"file": "http://stream.example/live", "Name": "Radio X"},
			want:  Track{File: "http://stream.example/live"},
		},
		{
			name:  "time and duration pass through",
			attrs: gompd.Attrs{"file": "x", "Title": "A - B", "Time": "200", "duration": "199.543"},
			want:  Track{Artist: "A", Title: "B", File: "x", Time: "200", Duration: "199.543"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveTrack(tt.attrs)
			if got != tt.want {
				t.Errorf("deriveTrack() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
