package hub

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEncodeMessageLowercasesAllKeys(t *testing.T) {
	type inner struct {
		CoverURL string `json:"CoverURL"`
	}
	payload := map[string]any{
		"Artist": "Artist",
		"Nested": map[string]any{"AlbumName": "The Album"},
		"Images": []any{
			map[string]any{"Size": "large", "URL": "http://img/large.png"},
			"scalar stays",
		},
		"Inner": inner{CoverURL: "http://img/x.png"},
	}

	frame, err := encodeMessage("CURRENTSONG", payload)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if msg["type"] != "CURRENTSONG" {
		t.Fatalf("type = %v", msg["type"])
	}

	want := map[string]any{
		"artist": "Artist",
		"nested": map[string]any{"albumname": "The Album"},
		"images": []any{
			map[string]any{"size": "large", "url": "http://img/large.png"},
			"scalar stays",
		},
		"inner": map[string]any{"coverurl": "http://img/x.png"},
	}
	if !reflect.DeepEqual(msg["data"], want) {
		t.Fatalf("data = %#v, want %#v", msg["data"], want)
	}
}

func TestEncodeMessageNilDataBecomesEmptyObject(t *testing.T) {
	frame, err := encodeMessage("MPD_OFFLINE", nil)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	if string(frame) != `{"type":"MPD_OFFLINE","data":{}}` {
		t.Fatalf("frame = %s", frame)
	}
}

func TestEncodeMessageScalarPassesThrough(t *testing.T) {
	frame, err := encodeMessage("CONTROL", "play")
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	if string(frame) != `{"type":"CONTROL","data":"play"}` {
		t.Fatalf("frame = %s", frame)
	}
}

func TestLowerKeysPreservesArrayStructure(t *testing.T) {
	in := []any{
		map[string]any{"A": []any{map[string]any{"B": 1.0}}},
		2.0,
	}
	out := lowerKeys(in)

	want := []any{
		map[string]any{"a": []any{map[string]any{"b": 1.0}}},
		2.0,
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("lowerKeys = %#v, want %#v", out, want)
	}
}
