package hub

import (
	"encoding/json"
	"strings"
)

// Outbound and inbound message kinds. The wire contract is a closed set;
// anything else is logged and ignored.
const (
	MsgStationList     = "STATION_LIST"
	MsgCurrentSong     = "CURRENTSONG"
	MsgStatus          = "STATUS"
	MsgControl         = "CONTROL"
	MsgMPDOffline      = "MPD_OFFLINE"
	MsgError           = "ERROR"
	MsgPlaylistChanged = "PLAYLIST_CHANGED"

	MsgRequestStationList = "REQUEST_STATION_LIST"
	MsgRequestCurrentSong = "REQUEST_CURRENTSONG"
	MsgRequestStatus      = "REQUEST_STATUS"
	MsgRequestControl     = "REQUEST_CONTROL"
)

// Message is the outbound client envelope: a type tag plus a payload whose
// mapping keys have all been lowercased.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Request is the inbound client envelope.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// encodeMessage frames data as {type, data} with every mapping key at every
// nesting depth lowercased. A nil payload becomes an empty object.
func encodeMessage(msgType string, data any) ([]byte, error) {
	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Data: normalized})
}

// normalize round-trips data through JSON so struct tags apply, then
// lowercases the keys of the resulting value.
func normalize(data any) (any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	if decoded == nil {
		return map[string]any{}, nil
	}
	return lowerKeys(decoded), nil
}

// lowerKeys recursively lowercases every map key. Array structure and
// scalar values pass through unchanged.
func lowerKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[strings.ToLower(k)] = lowerKeys(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = lowerKeys(inner)
		}
		return out
	default:
		return v
	}
}
