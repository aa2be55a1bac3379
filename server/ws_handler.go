package server

import (
	"encoding/json"
	"net/http"

	"mpdfm/core/hub"
	"mpdfm/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades client connections and dispatches their requests.
type WSHandler struct {
	api PlayerAPI
	hub *hub.Hub
}

// NewWSHandler creates a websocket handler around the gateway and hub.
func NewWSHandler(api PlayerAPI, h *hub.Hub) *WSHandler {
	return &WSHandler{api: api, hub: h}
}

// Handle upgrades the connection, registers the client with the hub and
// runs its read/write pumps.
func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := hub.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.dispatch)
}

// dispatch handles one inbound request. Session failures become a
// best-effort MPD_OFFLINE to the requesting client only; unknown types are
// logged and ignored.
func (h *WSHandler) dispatch(c *hub.Client, req hub.Request) {
	logger.Debug("client request",
		logger.String("type", req.Type),
		logger.String("client", c.ID))

	switch req.Type {
	case hub.MsgRequestStationList:
		stations, err := h.api.StationList()
		if err != nil {
			logger.Warn("station list unavailable", logger.ErrorField(err))
			c.Send(hub.MsgError, map[string]string{"message": "station list unavailable"})
			return
		}
		c.Send(hub.MsgStationList, stations)

	case hub.MsgRequestCurrentSong:
		track, err := h.api.CurrentSong()
		if err != nil {
			c.Send(hub.MsgMPDOffline, "")
			return
		}
		c.Send(hub.MsgCurrentSong, track)

	case hub.MsgRequestStatus:
		status, err := h.api.Status()
		if err != nil {
			c.Send(hub.MsgMPDOffline, "")
			return
		}
		c.Send(hub.MsgStatus, status)

	case hub.MsgRequestControl:
		var command string
		if err := json.Unmarshal(req.Data, &command); err != nil || command == "" {
			c.Send(hub.MsgError, map[string]string{"message": "invalid control command"})
			return
		}
		if _, err := h.api.Control(command); err != nil {
			c.Send(hub.MsgMPDOffline, "")
			return
		}
		c.Send(hub.MsgControl, command)

	default:
		logger.Debug("ignoring unknown message type",
			logger.String("type", req.Type),
			logger.String("client", c.ID))
	}
}
