package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/auth"
	ws "github.com/isdelr/webempresa/internal/websocket"
)

// WebSocketHandler upgrades dashboard connections and feeds them the live topics.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler accepting the given origins.
// An empty list accepts every origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

var knownTopics = map[string]bool{ws.TopicActivity: true, ws.TopicHealth: true}

// Serve handles the WebSocket connection request. ?topics=activity,health picks the
// initial subscriptions, both by default.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var topics []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); knownTopics[t] {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		topics = []string{ws.TopicActivity, ws.TopicHealth}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, topics)
	h.hub.Join(client)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case "subscribe", "unsubscribe":
		if !knownTopics[msg.Topic] {
			h.hub.Reply(client, ws.NewErrorMessage("Unknown topic: "+msg.Topic))
			return
		}
		if msg.Action == "subscribe" {
			h.hub.Subscribe(client, msg.Topic)
		} else {
			h.hub.Unsubscribe(client, msg.Topic)
		}

	case "ping":
		pong, _ := json.Marshal(ws.Message{Action: "pong"})
		h.hub.Reply(client, pong)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
