package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Topics a dashboard can follow.
const (
	TopicActivity = "activity"
	TopicHealth   = "health"
)

type subscription struct {
	client *Client
	topic  string
	add    bool
}

type publication struct {
	topic   string
	client  *Client // set for a reply to a single client
	all     bool    // every client regardless of topic
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	publish   chan publication
	subscribe chan subscription
	done      chan struct{}

	// A map of topics to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		publish:       make(chan publication, 64),
		subscribe:     make(chan subscription),
		done:          make(chan struct{}),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			for _, topic := range client.Topics {
				h.addSubscription(client, topic)
			}
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if sub.add {
				h.addSubscription(sub.client, sub.topic)
			} else if subs, ok := h.subscriptions[sub.topic]; ok {
				delete(subs, sub.client)
			}
		case pub := <-h.publish:
			if pub.all {
				for client := range h.clients {
					h.deliver(client, pub.message)
				}
				continue
			}
			if pub.client != nil {
				if h.clients[pub.client] {
					h.deliver(pub.client, pub.message)
				}
				continue
			}
			for client := range h.subscriptions[pub.topic] {
				h.deliver(client, pub.message)
			}
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop ends the Run loop and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish sends payload to the clients subscribed to topic. It never blocks the caller
// for long: when the hub is saturated the message is dropped.
func (h *Hub) Publish(topic string, payload interface{}) {
	message, err := json.Marshal(Message{Action: "event", Topic: topic, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to encode websocket message")
		return
	}
	select {
	case h.publish <- publication{topic: topic, message: message}:
	case <-h.done:
	default:
		log.Warn().Str("topic", topic).Msg("Websocket hub saturated, dropping message")
	}
}

// Broadcast sends an action to every connected client, subscribed or not.
func (h *Hub) Broadcast(action string, payload interface{}) {
	message, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return
	}
	select {
	case h.publish <- publication{all: true, message: message}:
	case <-h.done:
	default:
		log.Warn().Str("action", action).Msg("Websocket hub saturated, dropping broadcast")
	}
}

// Reply queues message for a single client. Unlike writing to client.Send directly it
// is safe after the hub dropped the client.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.publish <- publication{client: client, message: message}:
	case <-h.done:
	default:
		log.Warn().Str("user_id", client.UserID).Msg("Websocket hub saturated, dropping reply")
	}
}

// Join registers client unless the hub is stopped.
func (h *Hub) Join(client *Client) {
	select {
	case h.Register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Leave unregisters client unless the hub is stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Subscribe adds client to topic.
func (h *Hub) Subscribe(client *Client, topic string) {
	select {
	case h.subscribe <- subscription{client: client, topic: topic, add: true}:
	case <-h.done:
	}
}

// Unsubscribe removes client from topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	select {
	case h.subscribe <- subscription{client: client, topic: topic}:
	case <-h.done:
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for topic, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
}
