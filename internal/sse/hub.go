package sse

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/logger"
)

type SSEEvent string

const (
	SSEEventCourseCompleted     SSEEvent = "CourseCompleted"
	SSEEventEnrollmentActivated SSEEvent = "EnrollmentActivated"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// Publisher is what services publish through; the hub implements it directly
// and the redis bus wraps it for multi-instance fan-out.
type Publisher interface {
	Publish(msg SSEMessage)
}

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
}

type SSEHub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	return &SSEClient{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, 10),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Channels[channel] = true
	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for channel := range client.Channels {
		if clients, exists := hub.subscriptions[channel]; exists {
			delete(clients, client)
			if len(clients) == 0 {
				delete(hub.subscriptions, channel)
			}
		}
	}
	close(client.Outbound)
	hub.log.Debug("SSE client removed", "client_id", client.ID)
}

// Publish delivers to every subscriber of the message channel. Slow clients
// are skipped rather than blocking the publisher.
func (hub *SSEHub) Publish(msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	clients, exists := hub.subscriptions[msg.Channel]
	if !exists {
		return
	}
	for client := range clients {
		select {
		case client.Outbound <- msg:
		default:
			hub.log.Warn("SSE client outbound full, dropping message", "client_id", client.ID, "event", msg.Event)
		}
	}
}
