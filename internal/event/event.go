// Package event pushes live-update hints to connected clients. Events carry
// ids only; clients refetch what they display.
package event

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	// RequestUpdate tells every client that request ID changed.
	RequestUpdate = "request_update"
	// Notifications tells user ID that their notification list changed.
	Notifications = "notifications"
)

type Event struct {
	Event string    `json:"event"`
	ID    uuid.UUID `json:"id"`
}

func RequestUpdated(id uuid.UUID) Event     { return Event{Event: RequestUpdate, ID: id} }
func NotificationsFor(user uuid.UUID) Event { return Event{Event: Notifications, ID: user} }

// Publisher delivers events to clients.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Sink is the local set of client connections.
type Sink interface {
	Broadcast(msg []byte)
	SendTo(userID uuid.UUID, msg []byte)
}

type hubPublisher struct {
	sink Sink
}

// NewHubPublisher delivers events to the clients of this instance only.
func NewHubPublisher(sink Sink) Publisher {
	return &hubPublisher{sink: sink}
}

func (p *hubPublisher) Publish(_ context.Context, e Event) error {
	return deliver(p.sink, e)
}

func deliver(sink Sink, e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if e.Event == Notifications {
		sink.SendTo(e.ID, msg)
		return nil
	}
	sink.Broadcast(msg)
	return nil
}
