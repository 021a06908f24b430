// Package events fans upload lifecycle events out to the realtime transports.
//
// The ingestion service reports through hooks; the server turns those into
// Events on a Broker, which hands each one to every registered Subscriber
// (the WebSocket hub and the SSE broadcaster).
package events

import "time"

// EventType names an upload lifecycle event.
type EventType string

// Event types published by the server.
const (
	UploadCreated EventType = "upload.created"
	UploadMapped  EventType = "upload.mapped"
	UploadExpired EventType = "upload.expired"
	UploadFailed  EventType = "upload.failed"

	// ClientConnected is sent by the transports themselves, not the broker.
	ClientConnected EventType = "client.connected"
)

// Event is one published event. ID is unique per event.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
