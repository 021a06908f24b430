package events

// Subscriber consumes the broker's event stream on behalf of one transport.
type Subscriber interface {
	// Send delivers an event. It must not block on slow clients.
	Send(Event) error

	// Close releases the subscriber when the broker shuts down.
	Close() error
}
