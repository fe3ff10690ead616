package publisher

// Publisher hands newly saved news items to downstream consumers
// (sentiment tagging runs outside this service).
type Publisher interface {
	// Publish appends one message to the news stream
	Publish(message []byte) error

	// Close closes the publisher connection
	Close() error
}
