package publisher

// Publisher pushes ranked products to a stream for downstream consumers.
type Publisher interface {
	// Publish publishes a message under the given site key
	Publish(site string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
