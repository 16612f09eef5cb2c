package dto

// StreamEvent is one Server-Sent Event pushed to /stream subscribers.
type StreamEvent struct {
	Name string
	Data []byte
}
