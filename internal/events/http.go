package events

import "time"

// HTTPStart is emitted when the costing sidecar receives a request.
// Context carries the request context.
type HTTPStart struct {
	Method string
	Path   string
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
}
