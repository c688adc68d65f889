package events

import "time"

// EstimateStart is emitted before scoring a GraphQL operation.
type EstimateStart struct {
	Query         string
	OperationName string
	Mode          string // "static", "plan", or "actual"
}

// EstimateFinish is emitted after scoring a GraphQL operation.
type EstimateFinish struct {
	Query         string
	OperationName string
	Mode          string
	Cost          float64
	Err           error
	Duration      time.Duration
}
