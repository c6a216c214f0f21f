package events

import "time"

// Stream is the Redis stream carrying client identity change events from the
// client service to the account service replica.
const Stream = "client-events"

// Event types published on the client identity stream.
const (
	TypeCreated = "CREATED"
	TypeUpdated = "UPDATED"
	TypeDeleted = "DELETED"
)

// ClientEvent notifies downstream consumers of a client identity change. It
// carries only the denormalized fields the account service replica needs.
type ClientEvent struct {
	Type           string    `json:"event_type"`
	ClientID       string    `json:"client_id"`
	Name           string    `json:"name"`
	Identification string    `json:"identification"`
	Active         bool      `json:"active"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// KnownType reports whether t is a recognised event type.
func KnownType(t string) bool {
	switch t {
	case TypeCreated, TypeUpdated, TypeDeleted:
		return true
	default:
		return false
	}
}
