package models

import "time"

// Event types recorded in the audit log.
const (
	EventLogin          = "LOGIN"
	EventLoginFailed    = "LOGIN_FAILED"
	EventSessionExpired = "SESSION_EXPIRED"
	EventSetParameter   = "SET_PARAMETER"
	EventTelemetry      = "TELEMETRY"
)

// Event is a single audit log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // LOGIN | LOGIN_FAILED | SESSION_EXPIRED | SET_PARAMETER | TELEMETRY
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
