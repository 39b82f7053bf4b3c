package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValidationError rejects a request before anything is sent to the portal.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LogFilter selects audit events. Zero bounds are open.
type LogFilter struct {
	From  time.Time
	To    time.Time
	Type  string
	Limit int // newest N; 0 means the default
}

// SessionStatus is what /health reports about the cached session.
type SessionStatus struct {
	Active     bool
	ObtainedAt time.Time
}

// ParseState accepts only "0" and "1".
func ParseState(raw string) (int, error) {
	switch strings.TrimSpace(raw) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, &ValidationError{Field: "state", Msg: fmt.Sprintf("%q must be 0 or 1", raw)}
}

// ParseSetpoint parses a finite float; a decimal comma is accepted.
func ParseSetpoint(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{Field: "value", Msg: fmt.Sprintf("%q is not a number", raw)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: "value", Msg: "must be finite"}
	}
	return v, nil
}

func formatSetpoint(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
