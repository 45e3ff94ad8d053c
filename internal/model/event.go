package model

import (
	"time"

	"github.com/google/uuid"
)

// Message carries the envelope fields shared by every outbound event.
type Message struct {
	MessageID   string    `json:"message_id"`
	PublishTime time.Time `json:"publish_time"`
}

// NewMessage stamps a fresh message id and publish time.
func NewMessage() Message {
	return Message{
		MessageID:   uuid.NewString(),
		PublishTime: time.Now().UTC(),
	}
}

// ProgressEvent is emitted after every attempted check and once more at the end of a run.
type ProgressEvent struct {
	Message
	RecordID  string    `json:"record_id"`
	Category  Category  `json:"category"`
	AuditName AuditName `json:"audit_name"`
	Progress  float64   `json:"progress"`
	Status    string    `json:"status"`
	Level     string    `json:"level"`
}

// ErrorKind classifies a per-check failure.
type ErrorKind string

const (
	// ErrorKindCheck is an error returned by a check.
	ErrorKindCheck ErrorKind = "check_error"

	// ErrorKindPanic is a panic recovered from a check.
	ErrorKindPanic ErrorKind = "panic"

	// ErrorKindPersist is a failure to persist a finished audit.
	ErrorKindPersist ErrorKind = "persist_error"
)

// FailureEvent reports a recoverable per-check failure.
type FailureEvent struct {
	Message
	RecordID     string    `json:"record_id"`
	AuditName    AuditName `json:"audit_name"`
	Category     Category  `json:"category"`
	Progress     float64   `json:"progress"`
	ErrorKind    ErrorKind `json:"error_kind"`
	ErrorMessage string    `json:"error_message"`
}

// LevelPage is the audit level of every event: runs evaluate a single page.
const LevelPage = "page"
