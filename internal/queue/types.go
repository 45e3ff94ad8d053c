package queue

import (
	"errors"
	"fmt"

	"github.com/nao1215/pageaudit/internal/model"
)

// Default key names.
const (
	DefaultQueue   = "pageaudit:triggers"
	DefaultChannel = "pageaudit:events"
)

// ErrNoMessage is returned by PopTrigger when the wait timed out without a trigger.
var ErrNoMessage = errors.New("no message available")

// ErrMalformedTrigger is returned by PopTrigger when the popped payload is
// not a Trigger. The payload is consumed.
var ErrMalformedTrigger = errors.New("malformed trigger")

// Trigger asks for one run against a record.
type Trigger struct {
	// RecordID identifies the record to continue. The record is created
	// when it does not exist yet.
	RecordID string `json:"record_id"`

	// SnapshotID identifies the captured page the record audits.
	SnapshotID string `json:"snapshot_id"`
}

// Validate checks that both identifiers are present.
func (t Trigger) Validate() error {
	if t.RecordID == "" {
		return fmt.Errorf("%w: record_id is required", model.ErrInvalidInput)
	}
	if t.SnapshotID == "" {
		return fmt.Errorf("%w: snapshot_id is required", model.ErrInvalidInput)
	}
	return nil
}

// EventKind tells subscribers which payload an Event carries.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventFailure  EventKind = "failure"
)

// Event is the message published on the events channel.
type Event struct {
	Kind     EventKind           `json:"kind"`
	Progress *model.ProgressEvent `json:"progress,omitempty"`
	Failure  *model.FailureEvent  `json:"failure,omitempty"`
}
