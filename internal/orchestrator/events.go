package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/nao1215/pageaudit/internal/model"
)

// Status strings carried by progress events.
const (
	StatusCheckCompleted = "check completed"
	StatusCheckFailed    = "check failed"
	StatusRunComplete    = "complete"
)

// Publisher delivers run events to the outbound channel.
type Publisher interface {
	PublishProgress(ctx context.Context, event model.ProgressEvent) error
	PublishFailure(ctx context.Context, event model.FailureEvent) error
}

// MemoryPublisher keeps published events in memory. It is safe for
// concurrent use.
type MemoryPublisher struct {
	mu       sync.Mutex
	progress []model.ProgressEvent
	failures []model.FailureEvent
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// PublishProgress implements Publisher.
func (p *MemoryPublisher) PublishProgress(_ context.Context, event model.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, event)
	return nil
}

// PublishFailure implements Publisher.
func (p *MemoryPublisher) PublishFailure(_ context.Context, event model.FailureEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, event)
	return nil
}

// Progress returns the progress events published so far.
func (p *MemoryPublisher) Progress() []model.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.progress)
}

// Failures returns the failure events published so far.
func (p *MemoryPublisher) Failures() []model.FailureEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.failures)
}

type discardPublisher struct{}

func (discardPublisher) PublishProgress(context.Context, model.ProgressEvent) error { return nil }

func (discardPublisher) PublishFailure(context.Context, model.FailureEvent) error { return nil }
