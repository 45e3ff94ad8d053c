package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/pageaudit/internal/checks"
	"github.com/nao1215/pageaudit/internal/model"
)

// mockCheck is a test helper that implements checks.Check.
type mockCheck struct {
	name      model.AuditName
	category  model.Category
	unscored  bool
	awarded   int
	execFunc  func() error
	callCount atomic.Int32
}

func (m *mockCheck) Name() model.AuditName { return m.name }

func (m *mockCheck) Category() model.Category { return m.category }

func (m *mockCheck) Scored() bool { return !m.unscored }

func (m *mockCheck) Execute(_ context.Context, snapshot *model.Snapshot, _ *model.AuditRecord) (*model.Audit, error) {
	m.callCount.Add(1)
	if m.execFunc != nil {
		if err := m.execFunc(); err != nil {
			return nil, err
		}
	}
	return model.NewAudit(model.AuditSpec{
		Name:     m.name,
		Category: m.category,
		URL:      snapshot.URL,
		Scored:   !m.unscored,
	}, []model.Issue{{Title: "finding", Category: m.category, PointsAwarded: m.awarded, PointsMax: 1}})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fiveChecks(failThird bool) []*mockCheck {
	list := []*mockCheck{
		{name: model.AuditNameLinks, category: model.CategoryInformationArchitecture, awarded: 1},
		{name: model.AuditNameTitles, category: model.CategoryInformationArchitecture, awarded: 1},
		{name: model.AuditNameMetadata, category: model.CategoryInformationArchitecture},
		{name: model.AuditNameHeaderStructure, category: model.CategoryInformationArchitecture, awarded: 1},
		{name: model.AuditNameAltText, category: model.CategoryInformationArchitecture, awarded: 1},
	}
	if failThird {
		list[2].execFunc = func() error { return errors.New("boom") }
	}
	return list
}

func asChecks(list []*mockCheck) []checks.Check {
	out := make([]checks.Check, len(list))
	for i, c := range list {
		out[i] = c
	}
	return out
}

func newSnapshot() *model.Snapshot {
	return &model.Snapshot{ID: "snap", URL: "https://example.com/", Markup: "<html></html>"}
}

// TestNew tests the Orchestrator constructor.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		o := New(nil)
		if o.CheckCount() != 0 {
			t.Errorf("expected 0 checks, got %d", o.CheckCount())
		}
		if o.logger == nil || o.publisher == nil || o.sink == nil {
			t.Error("expected default logger, publisher and sink")
		}
	})

	t.Run("keeps check order", func(t *testing.T) {
		t.Parallel()

		o := New(asChecks(fiveChecks(false)), WithConcurrency(2))
		names := o.CheckNames()
		if len(names) != 5 || names[0] != model.AuditNameLinks || names[4] != model.AuditNameAltText {
			t.Errorf("unexpected names %v", names)
		}
		if o.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", o.concurrency)
		}
	})
}

func TestRunInvalidInput(t *testing.T) {
	t.Parallel()

	o := New(asChecks(fiveChecks(false)), WithLogger(quietLogger()))
	if _, err := o.Run(context.Background(), nil, model.NewAuditRecord("r", "s", "")); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("nil snapshot: expected ErrInvalidInput, got %v", err)
	}
	if _, err := o.RunConcurrent(context.Background(), newSnapshot(), nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
}

func TestRunFailureIsolation(t *testing.T) {
	t.Parallel()

	list := fiveChecks(true)
	publisher := NewMemoryPublisher()
	o := New(asChecks(list), WithLogger(quietLogger()), WithPublisher(publisher))
	record := model.NewAuditRecord("record-1", "snap", "https://example.com/")

	report, err := o.Run(context.Background(), newSnapshot(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range list {
		if c.callCount.Load() != 1 {
			t.Errorf("%v executed %d times, want 1", c.name, c.callCount.Load())
		}
	}
	if got := len(record.AuditIDs()); got != 4 {
		t.Errorf("expected 4 audits recorded, got %d", got)
	}
	if record.IsCompleted(model.AuditNameMetadata) {
		t.Error("failed check must not be marked complete")
	}

	failures := publisher.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(failures))
	}
	if failures[0].AuditName != model.AuditNameMetadata || failures[0].ErrorKind != model.ErrorKindCheck {
		t.Errorf("unexpected failure event %+v", failures[0])
	}
	if failures[0].Progress != 0.6 {
		t.Errorf("failure progress = %v, want 0.6", failures[0].Progress)
	}
	if failures[0].Category != model.CategoryInformationArchitecture {
		t.Errorf("failure category = %v", failures[0].Category)
	}

	cr, ok := report.Category(model.CategoryInformationArchitecture)
	if !ok {
		t.Fatal("expected information architecture category")
	}
	if cr.Progress != 0.8 {
		t.Errorf("progress = %v, want 0.8", cr.Progress)
	}
	if report.Status != model.StatusInProgress {
		t.Errorf("status = %v, want inProgress", report.Status)
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	t.Parallel()

	for _, concurrent := range []bool{false, true} {
		t.Run(fmt.Sprintf("concurrent=%v", concurrent), func(t *testing.T) {
			t.Parallel()

			publisher := NewMemoryPublisher()
			o := New(asChecks(fiveChecks(true)), WithLogger(quietLogger()), WithPublisher(publisher), WithConcurrency(3))
			record := model.NewAuditRecord("record", "snap", "")

			var err error
			if concurrent {
				_, err = o.RunConcurrent(context.Background(), newSnapshot(), record)
			} else {
				_, err = o.Run(context.Background(), newSnapshot(), record)
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			events := publisher.Progress()
			if len(events) != 6 {
				t.Fatalf("expected 6 progress events, got %d", len(events))
			}
			prev := 0.0
			for _, e := range events {
				if e.Progress < prev || e.Progress < 0 || e.Progress > 1 {
					t.Fatalf("progress sequence not monotonic: %v after %v", e.Progress, prev)
				}
				if e.RecordID != "record" || e.Level != model.LevelPage {
					t.Errorf("unexpected event %+v", e)
				}
				prev = e.Progress
			}
			last := events[len(events)-1]
			if last.Progress != 1.0 || last.Status != StatusRunComplete {
				t.Errorf("last event = %+v, want progress 1.0 complete", last)
			}
		})
	}
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	list := fiveChecks(false)
	publisher := NewMemoryPublisher()
	o := New(asChecks(list), WithLogger(quietLogger()), WithPublisher(publisher))
	record := model.NewAuditRecord("record", "snap", "")

	first, err := o.Run(context.Background(), newSnapshot(), record)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := o.Run(context.Background(), newSnapshot(), record)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for _, c := range list {
		if c.callCount.Load() != 1 {
			t.Errorf("%v executed %d times, want 1", c.name, c.callCount.Load())
		}
	}
	if first.Status != model.StatusComplete || second.Status != model.StatusComplete {
		t.Errorf("statuses = %v, %v, want complete", first.Status, second.Status)
	}
	a, _ := first.Category(model.CategoryInformationArchitecture)
	b, _ := second.Category(model.CategoryInformationArchitecture)
	if *a.Score != *b.Score || a.Progress != b.Progress {
		t.Errorf("reports differ: %+v vs %+v", a, b)
	}
	if *a.Score != 0.8 {
		t.Errorf("score = %v, want 0.8", *a.Score)
	}
	// 5 check events + final, then only the final event on the second run
	if got := len(publisher.Progress()); got != 7 {
		t.Errorf("expected 7 progress events, got %d", got)
	}
}

func TestRunResumesFailedCheck(t *testing.T) {
	t.Parallel()

	list := fiveChecks(true)
	o := New(asChecks(list), WithLogger(quietLogger()))
	record := model.NewAuditRecord("record", "snap", "")

	if _, err := o.Run(context.Background(), newSnapshot(), record); err != nil {
		t.Fatalf("first run: %v", err)
	}
	list[2].execFunc = nil
	report, err := o.Run(context.Background(), newSnapshot(), record)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := list[2].callCount.Load(); got != 2 {
		t.Errorf("failed check executed %d times, want 2", got)
	}
	if got := list[0].callCount.Load(); got != 1 {
		t.Errorf("completed check executed %d times, want 1", got)
	}
	if report.Status != model.StatusComplete {
		t.Errorf("status = %v, want complete", report.Status)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	t.Parallel()

	list := fiveChecks(false)
	list[1].execFunc = func() error { panic("unexpected nil") }
	publisher := NewMemoryPublisher()
	o := New(asChecks(list), WithLogger(quietLogger()), WithPublisher(publisher))
	record := model.NewAuditRecord("record", "snap", "")

	if _, err := o.Run(context.Background(), newSnapshot(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failures := publisher.Failures()
	if len(failures) != 1 || failures[0].ErrorKind != model.ErrorKindPanic {
		t.Fatalf("expected one panic failure, got %+v", failures)
	}
	if got := len(record.CompletedNames()); got != 4 {
		t.Errorf("expected 4 completed checks, got %d", got)
	}
}

// failingSink fails every save.
type failingSink struct{ *MemorySink }

func (failingSink) SaveAudit(context.Context, string, *model.Audit) (string, error) {
	return "", errors.New("disk full")
}

func TestRunPersistFailure(t *testing.T) {
	t.Parallel()

	publisher := NewMemoryPublisher()
	o := New(asChecks(fiveChecks(false)), WithLogger(quietLogger()), WithPublisher(publisher), WithSink(failingSink{NewMemorySink()}))
	record := model.NewAuditRecord("record", "snap", "")

	if _, err := o.Run(context.Background(), newSnapshot(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failures := publisher.Failures()
	if len(failures) != 5 {
		t.Fatalf("expected 5 failures, got %d", len(failures))
	}
	for _, f := range failures {
		if f.ErrorKind != model.ErrorKindPersist {
			t.Errorf("kind = %v, want persist_error", f.ErrorKind)
		}
	}
	if len(record.CompletedNames()) != 0 {
		t.Error("unpersisted audits must not complete")
	}
}

func TestConcurrentRunsShareRecord(t *testing.T) {
	t.Parallel()

	list := fiveChecks(false)
	sink := NewMemorySink()
	o := New(asChecks(list), WithLogger(quietLogger()), WithSink(sink), WithConcurrency(5))
	record := model.NewAuditRecord("record", "snap", "")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.RunConcurrent(context.Background(), newSnapshot(), record); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	for _, c := range list {
		if got := c.callCount.Load(); got != 1 {
			t.Errorf("%v executed %d times, want 1", c.name, got)
		}
	}
	audits, _ := sink.LoadAudits(context.Background(), "record")
	if len(audits) != 5 {
		t.Errorf("expected 5 stored audits, got %d", len(audits))
	}
}

func TestRunWithDefaultChecks(t *testing.T) {
	t.Parallel()

	o := New(checks.Default(), WithLogger(quietLogger()))
	snapshot := &model.Snapshot{
		ID:  "snap",
		URL: "https://example.com/",
		Markup: `<html lang="en"><head><title>Example</title></head>
			<body><h1>Example</h1><p>Hello <a href="/about">About us</a></p></body></html>`,
	}
	record := model.NewAuditRecord("record", snapshot.ID, snapshot.URL)

	report, err := o.Run(context.Background(), snapshot, record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != model.StatusComplete {
		t.Errorf("status = %v, want complete", report.Status)
	}
	if len(record.CompletedNames()) != o.CheckCount() {
		t.Errorf("completed %d of %d checks", len(record.CompletedNames()), o.CheckCount())
	}
}

func TestRunBatch(t *testing.T) {
	t.Parallel()

	o := New(asChecks(fiveChecks(false)), WithLogger(quietLogger()), WithConcurrency(2))
	jobs := []Job{
		{Snapshot: newSnapshot(), Record: model.NewAuditRecord("a", "snap", "")},
		{Snapshot: nil, Record: model.NewAuditRecord("b", "snap", "")},
		{Snapshot: newSnapshot(), Record: model.NewAuditRecord("c", "snap", "")},
	}

	results := o.RunBatch(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Report.RecordID != "a" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if !errors.Is(results[1].Err, model.ErrInvalidInput) {
		t.Errorf("expected invalid input for second job, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Report.RecordID != "c" {
		t.Errorf("unexpected third result %+v", results[2])
	}
}
