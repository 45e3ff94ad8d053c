package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/queue"
	"github.com/nao1215/pageaudit/internal/store"
)

// mockProcessor records received triggers.
type mockProcessor struct {
	mu       sync.Mutex
	triggers []queue.Trigger
	err      error
}

func (m *mockProcessor) Process(_ context.Context, trigger queue.Trigger) (*model.CompositeReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	if m.err != nil {
		return nil, m.err
	}
	return &model.CompositeReport{RecordID: trigger.RecordID, Status: model.StatusComplete}, nil
}

func (m *mockProcessor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triggers)
}

func notFoundReporter() Reporter {
	return ReporterFunc(func(_ context.Context, id string) (*model.CompositeReport, error) {
		if id == "rec-1" {
			return &model.CompositeReport{RecordID: id, Status: model.StatusInProgress}, nil
		}
		return nil, fmt.Errorf("record %s: %w", id, store.ErrNotFound)
	})
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleTrigger(t *testing.T) {
	t.Parallel()

	t.Run("bare trigger runs once", func(t *testing.T) {
		t.Parallel()

		p := &mockProcessor{}
		s := New(p, notFoundReporter(), nil)

		rec := post(t, s, `{"record_id":"rec-1","snapshot_id":"snap-1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if p.callCount() != 1 {
			t.Errorf("expected 1 run, got %d", p.callCount())
		}

		var report model.CompositeReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid response JSON: %v", err)
		}
		if report.RecordID != "rec-1" {
			t.Errorf("RecordID = %q", report.RecordID)
		}
	})

	t.Run("push envelope is decoded", func(t *testing.T) {
		t.Parallel()

		p := &mockProcessor{}
		s := New(p, notFoundReporter(), nil)

		data := base64.StdEncoding.EncodeToString([]byte(`{"record_id":"rec-9","snapshot_id":"snap-9"}`))
		rec := post(t, s, `{"message":{"data":"`+data+`","messageId":"m-1"},"subscription":"sub"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if len(p.triggers) != 1 || p.triggers[0].SnapshotID != "snap-9" {
			t.Errorf("unexpected triggers: %+v", p.triggers)
		}
	})

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "malformed JSON", body: `{`, want: http.StatusBadRequest},
		{name: "bad base64", body: `{"message":{"data":"!!!"}}`, want: http.StatusBadRequest},
		{name: "missing ids", body: `{"record_id":"r"}`, want: http.StatusBadRequest},
		{name: "missing snapshot", body: `{"record_id":"r","snapshot_id":"s"}`, err: store.ErrNotFound, want: http.StatusNotFound},
		{name: "storage failure", body: `{"record_id":"r","snapshot_id":"s"}`, err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New(&mockProcessor{err: tt.err}, notFoundReporter(), nil)
			rec := post(t, s, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleReport(t *testing.T) {
	t.Parallel()

	s := New(&mockProcessor{}, notFoundReporter(), nil)

	t.Run("known record", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/rec-1/report", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"execution_status":"inProgress"`) {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/nope/report", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := New(&mockProcessor{}, notFoundReporter(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(&mockProcessor{}, notFoundReporter(), nil)

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() error = %v", err)
	}
}
