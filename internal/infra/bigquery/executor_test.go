package bigquery

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/bigquery"
)

type mockRunner struct {
	queries []string
	status  *bigquery.JobStatus
	err     error
	closed  bool
}

func (m *mockRunner) Run(_ context.Context, sql string) (*bigquery.JobStatus, error) {
	m.queries = append(m.queries, sql)
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *mockRunner) Close() error {
	m.closed = true
	return nil
}

func TestExecutor_Exec(t *testing.T) {
	runner := &mockRunner{status: &bigquery.JobStatus{State: bigquery.Done}}
	exec := NewExecutor(runner)

	if err := exec.Exec(context.Background(), "TRUNCATE TABLE `p.finance.ramp_bills`;"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len(runner.queries) != 1 {
		t.Errorf("expected 1 query, got %d", len(runner.queries))
	}
}

func TestExecutor_ExecRunError(t *testing.T) {
	runErr := errors.New("quota exceeded")
	exec := NewExecutor(&mockRunner{err: runErr})

	if err := exec.Exec(context.Background(), "SELECT 1"); !errors.Is(err, runErr) {
		t.Errorf("expected run error, got %v", err)
	}
}

func TestExecutor_Close(t *testing.T) {
	runner := &mockRunner{}
	exec := NewExecutor(runner)

	if err := exec.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !runner.closed {
		t.Error("runner was not closed")
	}
}
