package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
)

type stubExecutor struct {
	err   error
	rows  [][]any
	query string
	args  []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.query = query
	s.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	return &stubRows{rows: s.rows, idx: -1}, nil
}

type stubRows struct {
	pgx.Rows
	rows [][]any
	idx  int
}

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case *float64:
			*p = row[i].(float64)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func (r *stubRows) Close()     {}
func (r *stubRows) Err() error { return nil }

func TestSQLRecorderSave(t *testing.T) {
	exec := &stubExecutor{}
	rec := NewSQLRecorder(exec, zerolog.Nop())
	fb := sampleFeedback("0b7c6f5e-8f7f-4c51-9d61-3f8f6a1b2c3d", domain.FunctionCreative, 5)
	fb.Comments = "great"
	fb.Timestamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := rec.Save(context.Background(), fb); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if exec.query != sqlinline.QInsertFeedback {
		t.Fatal("expected insert feedback statement")
	}
	if len(exec.args) != 8 {
		t.Fatalf("expected 8 args, got %d", len(exec.args))
	}
	if exec.args[1] != "creative" || exec.args[5] != 5 || exec.args[6] != "great" {
		t.Fatalf("unexpected args %v", exec.args)
	}
}

func TestSQLRecorderSaveError(t *testing.T) {
	boom := errors.New("boom")
	rec := NewSQLRecorder(&stubExecutor{err: boom}, zerolog.Nop())
	if err := rec.Save(context.Background(), sampleFeedback("x", domain.FunctionCode, 1)); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestSQLRecorderSummary(t *testing.T) {
	exec := &stubExecutor{rows: [][]any{
		{"code", 2, 4.5},
		{"summarize", 1, 3.0},
	}}
	rec := NewSQLRecorder(exec, zerolog.Nop())
	summary, err := rec.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != 2 || summary[0].Function != domain.FunctionCode || summary[0].AverageRating != 4.5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
