package feedback

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/storage"
)

func newTestRecorder(t *testing.T, maxBytes int64) (*FileRecorder, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rec := NewFileRecorder(store, maxBytes, zerolog.Nop())
	rec.now = func() time.Time { return time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC) }
	return rec, dir
}

func sampleFeedback(id string, fn domain.FunctionID, rating int) domain.Feedback {
	return domain.Feedback{
		RequestID: id,
		Function:  fn,
		Input:     "hello",
		Response:  "world",
		Model:     "gpt-3.5-turbo",
		Rating:    rating,
	}
}

func TestFileRecorderAppendsDailyFile(t *testing.T) {
	rec, dir := newTestRecorder(t, 0)
	ctx := context.Background()
	for i, id := range []string{"a", "b"} {
		if err := rec.Save(ctx, sampleFeedback(id, domain.FunctionSummarize, i+3)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "feedback_2024-05-17.jsonl"))
	if err != nil {
		t.Fatalf("read daily file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], `"request_id":"a"`) || !strings.Contains(lines[0], `"timestamp":"2024-05-17T10:00:00Z"`) {
		t.Fatalf("unexpected first line %s", lines[0])
	}
}

func TestFileRecorderRotatesLargeFile(t *testing.T) {
	rec, dir := newTestRecorder(t, 10)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := rec.Save(ctx, sampleFeedback(id, domain.FunctionCode, 5)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	for _, name := range []string{"feedback_2024-05-17.jsonl", "feedback_2024-05-17_1.jsonl", "feedback_2024-05-17_2.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	entries, err := rec.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries across rotated files, got %d", len(entries))
	}
}

func TestFileRecorderFallback(t *testing.T) {
	rec, dir := newTestRecorder(t, 0)
	if err := os.Mkdir(filepath.Join(dir, "feedback_2024-05-17.jsonl"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := rec.Save(context.Background(), sampleFeedback("a", domain.FunctionExplain, 4)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, fallbackFile))
	if err != nil {
		t.Fatalf("read fallback: %v", err)
	}
	if !strings.Contains(string(data), `"request_id":"a"`) {
		t.Fatalf("fallback missing entry: %s", data)
	}
}

func TestFileRecorderSummary(t *testing.T) {
	rec, dir := newTestRecorder(t, 0)
	ctx := context.Background()
	saves := []domain.Feedback{
		sampleFeedback("a", domain.FunctionTranslate, 5),
		sampleFeedback("b", domain.FunctionTranslate, 2),
		sampleFeedback("c", domain.FunctionCode, 4),
	}
	for _, fb := range saves {
		if err := rec.Save(ctx, fb); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	f, err := os.OpenFile(filepath.Join(dir, "feedback_2024-05-17.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("not json\n")
	f.Close()

	summary, err := rec.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 functions, got %+v", summary)
	}
	if summary[0].Function != domain.FunctionCode || summary[0].Total != 1 || summary[0].AverageRating != 4 {
		t.Fatalf("unexpected code summary %+v", summary[0])
	}
	if summary[1].Function != domain.FunctionTranslate || summary[1].Total != 2 || summary[1].AverageRating != 3.5 {
		t.Fatalf("unexpected translate summary %+v", summary[1])
	}
}
