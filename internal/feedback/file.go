package feedback

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/storage"
)

const (
	DefaultMaxFileBytes = 10 * 1024 * 1024

	filePrefix   = "feedback_"
	fileExt      = ".jsonl"
	fallbackFile = "feedback_fallback.jsonl"
)

// FileRecorder appends feedback to feedback_YYYY-MM-DD.jsonl. A file that
// has grown past MaxFileBytes is moved aside to feedback_YYYY-MM-DD_N.jsonl
// before the next write. Each write replaces the daily file atomically; if
// that fails the line is appended to feedback_fallback.jsonl instead.
type FileRecorder struct {
	store        *storage.FileStore
	maxFileBytes int64
	logger       infra.Logger
	now          func() time.Time

	mu sync.Mutex
}

func NewFileRecorder(store *storage.FileStore, maxFileBytes int64, logger infra.Logger) *FileRecorder {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &FileRecorder{
		store:        store,
		maxFileBytes: maxFileBytes,
		logger:       logger,
		now:          time.Now,
	}
}

func (r *FileRecorder) Save(ctx context.Context, fb domain.Feedback) error {
	if fb.Timestamp.IsZero() {
		fb.Timestamp = r.now().UTC()
	}
	line, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("feedback: encode: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	key := dailyKey(r.now())
	if err := r.writeDaily(ctx, key, line); err != nil {
		r.logger.Error().Err(err).Str("request_id", fb.RequestID).Msg("feedback: save failed, using fallback")
		if _, ferr := r.store.Append(ctx, fallbackFile, line); ferr != nil {
			r.logger.Error().Err(ferr).Str("request_id", fb.RequestID).RawJSON("feedback", bytes.TrimSpace(line)).Msg("feedback: fallback failed, entry lost")
			return fmt.Errorf("feedback: save: %w", err)
		}
		r.logger.Warn().Str("request_id", fb.RequestID).Str("file", fallbackFile).Msg("feedback: saved to fallback")
		return nil
	}
	r.logger.Info().Str("request_id", fb.RequestID).Str("file", key).Msg("feedback: saved")
	return nil
}

func (r *FileRecorder) writeDaily(ctx context.Context, key string, line []byte) error {
	size, err := r.store.Size(key)
	if err != nil {
		return err
	}
	if size > r.maxFileBytes {
		rotated, err := r.rotate(ctx, key)
		if err != nil {
			// Keep writing to the oversized file rather than dropping the entry.
			r.logger.Error().Err(err).Str("file", key).Msg("feedback: rotation failed")
		} else {
			r.logger.Info().Str("file", rotated).Msg("feedback: rotated file")
			size = 0
		}
	}
	var existing []byte
	if size > 0 {
		if existing, err = r.store.Read(key); err != nil {
			return err
		}
	}
	_, err = r.store.Write(ctx, key, append(existing, line...))
	return err
}

func (r *FileRecorder) rotate(ctx context.Context, key string) (string, error) {
	base := strings.TrimSuffix(key, fileExt)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, fileExt)
		if r.store.Exists(candidate) {
			continue
		}
		if err := r.store.Rename(ctx, key, candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
}

// Load reads every stored entry, including rotated and fallback files.
// Lines that do not decode are logged and skipped.
func (r *FileRecorder) Load(ctx context.Context) ([]domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.List("", filePrefix+"*"+fileExt)
	if err != nil {
		return nil, err
	}
	var out []domain.Feedback
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.store.Read(key)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}
			var fb domain.Feedback
			if err := json.Unmarshal(raw, &fb); err != nil {
				r.logger.Warn().Str("file", key).Err(err).Msg("feedback: skipping invalid line")
				continue
			}
			out = append(out, fb)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("feedback: read %s: %w", key, err)
		}
	}
	return out, nil
}

func (r *FileRecorder) Summary(ctx context.Context) ([]Summary, error) {
	entries, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(entries), nil
}

func dailyKey(t time.Time) string {
	return filePrefix + t.Format("2006-01-02") + fileExt
}

var _ Recorder = (*FileRecorder)(nil)
