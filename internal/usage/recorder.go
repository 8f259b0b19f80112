// Package usage records one event per finished job in usage_events.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
)

const defaultWriteTimeout = 3 * time.Second

// Recorder is a dispatch.Sink that persists outcomes. Write failures are
// logged and otherwise ignored.
type Recorder struct {
	sql          infra.SQLExecutor
	logger       infra.Logger
	writeTimeout time.Duration
}

func NewRecorder(sql infra.SQLExecutor, logger infra.Logger) *Recorder {
	return &Recorder{sql: sql, logger: logger, writeTimeout: defaultWriteTimeout}
}

// Deliver implements dispatch.Sink.
func (r *Recorder) Deliver(o dispatch.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	if err := r.Record(ctx, o); err != nil {
		r.logger.Error().Err(err).Str("request_id", o.ID).Msg("usage: record failed")
	}
}

func (r *Recorder) Record(ctx context.Context, o dispatch.Outcome) error {
	props := map[string]any{}
	if o.Reason != "" {
		props["reason"] = o.Reason
	}
	if o.RetryAfter > 0 {
		props["retry_after_seconds"] = int(o.RetryAfter.Seconds())
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	completed := o.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertUsageEvent,
		o.ID,
		string(o.Function),
		o.Model,
		string(o.Kind),
		int(o.Latency.Milliseconds()),
		completed,
		raw,
	)
	if err != nil {
		return fmt.Errorf("usage: insert event: %w", err)
	}
	return nil
}

// FunctionStats aggregates usage for one function.
type FunctionStats struct {
	Function     domain.FunctionID `json:"function"`
	Total        int               `json:"total"`
	Succeeded    int               `json:"succeeded"`
	AvgLatencyMS int               `json:"avg_latency_ms"`
}

// Summary returns per-function counts for events created at or after since.
func (r *Recorder) Summary(ctx context.Context, since time.Time) ([]FunctionStats, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QUsageSummary, since)
	if err != nil {
		return nil, fmt.Errorf("usage: summary: %w", err)
	}
	defer rows.Close()
	var out []FunctionStats
	for rows.Next() {
		var (
			s  FunctionStats
			fn string
		)
		if err := rows.Scan(&fn, &s.Total, &s.Succeeded, &s.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("usage: scan summary: %w", err)
		}
		s.Function = domain.FunctionID(fn)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage: summary rows: %w", err)
	}
	return out, nil
}

var _ dispatch.Sink = (*Recorder)(nil)
