package feedback

import (
	"context"
	"fmt"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
)

// SQLRecorder stores feedback in the feedback table.
type SQLRecorder struct {
	sql    infra.SQLExecutor
	logger infra.Logger
}

func NewSQLRecorder(sql infra.SQLExecutor, logger infra.Logger) *SQLRecorder {
	return &SQLRecorder{sql: sql, logger: logger}
}

func (r *SQLRecorder) Save(ctx context.Context, fb domain.Feedback) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertFeedback,
		fb.RequestID,
		string(fb.Function),
		fb.Input,
		fb.Response,
		fb.Model,
		fb.Rating,
		fb.Comments,
		fb.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("feedback: insert: %w", err)
	}
	r.logger.Info().Str("request_id", fb.RequestID).Msg("feedback: saved")
	return nil
}

func (r *SQLRecorder) Summary(ctx context.Context) ([]Summary, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QFeedbackSummary)
	if err != nil {
		return nil, fmt.Errorf("feedback: summary: %w", err)
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			s  Summary
			fn string
		)
		if err := rows.Scan(&fn, &s.Total, &s.AverageRating); err != nil {
			return nil, fmt.Errorf("feedback: scan summary: %w", err)
		}
		s.Function = domain.FunctionID(fn)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feedback: summary rows: %w", err)
	}
	return out, nil
}

var _ Recorder = (*SQLRecorder)(nil)
