// Package feedback persists user ratings of completed requests, either as
// daily JSONL files or in Postgres.
package feedback

import (
	"context"
	"sort"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

// Recorder stores one feedback entry.
type Recorder interface {
	Save(ctx context.Context, fb domain.Feedback) error
	Summary(ctx context.Context) ([]Summary, error)
}

// Summary aggregates ratings for one function.
type Summary struct {
	Function      domain.FunctionID `json:"function"`
	Total         int               `json:"total"`
	AverageRating float64           `json:"average_rating"`
}

func summarize(entries []domain.Feedback) []Summary {
	type acc struct {
		total int
		sum   int
	}
	byFunction := make(map[domain.FunctionID]*acc)
	for _, fb := range entries {
		a, ok := byFunction[fb.Function]
		if !ok {
			a = &acc{}
			byFunction[fb.Function] = a
		}
		a.total++
		a.sum += fb.Rating
	}
	out := make([]Summary, 0, len(byFunction))
	for fn, a := range byFunction {
		out = append(out, Summary{
			Function:      fn,
			Total:         a.total,
			AverageRating: float64(a.sum) / float64(a.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Function < out[j].Function })
	return out
}
