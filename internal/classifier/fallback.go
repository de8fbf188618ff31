package classifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/models"
)

// WithFallback wraps a primary classifier and degrades to the keyword path on
// any failure, including timeout and caller cancellation. Classify on the
// wrapper never returns an error: a decision is always produced, possibly with
// lower confidence.
type WithFallback struct {
	Primary Classifier
	Logger  zerolog.Logger
}

func (w WithFallback) Classify(ctx context.Context, req Request) (models.Classification, int64, error) {
	result, latency, primaryErr := w.Primary.Classify(ctx, req)
	if primaryErr == nil {
		return result, latency, nil
	}

	w.Logger.Warn().
		Err(primaryErr).
		Str("issue_id", req.IssueID).
		Msg("remote classification failed, using keyword fallback")

	// Fallback is pure and must not be tied to the (possibly cancelled)
	// request context.
	return KeywordClassifier{}.Classify(context.Background(), req)
}
