package classifier

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/fixroute/backend/internal/models"
)

// MockClassifier produces deterministic hash-derived classifications for local
// development when no remote classifier is configured.
type MockClassifier struct {
	ModelVersion string
}

func (m MockClassifier) Classify(ctx context.Context, req Request) (models.Classification, int64, error) {
	start := time.Now()
	h := hashString(req.IssueID + req.Title)

	categories := models.Categories()
	severities := []models.Severity{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityUrgent,
	}

	category := categories[h%uint64(len(categories))]
	severity := severities[(h/7)%uint64(len(severities))]
	cost := float64(100 + h%900)
	confidence := 0.75
	if h%5 == 0 {
		confidence = 0.62
	}

	c := Clamp(models.Classification{
		IssueID:           req.IssueID,
		Category:          category,
		Severity:          severity,
		EstimatedCost:     cost,
		EstimatedDuration: float64(1 + h%6),
		Confidence:        confidence,
		Reasoning:         fmt.Sprintf("mock classification for issue %s", req.IssueID),
		Source:            SourceMock,
		ModelVersion:      m.ModelVersion,
	})
	c.CreatedAt = time.Now().UTC()
	return c, time.Since(start).Milliseconds(), nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
