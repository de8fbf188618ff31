package classifier

import (
	"context"

	"github.com/fixroute/backend/internal/models"
)

const (
	SourceRemote   = "remote"
	SourceKeywords = "keywords"
	SourceMock     = "mock"
)

type Request struct {
	IssueID      string
	Title        string
	Description  string
	PropertyType string
}

// Classifier maps free-text issue reports to a structured classification.
// Implementations return the classification together with the call latency in
// milliseconds.
type Classifier interface {
	Classify(ctx context.Context, req Request) (models.Classification, int64, error)
}
