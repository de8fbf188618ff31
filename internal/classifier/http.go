package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fixroute/backend/internal/models"
)

const defaultTimeout = 10 * time.Second

// HTTPClassifier calls a remote language-understanding service. The request
// carries the issue text plus the fixed taxonomy, and the response must match
// the declared schema; anything else is returned as an error so the caller can
// degrade to the keyword path.
type HTTPClassifier struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

type classifyRequest struct {
	IssueID      string   `json:"issue_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	PropertyType string   `json:"property_type,omitempty"`
	Categories   []string `json:"categories"`
	Severities   []string `json:"severities"`
}

type classifyResponse struct {
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	EstimatedCost     float64  `json:"estimated_cost"`
	EstimatedDuration float64  `json:"estimated_duration_hours"`
	Confidence        *float64 `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	ModelVersion      string   `json:"model_version"`
}

func (h HTTPClassifier) Classify(ctx context.Context, req Request) (models.Classification, int64, error) {
	client := h.Client
	if client == nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	payload := classifyRequest{
		IssueID:      req.IssueID,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Categories:   categoryNames(),
		Severities: []string{
			string(models.SeverityLow), string(models.SeverityMedium),
			string(models.SeverityHigh), string(models.SeverityUrgent),
		},
	}
	b, _ := json.Marshal(payload)
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/classify", bytes.NewReader(b))
	if err != nil {
		return models.Classification{}, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return models.Classification{}, time.Since(start).Milliseconds(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Classification{}, time.Since(start).Milliseconds(), fmt.Errorf("classifier service error: %s", resp.Status)
	}

	var r classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Classification{}, time.Since(start).Milliseconds(), err
	}
	if r.Category == "" || r.Confidence == nil {
		return models.Classification{}, time.Since(start).Milliseconds(), errors.New("classifier response missing required fields")
	}

	c := Clamp(models.Classification{
		IssueID:           req.IssueID,
		Category:          models.Category(r.Category),
		Severity:          models.Severity(r.Severity),
		EstimatedCost:     r.EstimatedCost,
		EstimatedDuration: r.EstimatedDuration,
		Confidence:        *r.Confidence,
		Reasoning:         r.Reasoning,
		Source:            SourceRemote,
		ModelVersion:      r.ModelVersion,
	})
	c.CreatedAt = time.Now().UTC()
	return c, time.Since(start).Milliseconds(), nil
}

func categoryNames() []string {
	cats := models.Categories()
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, string(c))
	}
	return out
}
