package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/fixroute/backend/internal/models"
)

// keywordConfidence is deliberately conservative so downstream consumers can
// tell a keyword-derived classification from a remote one.
const keywordConfidence = 0.6

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryPlumbing, []string{"leak", "pipe", "faucet", "drip", "drain", "toilet", "water heater", "clog"}},
	{models.CategoryElectrical, []string{"outlet", "breaker", "wire", "wiring", "spark", "power out", "light fixture", "fuse"}},
	{models.CategoryHVAC, []string{"heat", "thermostat", "hvac", "furnace", "air condition", "ac unit", "cooling", "vent"}},
	{models.CategoryAppliance, []string{"refrigerator", "fridge", "dryer", "washer", "dishwasher", "oven", "stove", "microwave"}},
}

var urgencyKeywords = []string{"emergency", "flooding", "no heat", "urgent", "gas smell", "sewage"}

var breakageKeywords = []string{"broken", "not working", "stopped", "won't turn on", "doesn't work"}

var baseCosts = map[models.Category]float64{
	models.CategoryPlumbing:   175,
	models.CategoryElectrical: 200,
	models.CategoryHVAC:       250,
	models.CategoryAppliance:  150,
	models.CategoryGeneral:    100,
}

var baseDurations = map[models.Category]float64{
	models.CategoryPlumbing:   2,
	models.CategoryElectrical: 2,
	models.CategoryHVAC:       3,
	models.CategoryAppliance:  2,
	models.CategoryGeneral:    1,
}

// ClassifyByKeywords is the deterministic fallback classification path. It is
// a total function over all input strings: any text, including empty text,
// yields a valid low-confidence classification.
func ClassifyByKeywords(title, description string) models.Classification {
	text := strings.ToLower(title + " " + description)

	category := models.CategoryGeneral
	for _, ck := range categoryKeywords {
		if containsAny(text, ck.words) {
			category = ck.category
			break
		}
	}

	severity := models.SeverityMedium
	cost := baseCosts[category]
	switch {
	case containsAny(text, urgencyKeywords):
		severity = models.SeverityUrgent
		cost *= 1.5
	case containsAny(text, breakageKeywords):
		severity = models.SeverityHigh
		cost *= 1.2
	}

	return models.Classification{
		Category:          category,
		Severity:          severity,
		EstimatedCost:     cost,
		EstimatedDuration: baseDurations[category],
		Confidence:        keywordConfidence,
		Reasoning:         "keyword match on report text",
		Source:            SourceKeywords,
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// KeywordClassifier adapts ClassifyByKeywords to the Classifier interface.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(ctx context.Context, req Request) (models.Classification, int64, error) {
	c := ClassifyByKeywords(req.Title, req.Description)
	c.IssueID = req.IssueID
	c.CreatedAt = time.Now().UTC()
	return c, 0, nil
}
