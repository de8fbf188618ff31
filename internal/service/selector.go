package service

import (
	"fmt"

	"github.com/fixroute/backend/internal/models"
)

const (
	ReasonSelectedSpecialist = "SELECTED_SPECIALIST"
	ReasonSelectedGeneralist = "SELECTED_GENERALIST"
	ReasonNoActiveProviders  = "NO_ACTIVE_PROVIDERS"
)

type SelectionResult struct {
	Provider   *models.Provider
	Score      float64
	ReasonCode string
	ReasonText string
	Degraded   bool
	Ranked     []ScoredProvider
}

// SelectProvider picks the best active provider for a classified issue.
// Specialists for the issue category are preferred; when none exist the full
// active set is ranked instead so the issue is not dropped for lack of a
// specialist.
func SelectProvider(c models.Classification, providers []models.Provider, w ScoreWeights) SelectionResult {
	active := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Status == models.ProviderActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return SelectionResult{
			ReasonCode: ReasonNoActiveProviders,
			ReasonText: "no active providers",
		}
	}

	specialists := make([]models.Provider, 0, len(active))
	for _, p := range active {
		if p.HasSpecialty(c.Category) {
			specialists = append(specialists, p)
		}
	}

	pool := specialists
	degraded := false
	if len(pool) == 0 {
		pool = active
		degraded = true
	}

	ranked := RankProviders(c, pool, w)
	best := ranked[0]

	result := SelectionResult{
		Provider: &best.Provider,
		Score:    best.Score,
		Degraded: degraded,
		Ranked:   ranked,
	}
	if degraded {
		result.ReasonCode = ReasonSelectedGeneralist
		result.ReasonText = fmt.Sprintf("no %s specialist available, best generalist %s scored %.1f", c.Category, best.Provider.ID, best.Score)
	} else {
		result.ReasonCode = ReasonSelectedSpecialist
		result.ReasonText = fmt.Sprintf("%s specialist %s scored %.1f", c.Category, best.Provider.ID, best.Score)
	}
	return result
}
