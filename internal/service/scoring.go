package service

import (
	"sort"

	"github.com/fixroute/backend/internal/models"
)

// ScoreWeights controls the provider suitability score on a 100-point scale.
// The defaults are heuristic; operators can retune them through configuration
// without touching the ranking semantics.
type ScoreWeights struct {
	Specialty     float64 `json:"specialty"`
	RatingMax     float64 `json:"rating_max"`
	Preferred     float64 `json:"preferred"`
	ExperienceMax float64 `json:"experience_max"`
	Availability  float64 `json:"availability"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Specialty:     40,
		RatingMax:     25,
		Preferred:     20,
		ExperienceMax: 10,
		Availability:  15,
	}
}

const (
	ratingScale       = 5.0
	jobsPerExperience = 10.0
)

// ScoreProvider computes the suitability of a provider for a classified issue.
// Pure function: callers filter out ineligible providers before scoring.
func ScoreProvider(c models.Classification, p models.Provider, w ScoreWeights) float64 {
	score := 0.0

	if p.HasSpecialty(c.Category) {
		score += w.Specialty
	}

	if p.Rating != nil {
		rating := *p.Rating
		if rating < 0 {
			rating = 0
		}
		if rating > ratingScale {
			rating = ratingScale
		}
		score += rating / ratingScale * w.RatingMax
	}

	if p.IsPreferred {
		score += w.Preferred
	}

	experience := float64(p.CompletedJobs) / jobsPerExperience
	if experience > w.ExperienceMax {
		experience = w.ExperienceMax
	}
	score += experience

	if p.Availability.Immediate || p.Availability.Within24h {
		score += w.Availability
	}

	return score
}

type ScoredProvider struct {
	Provider models.Provider `json:"provider"`
	Score    float64         `json:"score"`
}

// RankProviders scores and orders candidates: score descending, provider id
// ascending on ties, so identical input always yields the same order.
func RankProviders(c models.Classification, providers []models.Provider, w ScoreWeights) []ScoredProvider {
	ranked := make([]ScoredProvider, 0, len(providers))
	for _, p := range providers {
		ranked = append(ranked, ScoredProvider{Provider: p, Score: ScoreProvider(c, p, w)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].Provider.ID < ranked[j].Provider.ID
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
