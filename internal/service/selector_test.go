package service

import (
	"testing"

	"github.com/fixroute/backend/internal/models"
)

func TestSelectProvider_SpecialistPreferred(t *testing.T) {
	c := models.Classification{Category: models.CategoryPlumbing, Severity: models.SeverityMedium}
	providers := []models.Provider{
		{ID: "plumber", Status: models.ProviderActive, Rating: floatPtr(4.8),
			Specialties: []models.Category{models.CategoryPlumbing}},
		{ID: "generalist", Status: models.ProviderActive, Rating: floatPtr(4.2)},
	}

	res := SelectProvider(c, providers, DefaultScoreWeights())
	if res.Provider == nil || res.Provider.ID != "plumber" {
		t.Fatalf("expected plumbing specialist, got %+v", res.Provider)
	}
	if res.Degraded {
		t.Fatal("specialist pass must not be marked degraded")
	}
	if res.ReasonCode != ReasonSelectedSpecialist {
		t.Fatalf("expected %s, got %s", ReasonSelectedSpecialist, res.ReasonCode)
	}
}

func TestSelectProvider_DegradedWhenNoSpecialist(t *testing.T) {
	c := models.Classification{Category: models.CategoryPestControl}
	providers := []models.Provider{
		{ID: "g1", Status: models.ProviderActive, Rating: floatPtr(4.0)},
		{ID: "g2", Status: models.ProviderActive, Rating: floatPtr(4.5)},
	}

	res := SelectProvider(c, providers, DefaultScoreWeights())
	if res.Provider == nil || res.Provider.ID != "g2" {
		t.Fatalf("expected best-rated generalist, got %+v", res.Provider)
	}
	if !res.Degraded || res.ReasonCode != ReasonSelectedGeneralist {
		t.Fatalf("expected degraded generalist match, got %s degraded=%v", res.ReasonCode, res.Degraded)
	}
}

func TestSelectProvider_IgnoresInactiveAndSuspended(t *testing.T) {
	c := models.Classification{Category: models.CategoryElectrical}
	providers := []models.Provider{
		{ID: "inactive", Status: models.ProviderInactive,
			Specialties: []models.Category{models.CategoryElectrical}, Rating: floatPtr(5)},
		{ID: "suspended", Status: models.ProviderSuspended,
			Specialties: []models.Category{models.CategoryElectrical}, Rating: floatPtr(5)},
		{ID: "active", Status: models.ProviderActive},
	}

	res := SelectProvider(c, providers, DefaultScoreWeights())
	if res.Provider == nil || res.Provider.ID != "active" {
		t.Fatalf("expected the only active provider, got %+v", res.Provider)
	}
}

func TestSelectProvider_NoActiveProviders(t *testing.T) {
	c := models.Classification{Category: models.CategoryCleaning}

	for _, providers := range [][]models.Provider{
		nil,
		{{ID: "p1", Status: models.ProviderInactive}},
	} {
		res := SelectProvider(c, providers, DefaultScoreWeights())
		if res.Provider != nil {
			t.Fatalf("expected no provider, got %+v", res.Provider)
		}
		if res.ReasonCode != ReasonNoActiveProviders || res.ReasonText == "" {
			t.Fatalf("expected %s with reason text, got %s %q", ReasonNoActiveProviders, res.ReasonCode, res.ReasonText)
		}
	}
}
