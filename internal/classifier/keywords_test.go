package classifier

import (
	"testing"

	"github.com/fixroute/backend/internal/models"
)

func TestClassifyByKeywords_Plumbing(t *testing.T) {
	c := ClassifyByKeywords("Leaky Faucet", "dripping kitchen faucet for a week")
	if c.Category != models.CategoryPlumbing {
		t.Fatalf("expected PLUMBING, got %s", c.Category)
	}
	if c.Severity != models.SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", c.Severity)
	}
	if c.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %f", c.Confidence)
	}
}

func TestClassifyByKeywords_UrgencyEscalation(t *testing.T) {
	c := ClassifyByKeywords("Bathroom flooding", "water everywhere, emergency")
	if c.Category != models.CategoryPlumbing {
		t.Fatalf("expected PLUMBING, got %s", c.Category)
	}
	if c.Severity != models.SeverityUrgent {
		t.Fatalf("expected URGENT, got %s", c.Severity)
	}
	if c.EstimatedCost != baseCosts[models.CategoryPlumbing]*1.5 {
		t.Fatalf("expected urgency cost multiplier, got %f", c.EstimatedCost)
	}
}

func TestClassifyByKeywords_BreakageEscalation(t *testing.T) {
	c := ClassifyByKeywords("Dryer issue", "the dryer is broken")
	if c.Category != models.CategoryAppliance {
		t.Fatalf("expected APPLIANCE, got %s", c.Category)
	}
	if c.Severity != models.SeverityHigh {
		t.Fatalf("expected HIGH, got %s", c.Severity)
	}
	if c.EstimatedCost != baseCosts[models.CategoryAppliance]*1.2 {
		t.Fatalf("expected breakage cost multiplier, got %f", c.EstimatedCost)
	}
}

func TestClassifyByKeywords_CategoryPriorityOrder(t *testing.T) {
	// Text matching both plumbing and electrical keywords resolves to the
	// earlier category in the fixed order.
	c := ClassifyByKeywords("Leak near outlet", "water leak next to the wall outlet")
	if c.Category != models.CategoryPlumbing {
		t.Fatalf("expected PLUMBING to win priority order, got %s", c.Category)
	}
}

func TestClassifyByKeywords_TotalOverAllInputs(t *testing.T) {
	inputs := []struct{ title, description string }{
		{"", ""},
		{"   ", "\n\t"},
		{"unrelated gibberish", "xyzzy quux"},
		{"ЖКХ", "протечка"},
	}
	for _, in := range inputs {
		c := ClassifyByKeywords(in.title, in.description)
		if !c.Category.IsValid() {
			t.Fatalf("invalid category %q for input %q/%q", c.Category, in.title, in.description)
		}
		if !c.Severity.IsValid() {
			t.Fatalf("invalid severity %q for input %q/%q", c.Severity, in.title, in.description)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			t.Fatalf("confidence out of range: %f", c.Confidence)
		}
	}
}

func TestClassifyByKeywords_Deterministic(t *testing.T) {
	a := ClassifyByKeywords("No heat in unit 4B", "thermostat shows 55F")
	b := ClassifyByKeywords("No heat in unit 4B", "thermostat shows 55F")
	if a != b {
		t.Fatalf("expected identical classifications, got %+v vs %+v", a, b)
	}
	if a.Severity != models.SeverityUrgent {
		t.Fatalf("expected no-heat to escalate to URGENT, got %s", a.Severity)
	}
}
