package service

import (
	"testing"

	"github.com/fixroute/backend/internal/models"
)

func categoryPtr(c models.Category) *models.Category { return &c }
func severityPtr(s models.Severity) *models.Severity { return &s }

func TestEvaluateRules_HighestPriorityWins(t *testing.T) {
	c := models.Classification{Category: models.CategoryElectrical, Severity: models.SeverityUrgent, EstimatedCost: 300}
	rules := []models.AutomationRule{
		{ID: "r1", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 10,
			Actions: models.RuleActions{AssignProviderID: "P1"}},
		{ID: "r2", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 15,
			Conditions: models.RuleConditions{
				Category: categoryPtr(models.CategoryElectrical),
				Severity: severityPtr(models.SeverityUrgent),
			},
			Actions: models.RuleActions{AssignProviderID: "P9"}},
	}

	winner := EvaluateRules(c, rules, models.TriggerIssueCreated)
	if winner == nil || winner.ID != "r2" {
		t.Fatalf("expected r2 to win, got %+v", winner)
	}

	// Same result regardless of list order.
	reversed := []models.AutomationRule{rules[1], rules[0]}
	winner = EvaluateRules(c, reversed, models.TriggerIssueCreated)
	if winner == nil || winner.ID != "r2" {
		t.Fatalf("expected r2 to win for reversed order, got %+v", winner)
	}
}

func TestEvaluateRules_TieBrokenByLowestID(t *testing.T) {
	c := models.Classification{Category: models.CategoryGeneral, Severity: models.SeverityMedium}
	rules := []models.AutomationRule{
		{ID: "r9", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 5},
		{ID: "r2", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 5},
	}
	winner := EvaluateRules(c, rules, models.TriggerIssueCreated)
	if winner == nil || winner.ID != "r2" {
		t.Fatalf("expected lowest id to break tie, got %+v", winner)
	}
}

func TestEvaluateRules_InactiveAndWrongTriggerSkipped(t *testing.T) {
	c := models.Classification{Category: models.CategoryGeneral, Severity: models.SeverityLow}
	rules := []models.AutomationRule{
		{ID: "r1", Trigger: models.TriggerIssueCreated, IsActive: false, Priority: 100},
		{ID: "r2", Trigger: "ISSUE_UPDATED", IsActive: true, Priority: 100},
	}
	if winner := EvaluateRules(c, rules, models.TriggerIssueCreated); winner != nil {
		t.Fatalf("expected no winner, got %+v", winner)
	}
}

func TestConditionsMatch_CostRange(t *testing.T) {
	cond := models.RuleConditions{MinCost: floatPtr(100), MaxCost: floatPtr(500)}

	cases := []struct {
		cost float64
		want bool
	}{
		{50, false},
		{100, true},
		{300, true},
		{500, true},
		{501, false},
	}
	for _, tc := range cases {
		got := ConditionsMatch(cond, models.Classification{EstimatedCost: tc.cost})
		if got != tc.want {
			t.Fatalf("cost %f: expected %v, got %v", tc.cost, tc.want, got)
		}
	}
}

func TestConditionsMatch_UnsetFieldsAreWildcards(t *testing.T) {
	c := models.Classification{Category: models.CategoryPayment, Severity: models.SeverityLow, EstimatedCost: 9999}
	if !ConditionsMatch(models.RuleConditions{}, c) {
		t.Fatal("empty conditions must match everything")
	}
	if ConditionsMatch(models.RuleConditions{Category: categoryPtr(models.CategoryHVAC)}, c) {
		t.Fatal("category mismatch must not match")
	}
}
