package service

import "github.com/fixroute/backend/internal/models"

// EvaluateRules returns the automation rule that decides the given event, or
// nil when no active rule matches. Among matching rules the highest priority
// wins; equal priorities are broken by the lowest rule id so evaluation is
// reproducible regardless of input order.
func EvaluateRules(c models.Classification, rules []models.AutomationRule, trigger models.RuleTrigger) *models.AutomationRule {
	var winner *models.AutomationRule
	for i := range rules {
		r := &rules[i]
		if !r.IsActive || r.Trigger != trigger {
			continue
		}
		if !ConditionsMatch(r.Conditions, c) {
			continue
		}
		if winner == nil ||
			r.Priority > winner.Priority ||
			(r.Priority == winner.Priority && r.ID < winner.ID) {
			winner = r
		}
	}
	return winner
}

// ConditionsMatch evaluates a rule predicate against a classification. Unset
// condition fields are wildcards.
func ConditionsMatch(cond models.RuleConditions, c models.Classification) bool {
	if cond.Category != nil && *cond.Category != c.Category {
		return false
	}
	if cond.Severity != nil && *cond.Severity != c.Severity {
		return false
	}
	if cond.MinCost != nil && c.EstimatedCost < *cond.MinCost {
		return false
	}
	if cond.MaxCost != nil && c.EstimatedCost > *cond.MaxCost {
		return false
	}
	return true
}
