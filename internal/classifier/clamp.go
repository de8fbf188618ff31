package classifier

import (
	"strings"

	"github.com/fixroute/backend/internal/models"
)

const (
	MinCost          = 50.0
	MaxCost          = 5000.0
	MinDurationHours = 0.5
)

// Clamp normalizes a classification received from an untrusted source. Fields
// outside their declared ranges are forced back in; unknown enum values fall
// back to safe defaults instead of failing the call.
func Clamp(c models.Classification) models.Classification {
	c.Category = normalizeCategory(string(c.Category))
	if !c.Severity.IsValid() {
		c.Severity = normalizeSeverity(string(c.Severity))
	}

	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}

	if c.EstimatedCost < MinCost {
		c.EstimatedCost = MinCost
	}
	if c.EstimatedCost > MaxCost {
		c.EstimatedCost = MaxCost
	}

	if c.EstimatedDuration < MinDurationHours {
		c.EstimatedDuration = MinDurationHours
	}

	return c
}

func normalizeCategory(value string) models.Category {
	v := models.Category(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", "_")))
	if v.IsValid() {
		return v
	}
	switch v {
	case "PEST", "PESTS":
		return models.CategoryPestControl
	case "HEATING", "COOLING", "AIR_CONDITIONING":
		return models.CategoryHVAC
	case "APPLIANCES":
		return models.CategoryAppliance
	default:
		return models.CategoryGeneral
	}
}

func normalizeSeverity(value string) models.Severity {
	v := models.Severity(strings.ToUpper(strings.TrimSpace(value)))
	if v.IsValid() {
		return v
	}
	switch v {
	case "CRITICAL", "EMERGENCY":
		return models.SeverityUrgent
	default:
		return models.SeverityMedium
	}
}
