package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/fixroute/backend/internal/models"
)

type ImportSummary struct {
	Issues struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"issues"`
	Providers struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"providers"`
	Rules struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"rules"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload issues, providers, and automation rules CSV files; replaces existing data
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param issues formData file true "issues.csv"
// @Param providers formData file true "providers.csv"
// @Param rules formData file true "rules.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	issuesFile, err := c.FormFile("issues")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "issues file required", nil)
		return
	}
	providersFile, err := c.FormFile("providers")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "providers file required", nil)
		return
	}
	rulesFile, err := c.FormFile("rules")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "rules file required", nil)
		return
	}

	if !validateExt(issuesFile.Filename) || !validateExt(providersFile.Filename) || !validateExt(rulesFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}
	ctx := c.Request.Context()

	issues, errs := parseIssuesCSV(issuesFile)
	summary.Issues.Parsed = len(issues)
	summary.Issues.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	providers, errs := parseProvidersCSV(providersFile)
	summary.Providers.Parsed = len(providers)
	summary.Providers.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	rules, errs := parseRulesCSV(rulesFile)
	summary.Rules.Parsed = len(rules)
	summary.Rules.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	err = h.Store.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE issues, providers, automation_rules, classifications, routing_decisions RESTART IDENTITY`)
		return err
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	inserted, err := h.Store.InsertIssues(ctx, issues)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert issues", err.Error())
		return
	}
	summary.Issues.Inserted = int(inserted)

	inserted, err = h.Store.InsertProviders(ctx, providers)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert providers", err.Error())
		return
	}
	summary.Providers.Inserted = int(inserted)

	inserted, err = h.Store.InsertRules(ctx, rules)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert rules", err.Error())
		return
	}
	summary.Rules.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

func validateExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func openCSV(fh *multipart.FileHeader) ([][]string, map[string]int, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: missing header row", fh.Filename)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", fh.Filename, err)
		}
		records = append(records, record)
	}
	return records, cols, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseIssuesCSV(fh *multipart.FileHeader) ([]models.Issue, []string) {
	records, cols, err := openCSV(fh)
	if err != nil {
		return nil, []string{err.Error()}
	}

	var issues []models.Issue
	var errs []string
	for i, record := range records {
		id := field(record, cols, "issue_id")
		if id == "" {
			id = field(record, cols, "id")
		}
		if id == "" {
			errs = append(errs, fmt.Sprintf("issues row %d: missing id", i+2))
			continue
		}
		title := field(record, cols, "title")
		if title == "" {
			errs = append(errs, fmt.Sprintf("issues row %d: missing title", i+2))
			continue
		}

		createdAt := time.Now().UTC()
		if raw := field(record, cols, "created_at"); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				createdAt = parsed
			} else {
				errs = append(errs, fmt.Sprintf("issues row %d: bad created_at %q", i+2, raw))
				continue
			}
		}

		issues = append(issues, models.Issue{
			ID:           id,
			CreatedAt:    createdAt,
			Title:        title,
			Description:  field(record, cols, "description"),
			PropertyType: field(record, cols, "property_type"),
		})
	}
	return issues, errs
}

func parseProvidersCSV(fh *multipart.FileHeader) ([]models.Provider, []string) {
	records, cols, err := openCSV(fh)
	if err != nil {
		return nil, []string{err.Error()}
	}

	var providers []models.Provider
	var errs []string
	for i, record := range records {
		id := field(record, cols, "provider_id")
		if id == "" {
			id = field(record, cols, "id")
		}
		if id == "" {
			errs = append(errs, fmt.Sprintf("providers row %d: missing id", i+2))
			continue
		}

		p := models.Provider{
			ID:        id,
			Name:      field(record, cols, "name"),
			Status:    models.ProviderStatus(strings.ToUpper(field(record, cols, "status"))),
			UpdatedAt: time.Now().UTC(),
		}
		if p.Status == "" {
			p.Status = models.ProviderActive
		}

		badSpecialty := false
		for _, raw := range strings.Split(field(record, cols, "specialties"), ";") {
			cat := models.Category(strings.ToUpper(strings.TrimSpace(raw)))
			if cat == "" {
				continue
			}
			if !cat.IsValid() {
				errs = append(errs, fmt.Sprintf("providers row %d: unknown specialty %q", i+2, raw))
				badSpecialty = true
				break
			}
			p.Specialties = append(p.Specialties, cat)
		}
		if badSpecialty {
			continue
		}

		if raw := field(record, cols, "rating"); raw != "" {
			rating, err := strconv.ParseFloat(raw, 64)
			if err != nil || rating < 0 || rating > 5 {
				errs = append(errs, fmt.Sprintf("providers row %d: bad rating %q", i+2, raw))
				continue
			}
			p.Rating = &rating
		}

		if raw := field(record, cols, "completed_jobs"); raw != "" {
			jobs, err := strconv.Atoi(raw)
			if err != nil || jobs < 0 {
				errs = append(errs, fmt.Sprintf("providers row %d: bad completed_jobs %q", i+2, raw))
				continue
			}
			p.CompletedJobs = jobs
		}

		p.IsPreferred = parseBool(field(record, cols, "is_preferred"))
		p.Availability = models.Availability{
			Immediate: parseBool(field(record, cols, "avail_immediate")),
			Within24h: parseBool(field(record, cols, "avail_within_24h")),
			Weekends:  parseBool(field(record, cols, "avail_weekends")),
		}

		providers = append(providers, p)
	}
	return providers, errs
}

func parseRulesCSV(fh *multipart.FileHeader) ([]models.AutomationRule, []string) {
	records, cols, err := openCSV(fh)
	if err != nil {
		return nil, []string{err.Error()}
	}

	var rules []models.AutomationRule
	var errs []string
	for i, record := range records {
		id := field(record, cols, "rule_id")
		if id == "" {
			id = field(record, cols, "id")
		}
		if id == "" {
			errs = append(errs, fmt.Sprintf("rules row %d: missing id", i+2))
			continue
		}

		r := models.AutomationRule{
			ID:       id,
			Name:     field(record, cols, "name"),
			Trigger:  models.RuleTrigger(strings.ToUpper(field(record, cols, "trigger"))),
			IsActive: parseBool(field(record, cols, "is_active")),
		}
		if r.Trigger == "" {
			r.Trigger = models.TriggerIssueCreated
		}

		if raw := field(record, cols, "priority"); raw != "" {
			priority, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, fmt.Sprintf("rules row %d: bad priority %q", i+2, raw))
				continue
			}
			r.Priority = priority
		}

		if raw := field(record, cols, "category"); raw != "" {
			cat := models.Category(strings.ToUpper(raw))
			if !cat.IsValid() {
				errs = append(errs, fmt.Sprintf("rules row %d: unknown category %q", i+2, raw))
				continue
			}
			r.Conditions.Category = &cat
		}
		if raw := field(record, cols, "severity"); raw != "" {
			sev := models.Severity(strings.ToUpper(raw))
			if !sev.IsValid() {
				errs = append(errs, fmt.Sprintf("rules row %d: unknown severity %q", i+2, raw))
				continue
			}
			r.Conditions.Severity = &sev
		}
		if raw := field(record, cols, "min_cost"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("rules row %d: bad min_cost %q", i+2, raw))
				continue
			}
			r.Conditions.MinCost = &v
		}
		if raw := field(record, cols, "max_cost"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("rules row %d: bad max_cost %q", i+2, raw))
				continue
			}
			r.Conditions.MaxCost = &v
		}

		r.Actions = models.RuleActions{
			AssignProviderID: field(record, cols, "assign_provider_id"),
			Notify:           parseBool(field(record, cols, "notify")),
			Escalate:         parseBool(field(record, cols, "escalate")),
		}

		rules = append(rules, r)
	}
	return rules, errs
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
