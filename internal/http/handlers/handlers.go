package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/db"
	"github.com/fixroute/backend/internal/models"
	"github.com/fixroute/backend/internal/notify"
	"github.com/fixroute/backend/internal/service"
)

type Handler struct {
	Store      *db.Store
	Classifier classifier.Classifier
	Dispatcher notify.Dispatcher
	Weights    service.ScoreWeights
	Validator  *validator.Validate
	Logger     zerolog.Logger
	AdminKey   string
}

func (h *Handler) router() *service.Router {
	return &service.Router{Classifier: h.Classifier, Weights: h.Weights, Logger: h.Logger}
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Process pending issues
// @Description Classify and route every issue without a decision
// @Tags process
// @Produce json
// @Param debug query bool false "include unrouted samples"
// @Success 200 {object} map[string]any
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	runID := uuid.NewString()
	if err := h.Store.CreateRun(c.Request.Context(), runID, service.RunStatusRunning); err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	processor := service.ProcessingService{
		Store:      h.Store,
		Router:     h.router(),
		Dispatcher: h.Dispatcher,
		Logger:     h.Logger,
	}
	debug := c.Query("debug") == "true"
	summary, err := processor.ProcessIssues(c.Request.Context(), debug)
	if err != nil {
		_ = h.Store.FinishRun(c.Request.Context(), runID, service.RunStatusError, nil)
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Routing run failed", err.Error())
		return
	}

	summaryJSON := marshalSummary(summary)
	if err := h.Store.FinishRun(c.Request.Context(), runID, service.RunStatusDone, summaryJSON); err != nil {
		h.Logger.Error().Err(err).Str("run_id", runID).Msg("failed to finish run")
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "summary": summary})
}

type routeRequest struct {
	Issue struct {
		ID           string `json:"id" validate:"required"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		PropertyType string `json:"property_type"`
	} `json:"issue" validate:"required"`
	Providers []models.Provider       `json:"providers"`
	Rules     []models.AutomationRule `json:"rules"`
}

// @Summary Route a single issue
// @Description Classify and route an ad-hoc issue against inline provider and rule snapshots without persisting anything
// @Tags route
// @Accept json
// @Produce json
// @Param request body routeRequest true "issue with snapshots"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/route [post]
func (h *Handler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "issue.id is required", err.Error())
		return
	}

	issue := models.Issue{
		ID:           req.Issue.ID,
		Title:        req.Issue.Title,
		Description:  req.Issue.Description,
		PropertyType: req.Issue.PropertyType,
	}
	result, err := h.router().Route(c.Request.Context(), issue, req.Providers, req.Rules)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Routing rejected the request", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decision":       result.Decision,
		"classification": result.Classification,
	})
}

// @Summary Re-route a stored issue
// @Description Re-run classification and routing for an issue against the current provider and rule snapshots
// @Tags route
// @Produce json
// @Param id path string true "issue id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/issues/{id}/reroute [post]
func (h *Handler) Reroute(c *gin.Context) {
	issueID := c.Param("id")
	ctx := c.Request.Context()

	issue, err := h.Store.GetIssue(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}

	providers, err := h.Store.ListProviders(ctx, "", "")
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load providers", err.Error())
		return
	}
	rules, err := h.Store.ListRules(ctx, true)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load rules", err.Error())
		return
	}

	result, err := h.router().Route(ctx, issue, providers, rules)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "ROUTING_ERROR", "Routing failed", err.Error())
		return
	}

	decision := result.Decision
	decision.ID = uuid.NewString()
	classification := result.Classification
	classification.ID = uuid.NewString()

	err = h.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := h.Store.UpsertClassification(ctx, tx, classification); err != nil {
			return err
		}
		return h.Store.UpsertRoutingDecision(ctx, tx, decision)
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save decision", err.Error())
		return
	}

	if err := h.Dispatcher.Dispatch(ctx, decision.Notifications); err != nil {
		h.Logger.Warn().Err(err).Str("issue_id", issueID).Msg("notification dispatch failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"decision":       decision,
		"classification": classification,
	})
}

// @Summary List issues
// @Tags issues
// @Produce json
// @Param category query string false "filter by category"
// @Param severity query string false "filter by severity"
// @Param source query string false "filter by decision source"
// @Param q query string false "search in title/description"
// @Success 200 {object} map[string]any
// @Router /api/issues [get]
func (h *Handler) IssuesList(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Store.ListIssues(c.Request.Context(),
		c.Query("category"), c.Query("severity"), c.Query("source"), c.Query("q"), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list issues", err.Error())
		return
	}
	if items == nil {
		items = []map[string]any{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Issue details
// @Tags issues
// @Produce json
// @Param id path string true "issue id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/issues/{id} [get]
func (h *Handler) IssueDetails(c *gin.Context) {
	details, err := h.Store.GetIssueDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}
	c.JSON(http.StatusOK, details)
}

// @Summary List providers
// @Tags providers
// @Produce json
// @Param status query string false "filter by status"
// @Param specialty query string false "filter by specialty category"
// @Success 200 {object} map[string]any
// @Router /api/providers [get]
func (h *Handler) ProvidersList(c *gin.Context) {
	providers, err := h.Store.ListProviders(c.Request.Context(), c.Query("status"), c.Query("specialty"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list providers", err.Error())
		return
	}
	if providers == nil {
		providers = []models.Provider{}
	}
	c.JSON(http.StatusOK, gin.H{"items": providers})
}

// @Summary List automation rules
// @Tags rules
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/rules [get]
func (h *Handler) RulesList(c *gin.Context) {
	rules, err := h.Store.ListRules(c.Request.Context(), false)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list rules", err.Error())
		return
	}
	if rules == nil {
		rules = []models.AutomationRule{}
	}
	c.JSON(http.StatusOK, gin.H{"items": rules})
}

// @Summary Latest routing run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs yet", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

// @Summary Score breakdown for an issue
// @Description Classify the stored issue and show the per-provider score ranking without persisting anything
// @Tags debug
// @Produce json
// @Param issue_id query string true "issue id"
// @Success 200 {object} map[string]any
// @Router /api/debug/score [get]
func (h *Handler) DebugScore(c *gin.Context) {
	issueID := c.Query("issue_id")
	if issueID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "issue_id query parameter required", nil)
		return
	}
	ctx := c.Request.Context()

	issue, err := h.Store.GetIssue(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}

	classification, _, err := h.Classifier.Classify(ctx, classifier.Request{
		IssueID:      issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		PropertyType: issue.PropertyType,
	})
	if err != nil {
		classification = classifier.ClassifyByKeywords(issue.Title, issue.Description)
		classification.IssueID = issue.ID
	}

	providers, err := h.Store.ListProviders(ctx, string(models.ProviderActive), "")
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list providers", err.Error())
		return
	}

	ranked := service.RankProviders(classification, providers, h.Weights)
	c.JSON(http.StatusOK, gin.H{
		"classification": classification,
		"weights":        h.Weights,
		"ranked":         ranked,
	})
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func marshalSummary(summary service.RunSummary) []byte {
	b, err := json.Marshal(summary)
	if err != nil {
		return nil
	}
	return b
}
