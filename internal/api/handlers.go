package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/opsmesh/sre-agent/internal/config"
	"github.com/opsmesh/sre-agent/internal/executor"
	"github.com/opsmesh/sre-agent/internal/models"
	"github.com/opsmesh/sre-agent/internal/services"
	"github.com/opsmesh/sre-agent/internal/utils"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// DecisionRequest is the operator's incident submission.
type DecisionRequest struct {
	EventType    string         `json:"event_type"`
	Namespace    string         `json:"namespace"`
	ResourceName string         `json:"resource_name"`
	ResourceKind string         `json:"resource_kind"`
	EventData    map[string]any `json:"event_data"`
	Context      map[string]any `json:"context,omitempty"`
}

// DecisionResponse is the agent's verdict for one incident.
type DecisionResponse struct {
	Decision           string          `json:"decision"`
	Confidence         float64         `json:"confidence"`
	RecommendedActions []models.Action `json:"recommended_actions"`
	Reasoning          string          `json:"reasoning"`
	CorrelationID      string          `json:"correlation_id"`
}

// ExecutionRequest asks for approved actions to be applied.
type ExecutionRequest struct {
	CorrelationID string          `json:"correlation_id"`
	Actions       []models.Action `json:"actions"`
	DryRun        bool            `json:"dry_run"`
	Approved      bool            `json:"approved"`
}

// ExecutionResponse reports the execution outcome.
type ExecutionResponse struct {
	CorrelationID     string           `json:"correlation_id"`
	Results           []map[string]any `json:"results"`
	Success           bool             `json:"success"`
	RollbackAvailable bool             `json:"rollback_available"`
}

// DecisionRecordResponse is one audit row in list responses.
type DecisionRecordResponse struct {
	CorrelationID     string   `json:"correlation_id"`
	Namespace         string   `json:"namespace"`
	ResourceName      string   `json:"resource_name"`
	ResourceKind      string   `json:"resource_kind"`
	Decision          string   `json:"decision"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	TerminationReason string   `json:"termination_reason"`
	IssueTypes        []string `json:"issue_types"`
	CreatedAt         string   `json:"created_at"`
}

// FeedbackRequest is an operator verdict on a past decision.
type FeedbackRequest struct {
	CorrelationID string `json:"correlation_id"`
	Correct       bool   `json:"correct"`
	Notes         string `json:"notes,omitempty"`
}

// PatternResponse is one mined incident signature.
type PatternResponse struct {
	Namespace  string  `json:"namespace"`
	IssueType  string  `json:"issue_type"`
	Count      int     `json:"count"`
	Prevalence float64 `json:"prevalence"`
	LastSeen   string  `json:"last_seen"`
}

// Handler serves the decision API.
type Handler struct {
	logger    *slog.Logger
	decisions *services.DecisionService
	executor  executor.ActionExecutor
	safety    config.SafetyConfig
}

func NewHandler(logger *slog.Logger, decisions *services.DecisionService, exec executor.ActionExecutor, safety config.SafetyConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, decisions: decisions, executor: exec, safety: safety}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/decide", h.decide).Methods(http.MethodPost)
	router.HandleFunc("/execute", h.execute).Methods(http.MethodPost)
	router.HandleFunc("/decisions", h.listDecisions).Methods(http.MethodGet)
	router.HandleFunc("/feedback", h.feedback).Methods(http.MethodPost)
	router.HandleFunc("/patterns", h.patterns).Methods(http.MethodGet)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Namespace == "" || req.ResourceName == "" {
		writeError(w, http.StatusBadRequest, "namespace and resource_name are required")
		return
	}

	h.logger.Info("received decision request",
		slog.String("event_type", req.EventType),
		slog.String("namespace", req.Namespace),
		slog.String("resource", req.ResourceName),
	)

	incident := models.Incident{
		EventType:    req.EventType,
		Namespace:    req.Namespace,
		ResourceName: req.ResourceName,
		ResourceKind: req.ResourceKind,
		EventData:    req.EventData,
		Context:      req.Context,
	}
	result := h.decisions.Decide(r.Context(), incident, "")

	writeJSON(w, http.StatusOK, DecisionResponse{
		Decision:           string(result.Decision),
		Confidence:         result.Confidence,
		RecommendedActions: actionsOrEmpty(result.RecommendedActions),
		Reasoning:          result.Reasoning,
		CorrelationID:      result.CorrelationID,
	})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	var req ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorrelationID == "" {
		writeError(w, http.StatusBadRequest, "correlation_id is required")
		return
	}
	if h.safety.MaxConcurrentActions > 0 && len(req.Actions) > h.safety.MaxConcurrentActions {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d actions per execution", h.safety.MaxConcurrentActions))
		return
	}

	dryRun := req.DryRun || h.safety.DryRun
	if !dryRun && h.safety.RequireHumanApproval && !req.Approved {
		writeError(w, http.StatusForbidden, "execution requires operator approval")
		return
	}
	result, err := h.executor.Execute(r.Context(), req.CorrelationID, req.Actions, dryRun)
	if err != nil && !errors.Is(err, executor.ErrNotImplemented) {
		h.logger.Error("execution failed",
			slog.String("correlation_id", req.CorrelationID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "execution failed")
		return
	}

	writeJSON(w, http.StatusOK, ExecutionResponse{
		CorrelationID:     result.CorrelationID,
		Results:           result.Results,
		Success:           result.Success,
		RollbackAvailable: result.RollbackAvailable,
	})
}

func (h *Handler) listDecisions(w http.ResponseWriter, r *http.Request) {
	req := models.ListDecisionsRequest{Namespace: r.URL.Query().Get("namespace")}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := utils.ParseRFC3339(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		req.Since = since
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		req.Limit = limit
	}

	records, err := h.decisions.ListDecisions(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "list decisions", err)
		return
	}

	out := make([]DecisionRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, DecisionRecordResponse{
			CorrelationID:     rec.CorrelationID,
			Namespace:         rec.Namespace,
			ResourceName:      rec.ResourceName,
			ResourceKind:      rec.ResourceKind,
			Decision:          string(rec.Decision),
			Confidence:        rec.Confidence,
			Reasoning:         rec.Reasoning,
			TerminationReason: rec.TerminationReason,
			IssueTypes:        rec.IssueTypes,
			CreatedAt:         rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": out})
}

func (h *Handler) feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorrelationID == "" {
		writeError(w, http.StatusBadRequest, "correlation_id is required")
		return
	}

	fb := models.Feedback{CorrelationID: req.CorrelationID, Correct: req.Correct, Notes: req.Notes}
	if err := h.decisions.SubmitFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, services.ErrUnknownCorrelation) {
			writeError(w, http.StatusNotFound, "unknown correlation_id")
			return
		}
		h.writeServiceError(w, "submit feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) patterns(w http.ResponseWriter, r *http.Request) {
	mined, err := h.decisions.Patterns(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		h.writeServiceError(w, "mine patterns", err)
		return
	}

	out := make([]PatternResponse, 0, len(mined))
	for _, p := range mined {
		out = append(out, PatternResponse{
			Namespace:  p.Namespace,
			IssueType:  p.IssueType,
			Count:      p.Count,
			Prevalence: p.Prevalence,
			LastSeen:   p.LastSeen.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": out})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, services.ErrHistoryDisabled) {
		writeError(w, http.StatusServiceUnavailable, "decision history not configured")
		return
	}
	h.logger.Error(op+" failed", slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func actionsOrEmpty(actions []models.Action) []models.Action {
	if actions == nil {
		return []models.Action{}
	}
	return actions
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
