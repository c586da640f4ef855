package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	requirementengine "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine"
	compliancedomainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	compliancehttp "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/transport/http"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/obs"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	compliance requirementengine.Module
}

func New(
	compliance requirementengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		compliance: compliance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, obs.Instrument(s.mux))
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("/metrics", obs.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/compliance/v1/users/{user_id}/requirements/{requirement_id}/transition", s.handleTransitionRequirement)
	s.mux.HandleFunc("POST /api/compliance/v1/users/{user_id}/tier", s.handleSwitchTier)
	s.mux.HandleFunc("POST /api/compliance/v1/users/{user_id}/role", s.handleChangeRole)
	s.mux.HandleFunc("POST /api/compliance/v1/users/{user_id}/deactivate", s.handleDeactivateUser)
	s.mux.HandleFunc("GET /api/compliance/v1/users/{user_id}/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/compliance/v1/users/{user_id}/requirements", s.handleListRequirements)
	s.mux.HandleFunc("GET /api/compliance/v1/users/{user_id}/tier-status", s.handleTierStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransitionRequirement(w http.ResponseWriter, r *http.Request) {
	performedBy := r.Header.Get("X-User-Id")
	if performedBy == "" {
		writeComplianceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req compliancehttp.TransitionRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeComplianceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.compliance.Handler.TransitionRequirementHandler(
		r.Context(),
		r.PathValue("user_id"),
		r.PathValue("requirement_id"),
		r.Header.Get("Idempotency-Key"),
		performedBy,
		req,
	)
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSwitchTier(w http.ResponseWriter, r *http.Request) {
	performedBy := r.Header.Get("X-User-Id")
	if performedBy == "" {
		writeComplianceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req compliancehttp.SwitchTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeComplianceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.compliance.Handler.SwitchTierHandler(
		r.Context(),
		r.PathValue("user_id"),
		r.Header.Get("Idempotency-Key"),
		performedBy,
		req,
	)
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	performedBy := r.Header.Get("X-User-Id")
	if performedBy == "" {
		writeComplianceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req compliancehttp.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeComplianceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.compliance.Handler.ChangeRoleHandler(
		r.Context(),
		r.PathValue("user_id"),
		r.Header.Get("Idempotency-Key"),
		performedBy,
		req,
	)
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	performedBy := r.Header.Get("X-User-Id")
	if performedBy == "" {
		writeComplianceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req compliancehttp.DeactivateUserRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeComplianceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.compliance.Handler.DeactivateUserHandler(
		r.Context(),
		r.PathValue("user_id"),
		r.Header.Get("Idempotency-Key"),
		performedBy,
		req,
	)
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.compliance.Handler.SummaryHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	includeInactive := strings.EqualFold(r.URL.Query().Get("include_inactive"), "true")
	resp, err := s.compliance.Handler.ListRequirementsHandler(r.Context(), r.PathValue("user_id"), includeInactive)
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTierStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.compliance.Handler.TierStatusHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeComplianceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeComplianceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, compliancedomainerrors.ErrInvalidRequest):
		writeComplianceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrInvalidStatus):
		writeComplianceError(w, http.StatusUnprocessableEntity, "invalid_status", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrUnknownRole):
		writeComplianceError(w, http.StatusUnprocessableEntity, "unknown_role", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrUnknownTier):
		writeComplianceError(w, http.StatusUnprocessableEntity, "unknown_tier", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrUserNotFound),
		errors.Is(err, compliancedomainerrors.ErrRecordNotFound),
		errors.Is(err, compliancedomainerrors.ErrAssignmentNotFound),
		errors.Is(err, compliancedomainerrors.ErrTemplateNotFound):
		writeComplianceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrUserDeactivated):
		writeComplianceError(w, http.StatusConflict, "user_deactivated", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrVersionConflict):
		writeComplianceError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrIdempotencyKeyRequired):
		writeComplianceError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, compliancedomainerrors.ErrIdempotencyConflict):
		writeComplianceError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeComplianceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeComplianceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, compliancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
