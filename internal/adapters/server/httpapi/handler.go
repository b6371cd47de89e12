// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/skillroute/internal/adapters/server/auth"
	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// maxUploadBytes limits multipart analyze-gap uploads.
const maxUploadBytes int64 = 5 << 20

// defaultListLimit and maxListLimit bound gap-analysis listings.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Recorder receives domain events worth counting. Metrics implements it.
type Recorder interface {
	RecordProgressUpdate(status string)
	ObserveGapMatch(pct float64)
}

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	service  common.RoadmapService
	recorder Recorder
	schemas  requestSchemas
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over a roadmap service. recorder may be nil.
func NewHandler(service common.RoadmapService, recorder Recorder) (*Handler, error) {
	schemas, err := compileRequestSchemas()
	if err != nil {
		return nil, err
	}
	return &Handler{
		service:  service,
		recorder: recorder,
		schemas:  schemas,
	}, nil
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "roadmap service is not configured",
		})
		return
	}
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeErrorFrom(w, common.ErrUnauthorized)
		return
	}

	switch normalizePath(r.URL.Path) {
	case "profile":
		switch r.Method {
		case http.MethodGet:
			h.handleGetProfile(w, r, userID)
		case http.MethodPut:
			h.handleSaveProfile(w, r, userID)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	case "roadmap":
		switch r.Method {
		case http.MethodGet:
			h.handleGetRoadmap(w, r, userID)
		case http.MethodPost:
			h.handleCreateRoadmap(w, r, userID)
		case http.MethodDelete:
			h.handleDeleteRoadmap(w, r, userID)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
		}
	case "progress":
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w, http.MethodPatch)
			return
		}
		h.handleUpdateProgress(w, r, userID)
	case "roadmap/adapt":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAdaptRoadmap(w, r, userID)
	case "roadmap/adopt":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAdoptRoadmap(w, r, userID)
	case "analyze-gap":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAnalyzeGap(w, r, userID)
	case "gap-analyses":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListGapAnalyses(w, r, userID)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "route_not_found",
			Message: "endpoint not found",
		})
	}
}

// handleGetProfile serves GET `/profile`.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleSaveProfile serves PUT `/profile`.
func (h *Handler) handleSaveProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var in domain.Profile
	if err := decodeValidatedJSON(r.Context(), w, r, h.schemas.profile, &in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	saved, err := h.service.SaveProfile(r.Context(), userID, in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleGetRoadmap serves GET `/roadmap`.
func (h *Handler) handleGetRoadmap(w http.ResponseWriter, r *http.Request, userID string) {
	envelope, err := h.service.Roadmap(r.Context(), userID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

// handleCreateRoadmap serves POST `/roadmap`.
func (h *Handler) handleCreateRoadmap(w http.ResponseWriter, r *http.Request, userID string) {
	var in domain.Profile
	if err := decodeValidatedJSON(r.Context(), w, r, h.schemas.profile, &in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	envelope, err := h.service.CreateRoadmap(r.Context(), userID, in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope)
}

// handleDeleteRoadmap serves DELETE `/roadmap`.
func (h *Handler) handleDeleteRoadmap(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.service.DeleteRoadmap(r.Context(), userID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.OKResponse{OK: true})
}

// handleUpdateProgress serves PATCH `/progress`.
func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request, userID string) {
	var in common.UpdateProgressRequest
	if err := decodeValidatedJSON(r.Context(), w, r, h.schemas.progress, &in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	progress, err := h.service.UpdateProgress(r.Context(), userID, in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordProgressUpdate(string(in.Status))
	}
	writeJSON(w, http.StatusOK, common.ProgressResponse{OK: true, Progress: progress})
}

// handleAdaptRoadmap serves POST `/roadmap/adapt`.
func (h *Handler) handleAdaptRoadmap(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.service.AdaptRoadmap(r.Context(), userID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.OKResponse{OK: true})
}

// handleAdoptRoadmap serves POST `/roadmap/adopt`.
func (h *Handler) handleAdoptRoadmap(w http.ResponseWriter, r *http.Request, userID string) {
	var in common.AdoptRoadmapRequest
	if err := decodeValidatedJSON(r.Context(), w, r, h.schemas.adopt, &in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.service.AdoptRoadmap(r.Context(), userID, in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.OKResponse{OK: true})
}

// handleAnalyzeGap serves multipart POST `/analyze-gap`.
func (h *Handler) handleAnalyzeGap(w http.ResponseWriter, r *http.Request, userID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErrorFrom(w, fmt.Errorf("parse multipart form: %w", errors.Join(common.ErrInvalidRequest, err)))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("resume_file")
	if err != nil {
		writeErrorFrom(w, fmt.Errorf("resume_file is required: %w", errors.Join(common.ErrInvalidRequest, err)))
		return
	}
	defer file.Close()
	resume, err := io.ReadAll(file)
	if err != nil {
		writeErrorFrom(w, fmt.Errorf("read resume_file: %w", errors.Join(common.ErrInvalidRequest, err)))
		return
	}

	hours := 0
	if raw := strings.TrimSpace(r.FormValue("hours_per_week")); raw != "" {
		hours, err = strconv.Atoi(raw)
		if err != nil {
			writeErrorFrom(w, fmt.Errorf("hours_per_week must be an integer: %w", common.ErrInvalidRequest))
			return
		}
	}

	analysis, err := h.service.AnalyzeGap(r.Context(), userID, common.AnalyzeGapRequest{
		ResumeName:   header.Filename,
		Resume:       resume,
		JDText:       r.FormValue("jd_text"),
		HoursPerWeek: hours,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if h.recorder != nil {
		h.recorder.ObserveGapMatch(analysis.MatchPercentage)
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handleListGapAnalyses serves GET `/gap-analyses`.
func (h *Handler) handleListGapAnalyses(w http.ResponseWriter, r *http.Request, userID string) {
	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeErrorFrom(w, fmt.Errorf("limit must be a positive integer: %w", common.ErrInvalidRequest))
			return
		}
		limit = min(parsed, maxListLimit)
	}
	items, err := h.service.ListGapAnalyses(r.Context(), userID, limit)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.GapAnalysisList{Items: items})
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "unauthorized",
			Message: err.Error(),
			Hint:    "Send Authorization: Bearer <token>.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnsupportedMedia):
		writeJSONError(w, http.StatusUnsupportedMediaType, APIError{
			Code:    "unsupported_media",
			Message: err.Error(),
			Hint:    "Upload the resume as a .txt file.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrServiceUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeValidatedJSON reads one required JSON body, checks it against schema,
// and decodes it with strict shape checks.
func decodeValidatedJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := validateAgainst(schema, raw); err != nil {
		return fmt.Errorf("validate request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
