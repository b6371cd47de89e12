package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/skillroute/internal/adapters/server/auth"
	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/domain"
)

// stubService provides deterministic roadmap responses for handler tests.
type stubService struct {
	profile      domain.Profile
	envelope     common.RoadmapEnvelope
	progress     domain.ProgressRecord
	analysis     domain.GapAnalysis
	items        []common.GapAnalysisItem
	err          error
	lastUser     string
	lastProfile  domain.Profile
	lastProgress common.UpdateProgressRequest
	lastAdopt    common.AdoptRoadmapRequest
	lastAnalyze  common.AnalyzeGapRequest
	lastLimit    int
	calls        int
}

func (s *stubService) record(userID string) error {
	s.lastUser = userID
	s.calls++
	return s.err
}

// Profile returns the configured profile.
func (s *stubService) Profile(_ context.Context, userID string) (domain.Profile, error) {
	if err := s.record(userID); err != nil {
		return domain.Profile{}, err
	}
	return s.profile, nil
}

// SaveProfile records and echoes the profile.
func (s *stubService) SaveProfile(_ context.Context, userID string, profile domain.Profile) (domain.Profile, error) {
	s.lastProfile = profile
	if err := s.record(userID); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Roadmap returns the configured envelope.
func (s *stubService) Roadmap(_ context.Context, userID string) (common.RoadmapEnvelope, error) {
	if err := s.record(userID); err != nil {
		return common.RoadmapEnvelope{}, err
	}
	return s.envelope, nil
}

// CreateRoadmap records the profile and returns the configured envelope.
func (s *stubService) CreateRoadmap(_ context.Context, userID string, profile domain.Profile) (common.RoadmapEnvelope, error) {
	s.lastProfile = profile
	if err := s.record(userID); err != nil {
		return common.RoadmapEnvelope{}, err
	}
	return s.envelope, nil
}

// UpdateProgress records the request and returns the configured progress.
func (s *stubService) UpdateProgress(_ context.Context, userID string, in common.UpdateProgressRequest) (domain.ProgressRecord, error) {
	s.lastProgress = in
	if err := s.record(userID); err != nil {
		return domain.ProgressRecord{}, err
	}
	return s.progress, nil
}

// AdaptRoadmap records the call.
func (s *stubService) AdaptRoadmap(_ context.Context, userID string) error {
	return s.record(userID)
}

// DeleteRoadmap records the call.
func (s *stubService) DeleteRoadmap(_ context.Context, userID string) error {
	return s.record(userID)
}

// AdoptRoadmap records the request.
func (s *stubService) AdoptRoadmap(_ context.Context, userID string, in common.AdoptRoadmapRequest) error {
	s.lastAdopt = in
	return s.record(userID)
}

// AnalyzeGap records the request and returns the configured analysis.
func (s *stubService) AnalyzeGap(_ context.Context, userID string, in common.AnalyzeGapRequest) (domain.GapAnalysis, error) {
	s.lastAnalyze = in
	if err := s.record(userID); err != nil {
		return domain.GapAnalysis{}, err
	}
	return s.analysis, nil
}

// ListGapAnalyses records the limit and returns the configured items.
func (s *stubService) ListGapAnalyses(_ context.Context, userID string, limit int) ([]common.GapAnalysisItem, error) {
	s.lastLimit = limit
	if err := s.record(userID); err != nil {
		return nil, err
	}
	return s.items, nil
}

// stubRecorder counts domain events.
type stubRecorder struct {
	progress []string
	matches  []float64
}

func (r *stubRecorder) RecordProgressUpdate(status string) { r.progress = append(r.progress, status) }
func (r *stubRecorder) ObserveGapMatch(pct float64)       { r.matches = append(r.matches, pct) }

func newTestHandler(t *testing.T, svc common.RoadmapService, rec Recorder) *Handler {
	t.Helper()
	h, err := NewHandler(svc, rec)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

// serve runs one request as user u1.
func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.WithUser(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

func testRoadmap() domain.Roadmap {
	return domain.Roadmap{
		Title: "SRE Roadmap",
		Phases: []domain.Phase{
			{Name: "Foundations", Status: domain.PhaseStatusCompleted},
			{Name: "Platform", Status: domain.PhaseStatusPending},
		},
		DurationMonths: 6,
	}
}

// TestHandlerGetRoadmap verifies the fetch envelope shape.
func TestHandlerGetRoadmap(t *testing.T) {
	svc := &stubService{envelope: common.RoadmapEnvelope{
		Roadmap:        testRoadmap(),
		Progress:       domain.ProgressRecord{CompletedPhaseCount: 1, TotalPhases: 2},
		CareerDecision: &domain.CareerDecision{TargetRole: "SRE", Summary: "ok"},
	}}
	rec := serve(newTestHandler(t, svc, nil), http.MethodGet, "/roadmap", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got common.RoadmapEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Roadmap.PhaseCount() != 2 || got.Progress.CompletedPhaseCount != 1 || got.CareerDecision == nil {
		t.Fatalf("unexpected envelope %#v", got)
	}
	if svc.lastUser != "u1" {
		t.Fatalf("user = %q, want u1", svc.lastUser)
	}
}

// TestHandlerErrorMapping verifies structured status mapping for service errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("missing")), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "invalid", err: errors.Join(common.ErrInvalidRequest, errors.New("bad")), wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "media", err: errors.Join(common.ErrUnsupportedMedia, errors.New("pdf")), wantStatus: http.StatusUnsupportedMediaType, wantCode: "unsupported_media"},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newTestHandler(t, &stubService{err: tc.err}, nil), http.MethodGet, "/profile", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decodeError(t, rec); got.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tc.wantCode)
			}
		})
	}
}

// TestHandlerRequiresUser verifies requests without identity are rejected.
func TestHandlerRequiresUser(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roadmap", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service calls = %d, want 0", svc.calls)
	}
}

// TestHandlerUpdateProgress verifies schema validation and recorder wiring.
func TestHandlerUpdateProgress(t *testing.T) {
	svc := &stubService{progress: domain.ProgressRecord{CompletedPhaseCount: 2, TotalPhases: 5}}
	recorder := &stubRecorder{}
	h := newTestHandler(t, svc, recorder)

	rec := serve(h, http.MethodPatch, "/progress", `{"phase_index":2,"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", rec.Code, rec.Body.String())
	}
	var got common.ProgressResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.OK || got.Progress.CompletedPhaseCount != 2 {
		t.Fatalf("unexpected response %#v", got)
	}
	if svc.lastProgress.PhaseIndex != 2 || svc.lastProgress.Status != domain.PhaseStatusCompleted {
		t.Fatalf("unexpected request %#v", svc.lastProgress)
	}
	if len(recorder.progress) != 1 || recorder.progress[0] != "completed" {
		t.Fatalf("recorded = %#v, want [completed]", recorder.progress)
	}

	for _, body := range []string{
		`{"phase_index":-1,"status":"completed"}`,
		`{"phase_index":1,"status":"done"}`,
		`{"phase_index":1}`,
		`{"phase_index":1.5,"status":"pending"}`,
		`{"phase_index":1,"status":"pending","extra":true}`,
		`{"phase_index":1,"status":"pending"} {}`,
	} {
		calls := svc.calls
		rec := serve(h, http.MethodPatch, "/progress", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s status = %d, want 400", body, rec.Code)
		}
		if svc.calls != calls {
			t.Fatalf("body %s reached the service", body)
		}
	}
}

// TestHandlerCreateAndSaveProfile verifies profile bodies pass validation.
func TestHandlerCreateAndSaveProfile(t *testing.T) {
	svc := &stubService{envelope: common.RoadmapEnvelope{Roadmap: testRoadmap()}}
	h := newTestHandler(t, svc, nil)

	rec := serve(h, http.MethodPost, "/roadmap", `{"target_role":"SRE","skills":["linux"],"hours_per_week":12}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastProfile.TargetRole != "SRE" || svc.lastProfile.HoursPerWeek != 12 {
		t.Fatalf("unexpected profile %#v", svc.lastProfile)
	}

	rec = serve(h, http.MethodPut, "/profile", `{"target_role":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank target status = %d, want 400", rec.Code)
	}
	rec = serve(h, http.MethodPut, "/profile", `{"target_role":"SRE","hours_per_week":81}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("hours status = %d, want 400", rec.Code)
	}
}

// TestHandlerAdoptRoadmap verifies adopt payload validation.
func TestHandlerAdoptRoadmap(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)

	payload, err := json.Marshal(common.AdoptRoadmapRequest{Title: "Gap plan", Roadmap: testRoadmap()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	rec := serve(h, http.MethodPost, "/roadmap/adopt", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastAdopt.Title != "Gap plan" || svc.lastAdopt.Roadmap.PhaseCount() != 2 {
		t.Fatalf("unexpected adopt request %#v", svc.lastAdopt)
	}

	rec = serve(h, http.MethodPost, "/roadmap/adopt", `{"title":"x","roadmap":{"title":"x","phases":[]}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty phases status = %d, want 400", rec.Code)
	}
}

// TestHandlerAnalyzeGapMultipart verifies multipart decoding of the analyze request.
func TestHandlerAnalyzeGapMultipart(t *testing.T) {
	svc := &stubService{analysis: domain.GapAnalysis{ID: "ga-1", MatchPercentage: 50}}
	recorder := &stubRecorder{}
	h := newTestHandler(t, svc, recorder)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("resume_file", "cv.txt")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	_, _ = part.Write([]byte("python sql"))
	_ = mw.WriteField("jd_text", "python docker")
	_ = mw.WriteField("hours_per_week", "8")
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze-gap", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(auth.WithUser(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastAnalyze.ResumeName != "cv.txt" || string(svc.lastAnalyze.Resume) != "python sql" {
		t.Fatalf("unexpected resume %#v", svc.lastAnalyze)
	}
	if svc.lastAnalyze.JDText != "python docker" || svc.lastAnalyze.HoursPerWeek != 8 {
		t.Fatalf("unexpected analyze fields %#v", svc.lastAnalyze)
	}
	if len(recorder.matches) != 1 || recorder.matches[0] != 50 {
		t.Fatalf("matches = %#v, want [50]", recorder.matches)
	}

	rec = serve(h, http.MethodPost, "/analyze-gap", "jd_text=go")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart status = %d, want 400", rec.Code)
	}
}

// TestHandlerListGapAnalyses verifies limit parsing and clamping.
func TestHandlerListGapAnalyses(t *testing.T) {
	svc := &stubService{items: []common.GapAnalysisItem{{ID: "a", AnalyzedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}}}
	h := newTestHandler(t, svc, nil)

	rec := serve(h, http.MethodGet, "/gap-analyses", "")
	if rec.Code != http.StatusOK || svc.lastLimit != defaultListLimit {
		t.Fatalf("status = %d limit = %d", rec.Code, svc.lastLimit)
	}
	var got common.GapAnalysisList
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "a" {
		t.Fatalf("unexpected items %#v", got.Items)
	}

	serve(h, http.MethodGet, "/gap-analyses?limit=500", "")
	if svc.lastLimit != maxListLimit {
		t.Fatalf("limit = %d, want %d", svc.lastLimit, maxListLimit)
	}
	if rec := serve(h, http.MethodGet, "/gap-analyses?limit=zero", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}
}

// TestHandlerRoutingErrors verifies 404 and 405 envelopes.
func TestHandlerRoutingErrors(t *testing.T) {
	h := newTestHandler(t, &stubService{}, nil)

	rec := serve(h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "route_not_found" {
		t.Fatalf("code = %q, want route_not_found", got.Code)
	}
	rec = serve(h, http.MethodPut, "/roadmap", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST, DELETE" {
		t.Fatalf("Allow = %q", allow)
	}
	for _, path := range []string{"/roadmap/adapt", "/roadmap"} {
		method := http.MethodPost
		if path == "/roadmap" {
			method = http.MethodDelete
		}
		rec := serve(h, method, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s status = %d, want 200", method, path, rec.Code)
		}
	}
}
