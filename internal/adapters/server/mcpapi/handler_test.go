package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/hylla/skillroute/internal/adapters/server/auth"
	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// stubRoadmapService provides deterministic responses for MCP tool tests.
type stubRoadmapService struct {
	envelope     common.RoadmapEnvelope
	progress     domain.ProgressRecord
	analysis     domain.GapAnalysis
	err          error
	lastUser     string
	lastProgress common.UpdateProgressRequest
	lastAnalyze  common.AnalyzeGapRequest
	lastLimit    int
	adapted      int
}

func (s *stubRoadmapService) Profile(_ context.Context, userID string) (domain.Profile, error) {
	s.lastUser = userID
	return domain.Profile{TargetRole: "SRE"}, s.err
}

func (s *stubRoadmapService) SaveProfile(_ context.Context, userID string, p domain.Profile) (domain.Profile, error) {
	s.lastUser = userID
	return p, s.err
}

func (s *stubRoadmapService) Roadmap(_ context.Context, userID string) (common.RoadmapEnvelope, error) {
	s.lastUser = userID
	if s.err != nil {
		return common.RoadmapEnvelope{}, s.err
	}
	return s.envelope, nil
}

func (s *stubRoadmapService) CreateRoadmap(_ context.Context, userID string, _ domain.Profile) (common.RoadmapEnvelope, error) {
	s.lastUser = userID
	return s.envelope, s.err
}

func (s *stubRoadmapService) UpdateProgress(_ context.Context, userID string, in common.UpdateProgressRequest) (domain.ProgressRecord, error) {
	s.lastUser = userID
	s.lastProgress = in
	return s.progress, s.err
}

func (s *stubRoadmapService) AdaptRoadmap(_ context.Context, userID string) error {
	s.lastUser = userID
	s.adapted++
	return s.err
}

func (s *stubRoadmapService) DeleteRoadmap(_ context.Context, userID string) error {
	s.lastUser = userID
	return s.err
}

func (s *stubRoadmapService) AdoptRoadmap(_ context.Context, userID string, _ common.AdoptRoadmapRequest) error {
	s.lastUser = userID
	return s.err
}

func (s *stubRoadmapService) AnalyzeGap(_ context.Context, userID string, in common.AnalyzeGapRequest) (domain.GapAnalysis, error) {
	s.lastUser = userID
	s.lastAnalyze = in
	return s.analysis, s.err
}

func (s *stubRoadmapService) ListGapAnalyses(_ context.Context, userID string, limit int) ([]common.GapAnalysisItem, error) {
	s.lastUser = userID
	s.lastLimit = limit
	return []common.GapAnalysisItem{}, s.err
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "skillroute-test",
				"version": "1.0.0",
			},
		},
	}
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// newTestServer starts the MCP handler behind a fixed-identity middleware.
func newTestServer(t *testing.T, service common.RoadmapService, userID string) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, service)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	withUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			r = r.WithContext(auth.WithUser(r.Context(), userID))
		}
		handler.ServeHTTP(w, r)
	})
	server := httptest.NewServer(withUser)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

func fiveStepEnvelope() common.RoadmapEnvelope {
	phases := make([]domain.Phase, 5)
	for i := range phases {
		phases[i] = domain.Phase{Name: string(rune('A' + i)), Status: domain.PhaseStatusPending}
	}
	phases[0].Status = domain.PhaseStatusCompleted
	phases[1].Status = domain.PhaseStatusCompleted
	return common.RoadmapEnvelope{
		Roadmap:  domain.Roadmap{Title: "Plan", Phases: phases},
		Progress: domain.ProgressRecord{CompletedPhaseCount: 2, TotalPhases: 5, StreakDays: 3},
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubRoadmapService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersTools verifies tool discovery lists every roadmap tool.
func TestHandlerRegistersTools(t *testing.T) {
	server := newTestServer(t, &stubRoadmapService{}, "u1")
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	names := make([]string, 0, len(toolsRaw))
	for _, raw := range toolsRaw {
		if tool, ok := raw.(map[string]any); ok {
			name, _ := tool["name"].(string)
			names = append(names, name)
		}
	}
	for _, required := range []string{
		"skillroute.get_profile",
		"skillroute.get_roadmap",
		"skillroute.get_progress",
		"skillroute.update_progress",
		"skillroute.adapt_roadmap",
		"skillroute.analyze_gap",
		"skillroute.list_gap_analyses",
	} {
		if !slices.Contains(names, required) {
			t.Fatalf("tool list missing %q: %#v", required, names)
		}
	}
}

// TestHandlerGetProgressTool verifies derived progress output.
func TestHandlerGetProgressTool(t *testing.T) {
	svc := &stubRoadmapService{envelope: fiveStepEnvelope()}
	server := newTestServer(t, svc, "u1")

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "skillroute.get_progress", map[string]any{}))
	structured := toolResultStructured(t, resp.Result)
	if structured["percentage"] != float64(40) {
		t.Fatalf("percentage = %#v, want 40", structured["percentage"])
	}
	current, _ := structured["current"].(map[string]any)
	next, _ := structured["next"].(map[string]any)
	if current["index"] != float64(2) || next["index"] != float64(3) {
		t.Fatalf("current = %#v next = %#v, want 2 and 3", current, next)
	}
	if svc.lastUser != "u1" {
		t.Fatalf("user = %q, want u1", svc.lastUser)
	}
}

// TestHandlerUpdateProgressTool verifies argument mapping for progress updates.
func TestHandlerUpdateProgressTool(t *testing.T) {
	svc := &stubRoadmapService{progress: domain.ProgressRecord{CompletedPhaseCount: 3, TotalPhases: 5}}
	server := newTestServer(t, svc, "u1")

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "skillroute.update_progress", map[string]any{
		"phase_index": 2,
		"status":      "completed",
	}))
	structured := toolResultStructured(t, resp.Result)
	if structured["ok"] != true {
		t.Fatalf("ok = %#v, want true", structured["ok"])
	}
	if svc.lastProgress.PhaseIndex != 2 || svc.lastProgress.Status != domain.PhaseStatusCompleted {
		t.Fatalf("unexpected request %#v", svc.lastProgress)
	}
}

// TestHandlerAnalyzeGapTool verifies resume text is passed as a .txt upload.
func TestHandlerAnalyzeGapTool(t *testing.T) {
	svc := &stubRoadmapService{analysis: domain.GapAnalysis{ID: "ga-1", MatchPercentage: 75}}
	server := newTestServer(t, svc, "u1")

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "skillroute.analyze_gap", map[string]any{
		"resume_text":    "python",
		"jd_text":        "python docker",
		"hours_per_week": 6,
	}))
	structured := toolResultStructured(t, resp.Result)
	if structured["match_percentage"] != float64(75) {
		t.Fatalf("match_percentage = %#v, want 75", structured["match_percentage"])
	}
	if svc.lastAnalyze.ResumeName != defaultResumeName || svc.lastAnalyze.HoursPerWeek != 6 {
		t.Fatalf("unexpected analyze request %#v", svc.lastAnalyze)
	}
}

// TestHandlerToolErrors verifies error mapping and missing identity handling.
func TestHandlerToolErrors(t *testing.T) {
	svc := &stubRoadmapService{err: errors.Join(common.ErrNotFound, errors.New("no roadmap"))}
	server := newTestServer(t, svc, "u1")
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "skillroute.get_roadmap", map[string]any{}))
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "not_found:") {
		t.Fatalf("text = %q, want not_found prefix", text)
	}

	anon := newTestServer(t, &stubRoadmapService{}, "")
	_, resp = postJSONRPC(t, anon.Client(), anon.URL, callToolRequest(7, "skillroute.adapt_roadmap", map[string]any{}))
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "unauthorized:") {
		t.Fatalf("text = %q, want unauthorized prefix", text)
	}
}
