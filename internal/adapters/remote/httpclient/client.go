// Package httpclient implements the roadmap remote over the JSON HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

// defaultTimeout bounds one request when no timeout is configured.
const defaultTimeout = 15 * time.Second

// maxErrorBodyBytes bounds how much of a failed response is read.
const maxErrorBodyBytes = 64 << 10

// ErrInvalidConfig reports unusable client settings.
var ErrInvalidConfig = errors.New("invalid client config")

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	Token(context.Context) (string, error)
}

// StaticToken is a TokenSource returning one fixed token.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// APIError is one structured failure returned by the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Error renders the status, code, and message.
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("http %d", e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// errorEnvelope mirrors the server's error body.
type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Config defines client settings.
type Config struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one roadmap API endpoint.
type Client struct {
	baseURL *url.URL
	tokens  TokenSource
	http    *http.Client
}

var _ app.Remote = (*Client)(nil)

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, raw)
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("%w: token source is required", ErrInvalidConfig)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, tokens: cfg.Tokens, http: httpClient}, nil
}

// FetchProfile returns the saved profile, or nil when none exists.
func (c *Client) FetchProfile(ctx context.Context) (*domain.Profile, error) {
	var profile domain.Profile
	found, err := c.getOptional(ctx, "/profile", &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile stores profile and returns the normalized copy.
func (c *Client) SaveProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	var saved domain.Profile
	if err := c.doJSON(ctx, http.MethodPut, "/profile", profile, &saved); err != nil {
		return domain.Profile{}, err
	}
	return saved, nil
}

// FetchRoadmap returns the active roadmap, or nil when none exists.
func (c *Client) FetchRoadmap(ctx context.Context) (*app.RoadmapPayload, error) {
	var envelope common.RoadmapEnvelope
	found, err := c.getOptional(ctx, "/roadmap", &envelope)
	if err != nil || !found {
		return nil, err
	}
	payload := payloadFromEnvelope(envelope)
	return &payload, nil
}

// CreateRoadmap generates a roadmap from profile on the server.
func (c *Client) CreateRoadmap(ctx context.Context, profile domain.Profile) (app.RoadmapPayload, error) {
	var envelope common.RoadmapEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/roadmap", profile, &envelope); err != nil {
		return app.RoadmapPayload{}, err
	}
	return payloadFromEnvelope(envelope), nil
}

// UpdateProgress sets the status of the phase at index and returns the
// server-maintained progress.
func (c *Client) UpdateProgress(ctx context.Context, index int, status domain.PhaseStatus) (domain.ProgressRecord, error) {
	body := common.UpdateProgressRequest{PhaseIndex: index, Status: status}
	var out common.ProgressResponse
	if err := c.doJSON(ctx, http.MethodPatch, "/progress", body, &out); err != nil {
		return domain.ProgressRecord{}, err
	}
	return out.Progress, nil
}

// AdaptRoadmap asks the server to re-plan pending phases.
func (c *Client) AdaptRoadmap(ctx context.Context) error {
	var out common.OKResponse
	return c.doJSON(ctx, http.MethodPost, "/roadmap/adapt", nil, &out)
}

// DeleteRoadmap removes the active roadmap.
func (c *Client) DeleteRoadmap(ctx context.Context) error {
	var out common.OKResponse
	return c.doJSON(ctx, http.MethodDelete, "/roadmap", nil, &out)
}

// AdoptRoadmap installs roadmap under title as the active roadmap.
func (c *Client) AdoptRoadmap(ctx context.Context, roadmap domain.Roadmap, title string) error {
	var out common.OKResponse
	return c.doJSON(ctx, http.MethodPost, "/roadmap/adopt", common.AdoptRoadmapRequest{Title: title, Roadmap: roadmap}, &out)
}

// AnalyzeSkillGap uploads a resume and job description for analysis.
func (c *Client) AnalyzeSkillGap(ctx context.Context, in app.AnalyzeRequest) (domain.GapAnalysis, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	name := strings.TrimSpace(in.ResumeName)
	if name == "" {
		name = "resume.txt"
	}
	part, err := form.CreateFormFile("resume_file", name)
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("build analyze form: %w", err)
	}
	if _, err := part.Write(in.Resume); err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("build analyze form: %w", err)
	}
	if err := form.WriteField("jd_text", in.JDText); err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("build analyze form: %w", err)
	}
	if in.HoursPerWeek > 0 {
		if err := form.WriteField("hours_per_week", strconv.Itoa(in.HoursPerWeek)); err != nil {
			return domain.GapAnalysis{}, fmt.Errorf("build analyze form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("build analyze form: %w", err)
	}

	var analysis domain.GapAnalysis
	if err := c.do(ctx, http.MethodPost, "/analyze-gap", form.FormDataContentType(), &buf, &analysis); err != nil {
		return domain.GapAnalysis{}, err
	}
	return analysis, nil
}

// ListGapAnalyses returns up to limit stored analyses, newest first.
func (c *Client) ListGapAnalyses(ctx context.Context, limit int) ([]common.GapAnalysisItem, error) {
	path := "/gap-analyses"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out common.GapAnalysisList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// notFoundCode is the envelope code the server uses for a missing resource.
// Other 404s, such as an unknown route, stay failures.
const notFoundCode = "not_found"

// getOptional performs a GET that treats a missing resource as absent.
func (c *Client) getOptional(ctx context.Context, path string, out any) (bool, error) {
	err := c.doJSON(ctx, http.MethodGet, path, nil, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && apiErr.Code == notFoundCode {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// doJSON encodes body as JSON when present and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	if body == nil {
		return c.do(ctx, method, path, "", nil, out)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s %s body: %w", method, path, err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(encoded), out)
}

// do sends one authenticated request. Every failure wraps app.ErrRemoteFailure.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: resolve token: %w", app.ErrRemoteFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("%w: build %s %s: %w", app.ErrRemoteFailure, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", app.ErrRemoteFailure, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: %w", app.ErrRemoteFailure, method, path, decodeAPIError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %w", app.ErrRemoteFailure, method, path, err)
	}
	return nil
}

// endpoint joins path onto the base URL, keeping any query string.
func (c *Client) endpoint(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + ref.Path
	u.RawQuery = ref.RawQuery
	return u.String()
}

// decodeAPIError reads a failed response into an APIError.
func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		envelope.Error.Status = resp.StatusCode
		return &envelope.Error
	}
	return &APIError{
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(raw)),
	}
}

// payloadFromEnvelope converts the wire envelope into the remote payload.
func payloadFromEnvelope(envelope common.RoadmapEnvelope) app.RoadmapPayload {
	return app.RoadmapPayload{
		Roadmap:        envelope.Roadmap,
		Progress:       envelope.Progress,
		CareerDecision: envelope.CareerDecision,
	}
}
