// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/skillroute/internal/adapters/server/auth"
	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// defaultResumeName is used when analyze_gap callers send resume text without a file name.
const defaultResumeName = "resume.txt"

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// phaseSummary is one phase reference in progress tool results.
type phaseSummary struct {
	Index  int                `json:"index"`
	Name   string             `json:"name"`
	Status domain.PhaseStatus `json:"status"`
}

// progressSummary is the derived progress returned by skillroute.get_progress.
type progressSummary struct {
	Title           string        `json:"title"`
	Percentage      int           `json:"percentage"`
	CompletedPhases int           `json:"completed_phases"`
	TotalPhases     int           `json:"total_phases"`
	StreakDays      int           `json:"streak_days"`
	Current         *phaseSummary `json:"current,omitempty"`
	Next            *phaseSummary `json:"next,omitempty"`
}

// NewHandler builds one stateless MCP adapter with roadmap, progress, and analysis tools.
func NewHandler(cfg Config, service common.RoadmapService) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("roadmap service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerRoadmapTools(mcpSrv, service)
	registerAnalysisTools(mcpSrv, service)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "skillroute"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerRoadmapTools registers profile, roadmap, and progress tools.
func registerRoadmapTools(srv *mcpserver.MCPServer, service common.RoadmapService) {
	srv.AddTool(
		mcp.NewTool(
			"skillroute.get_profile",
			mcp.WithDescription("Return the caller's learner profile."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			profile, err := service.Profile(ctx, userID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(profile)
			if err != nil {
				return nil, fmt.Errorf("encode get_profile result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skillroute.get_roadmap",
			mcp.WithDescription("Return the caller's active roadmap with stored progress."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			envelope, err := service.Roadmap(ctx, userID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(envelope)
			if err != nil {
				return nil, fmt.Errorf("encode get_roadmap result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skillroute.get_progress",
			mcp.WithDescription("Return completion percentage and the current and next focus phases."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			envelope, err := service.Roadmap(ctx, userID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(summarizeProgress(envelope))
			if err != nil {
				return nil, fmt.Errorf("encode get_progress result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skillroute.update_progress",
			mcp.WithDescription("Set the status of one roadmap phase by index."),
			mcp.WithNumber("phase_index", mcp.Required(), mcp.Description("Zero-based phase index")),
			mcp.WithString("status", mcp.Required(), mcp.Description("New phase status"), mcp.Enum(string(domain.PhaseStatusPending), string(domain.PhaseStatusCompleted))),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			index, err := req.RequireInt("phase_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			progress, err := service.UpdateProgress(ctx, userID, common.UpdateProgressRequest{
				PhaseIndex: index,
				Status:     domain.PhaseStatus(status),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.ProgressResponse{OK: true, Progress: progress})
			if err != nil {
				return nil, fmt.Errorf("encode update_progress result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skillroute.adapt_roadmap",
			mcp.WithDescription("Re-plan the pending phases of the active roadmap."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			if err := service.AdaptRoadmap(ctx, userID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.OKResponse{OK: true})
			if err != nil {
				return nil, fmt.Errorf("encode adapt_roadmap result: %w", err)
			}
			return result, nil
		},
	)
}

// registerAnalysisTools registers skill-gap analysis tools.
func registerAnalysisTools(srv *mcpserver.MCPServer, service common.RoadmapService) {
	srv.AddTool(
		mcp.NewTool(
			"skillroute.analyze_gap",
			mcp.WithDescription("Compare resume text against a job description and estimate the learning plan."),
			mcp.WithString("resume_text", mcp.Required(), mcp.Description("Plain-text resume")),
			mcp.WithString("jd_text", mcp.Required(), mcp.Description("Job description text")),
			mcp.WithNumber("hours_per_week", mcp.Description("Study hours per week (1-80, default 10)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			resume, err := req.RequireString("resume_text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			jd, err := req.RequireString("jd_text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			analysis, err := service.AnalyzeGap(ctx, userID, common.AnalyzeGapRequest{
				ResumeName:   defaultResumeName,
				Resume:       []byte(resume),
				JDText:       jd,
				HoursPerWeek: req.GetInt("hours_per_week", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(analysis)
			if err != nil {
				return nil, fmt.Errorf("encode analyze_gap result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skillroute.list_gap_analyses",
			mcp.WithDescription("List the caller's recent skill-gap analyses, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.UserFromContext(ctx)
			if !ok {
				return toolResultFromError(common.ErrUnauthorized), nil
			}
			items, err := service.ListGapAnalyses(ctx, userID, req.GetInt("limit", 20))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.GapAnalysisList{Items: items})
			if err != nil {
				return nil, fmt.Errorf("encode list_gap_analyses result: %w", err)
			}
			return result, nil
		},
	)
}

// summarizeProgress derives the progress summary of one roadmap envelope.
func summarizeProgress(envelope common.RoadmapEnvelope) progressSummary {
	d := domain.Derive(envelope.Roadmap, domain.ReconcileProgress(envelope.Roadmap, envelope.Progress))
	out := progressSummary{
		Title:           envelope.Roadmap.Title,
		Percentage:      d.Percentage,
		CompletedPhases: d.CompletedPhases,
		TotalPhases:     d.TotalPhases,
		StreakDays:      d.StreakDays,
	}
	if d.Current != nil {
		out.Current = &phaseSummary{Index: d.Current.Index, Name: d.Current.Phase.Name, Status: d.Current.Phase.Status}
	}
	if d.Next != nil {
		out.Next = &phaseSummary{Index: d.Next.Index, Name: d.Next.Phase.Name, Status: d.Next.Phase.Status}
	}
	return out
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrUnauthorized):
		return mcp.NewToolResultError("unauthorized: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest), errors.Is(err, common.ErrUnsupportedMedia):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
