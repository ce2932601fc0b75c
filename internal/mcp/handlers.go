package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store ops.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store ops.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: store, cfg: cfg}
}

// AppendRequest represents the arguments for event_append.
type AppendRequest struct {
	Event string `json:"event"`
}

// TimelineRequest represents the arguments for session_timeline.
type TimelineRequest struct {
	Category string `json:"category,omitempty"`
}

// QueryRequest represents the arguments for log_query.
type QueryRequest struct {
	Query string `json:"query"`
}

// ExportRequest represents the arguments for log_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// HandleAppend handles the event_append tool.
func (h *Handlers) HandleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[AppendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Append(ctx, h.store, ops.AppendInput{Event: args.Event})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the event_list tool.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListEvents(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTimeline handles the session_timeline tool.
func (h *Handlers) HandleTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[TimelineRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Sessions(ctx, h.store, ops.SessionsInput{Category: args.Category})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCurrent handles the session_current tool.
func (h *Handlers) HandleCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CurrentSession(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"session": result})
}

// HandleRatios handles the ratio_analyze tool.
func (h *Handlers) HandleRatios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Ratios(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleQuery handles the log_query tool.
func (h *Handlers) HandleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[QueryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Query(ctx, h.store, ops.QueryInput{Query: args.Query})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReport handles the log_report tool. The markdown is returned as plain text.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Report(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(result.Markdown), nil
}

// HandleExport handles the log_export tool.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, ops.ExportInput{
		Path:        args.Path,
		ExportDir:   h.cfg.ExportDir,
		AllowedDirs: h.cfg.AllowedPaths,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Server-side errors (status >= 500) omit details so file paths
// and OS messages stay out of tool output.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr := errors.As(err); tErr != nil {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		if tErr.Status < 500 && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
