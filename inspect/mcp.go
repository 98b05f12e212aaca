package inspect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/autoview/kit"
)

// RegisterMCP registers the inspection tools on an MCP server, letting the
// surrounding AI tooling drive sessions programmatically.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerStartTool(srv)
	s.registerStopTool(srv)
	s.registerResolveTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func mcpCtx(ctx context.Context) context.Context {
	return kit.WithTransport(ctx, "mcp")
}

// --- inspect start ---

type startReq struct {
	SurfaceID string `json:"surface_id"`
	URL       string `json:"url"`
}

func (s *Service) registerStartTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "autoview_inspect_start",
		Description: "Start element inspection on a preview surface. Give surface_id for an open surface, or url to open a new one first.",
		InputSchema: inputSchema(map[string]any{
			"surface_id": map[string]any{"type": "string", "description": "ID of an open surface"},
			"url":        map[string]any{"type": "string", "description": "Preview URL to open when no surface_id is given"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*startReq)
		surfaceID := r.SurfaceID
		if surfaceID == "" {
			if r.URL == "" {
				return nil, fmt.Errorf("surface_id or url required")
			}
			id, err := s.OpenSurface(ctx, r.URL)
			if err != nil {
				return nil, err
			}
			surfaceID = id
		}
		sess, err := s.Start(ctx, surfaceID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"surface_id": surfaceID,
			"session_id": sess.ID,
			"framework":  sess.Framework(),
			"fallback":   sess.Fallback(),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r startReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpCtx}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- inspect stop ---

type stopReq struct {
	SurfaceID string `json:"surface_id"`
}

func (s *Service) registerStopTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "autoview_inspect_stop",
		Description: "Stop element inspection on a preview surface. Stopping with no active session is a no-op.",
		InputSchema: inputSchema(map[string]any{
			"surface_id": map[string]any{"type": "string", "description": "ID of an open surface"},
		}, []string{"surface_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*stopReq)
		if err := s.Stop(ctx, r.SurfaceID); err != nil {
			return nil, err
		}
		return map[string]any{"status": "stopped"}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r stopReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpCtx}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- resolve source ---

type resolveReq struct {
	Component string `json:"component"`
}

func (s *Service) registerResolveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "autoview_resolve_source",
		Description: "Resolve a component name to ranked source file candidates in the project tree.",
		InputSchema: inputSchema(map[string]any{
			"component": map[string]any{"type": "string", "description": "Component name, e.g. ProductCard"},
		}, []string{"component"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*resolveReq)
		if r.Component == "" {
			return nil, fmt.Errorf("component required")
		}
		info := s.ResolveSource(ctx, r.Component)
		if info == nil {
			return nil, fmt.Errorf("source mapping disabled")
		}
		return info, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r resolveReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpCtx}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
