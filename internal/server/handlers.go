package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/defect-tools-mcp/internal/analysis"
	"github.com/ironsheep/defect-tools-mcp/internal/defect"
	"github.com/ironsheep/defect-tools-mcp/internal/imaging"
)

// Crop defaults used when defect_crop omits padding or scale.
const (
	defaultCropPadding = 8
	defaultCropScale   = 4.0
)

var errPathRequired = errors.New("path is required")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "defect_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool call")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills omitted parameters from the server configuration
//  3. Loads the image and its pixels from cache as needed
//  4. Runs detection through the session and renders if asked
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image management
	case "image_load":
		return s.handleImageLoad(args)
	case "image_evict":
		return s.handleImageEvict(args)

	// Detection
	case "defect_detect":
		return s.handleDefectDetect(ctx, args)
	case "defect_last_result":
		return s.handleDefectLastResult(args)

	// Rendering
	case "defect_overlay":
		return s.handleDefectOverlay(ctx, args)
	case "defect_crop":
		return s.handleDefectCrop(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image Management Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type evictResult struct {
	Path    string `json:"path"`
	Evicted bool   `json:"evicted"`
}

func (s *Server) handleImageEvict(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	s.cache.Evict(a.Path)
	s.session.Forget(a.Path)
	s.log.Debug().Str("path", a.Path).Msg("image evicted")
	return &evictResult{Path: a.Path, Evicted: true}, nil
}

// === Detection Handlers ===

// detectionArgs are shared by every tool that runs detection. Nil fields
// take the configured defaults; explicit values are passed through and
// validated by the detector.
type detectionArgs struct {
	Path               string   `json:"path"`
	MinSpotSizePx      *int     `json:"min_spot_size_px"`
	MinContrastPercent *float64 `json:"min_contrast_percent"`
}

func (s *Server) params(a detectionArgs) defect.Params {
	p := defect.Params{
		MinSpotSizePx:      s.cfg.Detection.MinSpotSizePx,
		MinContrastPercent: s.cfg.Detection.MinContrastPercent,
	}
	if a.MinSpotSizePx != nil {
		p.MinSpotSizePx = *a.MinSpotSizePx
	}
	if a.MinContrastPercent != nil {
		p.MinContrastPercent = *a.MinContrastPercent
	}
	return p
}

// detect runs a session-tracked detection over the cached image at a.Path.
func (s *Server) detect(ctx context.Context, a detectionArgs) (image.Image, *analysis.Run, error) {
	if a.Path == "" {
		return nil, nil, errPathRequired
	}
	img, buf, err := s.cache.LoadPixels(a.Path)
	if err != nil {
		return nil, nil, err
	}
	run, err := s.session.Analyze(ctx, a.Path, buf, s.params(a))
	if err != nil {
		return nil, nil, err
	}
	return img, run, nil
}

// detectResult is the payload of defect_detect and defect_last_result.
type detectResult struct {
	Path       string         `json:"path"`
	Generation uint64         `json:"generation"`
	Committed  bool           `json:"committed"`
	FinishedAt time.Time      `json:"finished_at"`
	Result     *defect.Result `json:"result"`
}

func newDetectResult(run *analysis.Run, includeBorder bool) *detectResult {
	return &detectResult{
		Path:       run.Key,
		Generation: run.Generation,
		Committed:  run.Committed,
		FinishedAt: run.FinishedAt,
		Result:     resultView(run.Result, includeBorder),
	}
}

// resultView returns res, or a copy whose components carry no border points.
func resultView(res *defect.Result, includeBorder bool) *defect.Result {
	if includeBorder {
		return res
	}
	view := *res
	view.Components = make([]defect.Component, len(res.Components))
	for i, c := range res.Components {
		c.Border = nil
		view.Components[i] = c
	}
	return &view
}

type defectDetectArgs struct {
	detectionArgs
	IncludeBorder bool `json:"include_border"`
}

func (s *Server) handleDefectDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a defectDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, run, err := s.detect(ctx, a.detectionArgs)
	if err != nil {
		return nil, err
	}
	return newDetectResult(run, a.IncludeBorder), nil
}

type defectLastResultArgs struct {
	Path          string `json:"path"`
	IncludeBorder bool   `json:"include_border"`
}

func (s *Server) handleDefectLastResult(args json.RawMessage) (interface{}, error) {
	var a defectLastResultArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	run, ok := s.session.Latest(a.Path)
	if !ok {
		return nil, fmt.Errorf("no detection result for %s; run defect_detect first", a.Path)
	}
	return newDetectResult(run, a.IncludeBorder), nil
}

// === Rendering Handlers ===

type defectOverlayArgs struct {
	detectionArgs
	Color      *string `json:"color"`
	DrawBorder *bool   `json:"draw_border"`
	ShowLabels *bool   `json:"show_labels"`
}

func (s *Server) handleDefectOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a defectOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	opts := imaging.OverlayOptions{
		Color:      s.cfg.Overlay.Color,
		DrawBorder: s.cfg.Overlay.DrawBorder,
		ShowLabels: true,
	}
	if a.Color != nil {
		opts.Color = *a.Color
	}
	if a.DrawBorder != nil {
		opts.DrawBorder = *a.DrawBorder
	}
	if a.ShowLabels != nil {
		opts.ShowLabels = *a.ShowLabels
	}

	img, run, err := s.detect(ctx, a.detectionArgs)
	if err != nil {
		return nil, err
	}
	return imaging.RenderOverlay(img, run.Result, opts)
}

type defectCropArgs struct {
	detectionArgs
	ComponentID int      `json:"component_id"`
	Padding     *int     `json:"padding"`
	Scale       *float64 `json:"scale"`
}

type cropResult struct {
	*imaging.CropResult
	ComponentID int           `json:"component_id"`
	Bounds      defect.Bounds `json:"bounds"`
}

func (s *Server) handleDefectCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a defectCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ComponentID < 1 {
		return nil, fmt.Errorf("component_id must be >= 1, got %d", a.ComponentID)
	}
	padding := defaultCropPadding
	if a.Padding != nil {
		padding = *a.Padding
	}
	scale := defaultCropScale
	if a.Scale != nil {
		scale = *a.Scale
	}

	img, run, err := s.detect(ctx, a.detectionArgs)
	if err != nil {
		return nil, err
	}
	comp, ok := run.Result.Component(a.ComponentID)
	if !ok {
		return nil, fmt.Errorf("no defect with id %d in %s (%d reported)",
			a.ComponentID, a.Path, len(run.Result.Components))
	}

	crop, err := imaging.CropDefect(img, comp.Bounds, padding, scale)
	if err != nil {
		return nil, err
	}
	return &cropResult{CropResult: crop, ComponentID: comp.ID, Bounds: comp.Bounds}, nil
}
