package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/defect-tools-mcp/internal/config"
	"github.com/ironsheep/defect-tools-mcp/internal/imaging"
)

// createSpotImageFile writes a gray PNG with one bright size x size spot at
// (x, y) and returns its path.
func createSpotImageFile(t *testing.T, width, height, x, y, size int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			c := color.RGBA{100, 100, 100, 255}
			if px >= x && px < x+size && py >= y && py < y+size {
				c = color.RGBA{250, 250, 250, 255}
			}
			img.Set(px, py, c)
		}
	}

	path := filepath.Join(t.TempDir(), "spot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request for name with args.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolText unmarshals the JSON text of a tools/call result into v.
func decodeToolText(t *testing.T, result interface{}, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var wrapped struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		t.Fatalf("result is not MCP content: %v", err)
	}
	if len(wrapped.Content) != 1 || wrapped.Content[0].Type != "text" {
		t.Fatalf("unexpected content: %s", raw)
	}
	if err := json.Unmarshal([]byte(wrapped.Content[0].Text), v); err != nil {
		t.Fatalf("tool text is not JSON: %v", err)
	}
}

// callToolOK calls a tool, fails on error and decodes its payload into v.
func callToolOK(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %s: %v", name, resp.Error.Message, resp.Error.Data)
	}
	decodeToolText(t, resp.Result, v)
}

// callToolErr calls a tool and fails unless it returns a tool execution error.
func callToolErr(t *testing.T, s *Server, name string, args map[string]interface{}) string {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s should fail", name)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s error code: got %d, want -32000", name, resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 100, 80, 10, 10, 5)

	var info imaging.ImageInfo
	callToolOK(t, s, "image_load", map[string]interface{}{"path": path}, &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %q, want png", info.Format)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"missing path", "image_load", map[string]interface{}{}},
		{"non-existent file", "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}},
		{"unknown tool", "image_sharpen", map[string]interface{}{"path": "/x.png"}},
		{"detect without path", "defect_detect", nil},
		{"wrong argument type", "defect_detect", map[string]interface{}{"path": "/x.png", "min_spot_size_px": "big"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callToolErr(t, s, tt.tool, tt.args)
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_DefectDetect(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	var got detectResult
	callToolOK(t, s, "defect_detect", map[string]interface{}{"path": path}, &got)

	if got.Path != path {
		t.Errorf("Path: got %q, want %q", got.Path, path)
	}
	if got.Generation != 1 || !got.Committed {
		t.Errorf("run: generation %d committed %v, want 1 true", got.Generation, got.Committed)
	}
	res := got.Result
	if res.Params.MinSpotSizePx != 40 || res.Params.MinContrastPercent != 12 {
		t.Errorf("params: got %+v, want config defaults 40/12", res.Params)
	}
	if len(res.Components) != 1 {
		t.Fatalf("components: got %d, want 1", len(res.Components))
	}

	c := res.Components[0]
	if c.ID != 1 || c.PixelCount != 64 {
		t.Errorf("component: id %d pixels %d, want 1 and 64", c.ID, c.PixelCount)
	}
	if c.CenterX != 23.5 || c.CenterY != 23.5 {
		t.Errorf("center: got (%v,%v), want (23.5,23.5)", c.CenterX, c.CenterY)
	}
	if c.Radius != 4 {
		t.Errorf("Radius: got %v, want 4", c.Radius)
	}
	if c.BorderCount != 28 {
		t.Errorf("BorderCount: got %d, want 28", c.BorderCount)
	}
	if len(c.Border) != 0 {
		t.Errorf("border points returned without include_border: %d", len(c.Border))
	}
}

func TestHandleToolsCall_DefectDetect_Options(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	var got detectResult
	callToolOK(t, s, "defect_detect", map[string]interface{}{
		"path":           path,
		"include_border": true,
	}, &got)
	if n := len(got.Result.Components[0].Border); n != 28 {
		t.Errorf("border points: got %d, want 28", n)
	}

	callToolOK(t, s, "defect_detect", map[string]interface{}{
		"path":             path,
		"min_spot_size_px": 65,
	}, &got)
	if got.Generation != 2 {
		t.Errorf("Generation: got %d, want 2", got.Generation)
	}
	if len(got.Result.Components) != 0 {
		t.Errorf("components: got %d, want 0", len(got.Result.Components))
	}
	if got.Result.TotalComponents != 1 {
		t.Errorf("TotalComponents: got %d, want 1", got.Result.TotalComponents)
	}
}

func TestHandleToolsCall_DefectDetect_ExplicitOutOfRange(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 20, 20, 5, 5, 3)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"zero spot size", map[string]interface{}{"path": path, "min_spot_size_px": 0}},
		{"negative spot size", map[string]interface{}{"path": path, "min_spot_size_px": -4}},
		{"zero contrast", map[string]interface{}{"path": path, "min_contrast_percent": 0}},
		{"contrast over 100", map[string]interface{}{"path": path, "min_contrast_percent": 100.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := callToolErr(t, s, "defect_detect", tt.args)
			if !strings.Contains(data, "parameter out of range") {
				t.Errorf("error data: got %q", data)
			}
		})
	}
}

func TestHandleToolsCall_DefectDetect_ConfigDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.MinSpotSizePx = 100
	s := New(cfg, zerolog.Nop())
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	var got detectResult
	callToolOK(t, s, "defect_detect", map[string]interface{}{"path": path}, &got)
	if got.Result.Params.MinSpotSizePx != 100 {
		t.Errorf("MinSpotSizePx: got %d, want 100", got.Result.Params.MinSpotSizePx)
	}
	if len(got.Result.Components) != 0 {
		t.Errorf("components: got %d, want 0", len(got.Result.Components))
	}
}

func TestHandleToolsCall_LastResultAndEvict(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)
	args := map[string]interface{}{"path": path}

	data := callToolErr(t, s, "defect_last_result", args)
	if !strings.Contains(data, "defect_detect") {
		t.Errorf("error should point at defect_detect: %q", data)
	}

	var detected, last detectResult
	callToolOK(t, s, "defect_detect", args, &detected)
	callToolOK(t, s, "defect_last_result", args, &last)
	if last.Generation != detected.Generation {
		t.Errorf("Generation: got %d, want %d", last.Generation, detected.Generation)
	}
	if len(last.Result.Components) != 1 {
		t.Errorf("components: got %d, want 1", len(last.Result.Components))
	}

	var evicted evictResult
	callToolOK(t, s, "image_evict", args, &evicted)
	if !evicted.Evicted || evicted.Path != path {
		t.Errorf("evict: got %+v", evicted)
	}
	if s.cache.Len() != 0 {
		t.Errorf("cache still holds %d images", s.cache.Len())
	}
	callToolErr(t, s, "defect_last_result", args)
}

func TestHandleToolsCall_DefectOverlay(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	var got imaging.OverlayResult
	callToolOK(t, s, "defect_overlay", map[string]interface{}{
		"path":        path,
		"draw_border": true,
	}, &got)

	if got.Width != 60 || got.Height != 60 || got.ComponentCount != 1 {
		t.Errorf("overlay: got %dx%d with %d components", got.Width, got.Height, got.ComponentCount)
	}
	data, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("overlay is not a PNG: %v", err)
	}
	// Top-left spot pixel is a border pixel painted in the configured color.
	r, g, b, _ := img.At(20, 20).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("border pixel: got (%d,%d,%d), want ~#DC2626", r>>8, g>>8, b>>8)
	}

	callToolErr(t, s, "defect_overlay", map[string]interface{}{"path": path, "color": "not-a-color"})
}

func TestHandleToolsCall_DefectCrop(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	var got cropResult
	callToolOK(t, s, "defect_crop", map[string]interface{}{
		"path":         path,
		"component_id": 1,
	}, &got)
	// (8 + 2*8 padding) * 4 scale
	if got.Width != 96 || got.Height != 96 {
		t.Errorf("dimensions: got %dx%d, want 96x96", got.Width, got.Height)
	}
	if got.X != 12 || got.Y != 12 {
		t.Errorf("origin: got (%d,%d), want (12,12)", got.X, got.Y)
	}
	if got.ComponentID != 1 || got.Bounds.MinX != 20 || got.Bounds.MaxX != 27 {
		t.Errorf("component: got id %d bounds %+v", got.ComponentID, got.Bounds)
	}

	callToolOK(t, s, "defect_crop", map[string]interface{}{
		"path":         path,
		"component_id": 1,
		"padding":      0,
		"scale":        1.0,
	}, &got)
	if got.Width != 8 || got.Height != 8 {
		t.Errorf("unpadded dimensions: got %dx%d, want 8x8", got.Width, got.Height)
	}
}

func TestHandleToolsCall_DefectCrop_Errors(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing id", map[string]interface{}{"path": path}},
		{"unknown id", map[string]interface{}{"path": path, "component_id": 7}},
		{"filtered out", map[string]interface{}{"path": path, "component_id": 1, "min_spot_size_px": 100}},
		{"negative padding", map[string]interface{}{"path": path, "component_id": 1, "padding": -1}},
		{"zero scale", map[string]interface{}{"path": path, "component_id": 1, "scale": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callToolErr(t, s, "defect_crop", tt.args)
		})
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer(t)
	path := createSpotImageFile(t, 60, 60, 20, 20, 8)

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			args := map[string]interface{}{"path": path, "component_id": 1}
			raw, _ := json.Marshal(args)
			if _, err := s.executeTool(context.Background(), tool.Name, raw); err != nil {
				t.Errorf("%s failed: %v", tool.Name, err)
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	_, err := s.executeTool(context.Background(), "image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
