package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// detectionProperties returns the schema of the shared detection parameters
// merged with extra.
func detectionProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty,
		"min_spot_size_px": map[string]interface{}{
			"type":        "integer",
			"description": "Smallest component, in pixels, reported as a defect. Default from server config (40)",
			"minimum":     1,
		},
		"min_contrast_percent": map[string]interface{}{
			"type":             "number",
			"description":      "Required deviation from the image's mean brightness, as a percentage of full scale (0-100]. Default from server config (12)",
			"exclusiveMinimum": 0,
			"maximum":          100,
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image management
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and color depth. The decoded image stays cached for later detection calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_evict",
			Description: "Drop a cached image and its last detection result. Use after the file changed on disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "defect_detect",
			Description: "Find bright or dark spots that deviate from the image's mean brightness. Returns each defect's id, pixel count, centroid, radius, bounding box and polarity. Repeated calls for the same path supersede earlier ones; only the newest is kept as the last result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectionProperties(map[string]interface{}{
					"include_border": map[string]interface{}{
						"type":        "boolean",
						"description": "Include each defect's border pixels, subsampled for large defects. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "defect_last_result",
			Description: "Return the most recent committed detection result for an image without re-running detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_border": map[string]interface{}{
						"type":        "boolean",
						"description": "Include each defect's border pixels. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "defect_overlay",
			Description: "Run detection and return the image as base64 PNG with a circle around every defect. Use this to review detections visually.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectionProperties(map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for circles and labels, e.g. #DC2626. Default from server config",
					},
					"draw_border": map[string]interface{}{
						"type":        "boolean",
						"description": "Also paint each defect's border pixels. Default from server config",
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Write '#id (pixels)' next to each circle. Default true",
						"default":     true,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "defect_crop",
			Description: "Run detection and return a zoomed base64 PNG crop around one defect, identified by the id from defect_detect.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectionProperties(map[string]interface{}{
					"component_id": map[string]interface{}{
						"type":        "integer",
						"description": "Defect id as reported by defect_detect with the same parameters",
						"minimum":     1,
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of context around the defect's bounding box. Default 8",
						"default":     defaultCropPadding,
						"minimum":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Zoom factor applied after cropping. Default 4.0",
						"default":     defaultCropScale,
					},
				}),
				"required": []string{"path", "component_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
