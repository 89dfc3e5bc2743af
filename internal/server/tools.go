package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imagePathSchema is the input schema shared by the tools that read a
// rendered drawing from disk.
func imagePathSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute path to the rendered drawing (PNG, JPEG or GIF)",
			},
			"reload": map[string]interface{}{
				"type":        "boolean",
				"description": "Re-read the file even if it was loaded before. Use when the app overwrites the same path. Default false",
				"default":     false,
			},
		},
		"required": []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Training Data
		{
			Name:        "shape_load_training_data",
			Description: "Load a labeled training set (JSON, YAML or SQLite) into the reference store. A failed load keeps the previously loaded set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the training data file (.json, .yaml, .yml, .db)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "shape_status",
			Description: "Report whether training data is loaded, which labels it contains and the active recognition settings.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Image Classification
		{
			Name:        "shape_classify",
			Description: "Classify the dominant shape in a rendered drawing. Returns the matched label, or \"Unclassified\" when nothing in the training set is close enough.",
			InputSchema: imagePathSchema(),
		},
		{
			Name:        "shape_describe",
			Description: "Extract the outer contour of the dominant shape in a drawing and return its Fourier shape signature.",
			InputSchema: imagePathSchema(),
		},
		{
			Name:        "shape_mask",
			Description: "Return the binarized ink mask of a drawing as a base64 PNG, for checking what the extractor sees.",
			InputSchema: imagePathSchema(),
		},

		// Canvas Strokes
		{
			Name:        "canvas_add_stroke",
			Description: "Commit one freehand stroke to the canvas session as a list of points in drawing order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Stroke points in drawing order",
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "canvas_clear",
			Description: "Remove every stroke from the canvas session.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "canvas_classify",
			Description: "Classify the strokes committed to the canvas session, joined in drawing order into one closed outline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"clear": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear the canvas after a successful classification. Default false",
						"default":     false,
					},
				},
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
