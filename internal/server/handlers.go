package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/raster"
	"github.com/ironsheep/shape-recognizer/internal/recognizer"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shape_classify", "canvas_clear").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
// Tools with no arguments accept an empty or missing arguments object.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Training Data
	case "shape_load_training_data":
		return s.handleLoadTrainingData(args)
	case "shape_status":
		return s.handleStatus(args)

	// Image Classification
	case "shape_classify":
		return s.handleClassify(args)
	case "shape_describe":
		return s.handleDescribe(args)
	case "shape_mask":
		return s.handleMask(args)

	// Canvas Strokes
	case "canvas_add_stroke":
		return s.handleCanvasAddStroke(args)
	case "canvas_clear":
		return s.handleCanvasClear(args)
	case "canvas_classify":
		return s.handleCanvasClassify(args)

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

// === Training Data Handlers ===

type loadTrainingDataArgs struct {
	Path string `json:"path"`
}

// LoadResult reports the reference set after a successful load.
type LoadResult struct {
	Loaded    bool     `json:"loaded"`
	Source    string   `json:"source"`
	Entries   int      `json:"entries"`
	Labels    []string `json:"labels"`
	Skipped   int      `json:"skipped"`
	Dimension int      `json:"dimension"`
}

func (s *Server) handleLoadTrainingData(args json.RawMessage) (interface{}, error) {
	var a loadTrainingDataArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := s.rec.Load(a.Path); err != nil {
		return nil, err
	}

	snap, err := s.rec.Store().Snapshot()
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Loaded:    true,
		Source:    snap.Source,
		Entries:   len(snap.Entries),
		Labels:    snap.Labels(),
		Skipped:   snap.Skipped,
		Dimension: snap.Dimension,
	}, nil
}

// StatusResult describes the server's readiness and settings.
type StatusResult struct {
	Ready     bool       `json:"ready"`
	Version   string     `json:"version"`
	Source    string     `json:"source,omitempty"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	Entries   int        `json:"entries"`
	Labels    []string   `json:"labels"`
	Dimension int        `json:"dimension"`
	Threshold float64    `json:"threshold"`
	Metric    string     `json:"metric"`
	Harmonics int        `json:"harmonics"`
	Samples   int        `json:"samples"`
	Strokes   int        `json:"canvas_strokes"`
	Cached    int        `json:"cached_images"`
}

func (s *Server) handleStatus(_ json.RawMessage) (interface{}, error) {
	cfg := s.rec.Config()
	st := &StatusResult{
		Version:   s.version,
		Labels:    []string{},
		Dimension: s.rec.Store().Dimension(),
		Threshold: s.rec.Classifier().Threshold(),
		Metric:    string(s.rec.Classifier().Metric()),
		Harmonics: cfg.Harmonics,
		Samples:   cfg.Samples,
		Strokes:   len(s.canvas.Drawings()),
		Cached:    s.cache.Len(),
	}
	if snap, err := s.rec.Store().Snapshot(); err == nil {
		loadedAt := snap.LoadedAt
		st.Ready = true
		st.Source = snap.Source
		st.LoadedAt = &loadedAt
		st.Entries = len(snap.Entries)
		st.Labels = snap.Labels()
	}
	return st, nil
}

// === Image Classification Handlers ===

type imagePathArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

// loadImage decodes the drawing named in args through the cache.
func (s *Server) loadImage(args json.RawMessage) (image.Image, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	return s.cache.Load(a.Path)
}

// ClassifyResult is the tool-facing view of a classification outcome.
type ClassifyResult struct {
	Label      string   `json:"label"`
	Matched    bool     `json:"matched"`
	Confidence float64  `json:"confidence"`
	Distance   *float64 `json:"distance,omitempty"`
	Nearest    string   `json:"nearest,omitempty"`
	Stage      string   `json:"stage"`
	Points     int      `json:"contour_points"`
	RequestID  string   `json:"request_id"`
	ElapsedMS  float64  `json:"elapsed_ms"`
}

func newClassifyResult(out *recognizer.Outcome) *ClassifyResult {
	r := &ClassifyResult{
		Label:      out.Label,
		Matched:    out.Matched,
		Confidence: out.Confidence,
		Nearest:    out.Nearest,
		Stage:      out.Stage.String(),
		Points:     len(out.Contour),
		RequestID:  out.RequestID,
		ElapsedMS:  float64(out.Elapsed.Microseconds()) / 1000,
	}
	// JSON has no representation for +Inf
	if !math.IsInf(out.Distance, 0) && !math.IsNaN(out.Distance) {
		d := out.Distance
		r.Distance = &d
	}
	return r
}

func (s *Server) handleClassify(args json.RawMessage) (interface{}, error) {
	img, err := s.loadImage(args)
	if err != nil {
		return nil, err
	}
	out, err := s.rec.Classify(img)
	if err != nil {
		return nil, err
	}
	return newClassifyResult(out), nil
}

// DescribeResult holds the contour and signature of a drawing.
type DescribeResult struct {
	Features  []float64       `json:"features"`
	Dimension int             `json:"dimension"`
	Points    int             `json:"contour_points"`
	Perimeter float64         `json:"perimeter"`
	Area      float64         `json:"area"`
	Centroid  contour.Point   `json:"centroid"`
	Contour   contour.Contour `json:"contour,omitempty"`
}

func (s *Server) handleDescribe(args json.RawMessage) (interface{}, error) {
	img, err := s.loadImage(args)
	if err != nil {
		return nil, err
	}
	c, err := s.rec.Extract(img)
	if err != nil {
		return nil, err
	}
	vec, err := s.rec.Describe(c)
	if err != nil {
		return nil, err
	}
	return &DescribeResult{
		Features:  vec,
		Dimension: vec.Dim(),
		Points:    c.Len(),
		Perimeter: c.Perimeter(),
		Area:      c.Area(),
		Centroid:  c.Centroid(),
		Contour:   c,
	}, nil
}

func (s *Server) handleMask(args json.RawMessage) (interface{}, error) {
	img, err := s.loadImage(args)
	if err != nil {
		return nil, err
	}
	return raster.EncodePNG(s.rec.Mask(img))
}

// === Canvas Handlers ===

type canvasAddStrokeArgs struct {
	Points []contour.Point `json:"points"`
}

func (s *Server) handleCanvasAddStroke(args json.RawMessage) (interface{}, error) {
	var a canvasAddStrokeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	s.canvas.Begin()
	for _, p := range a.Points {
		s.canvas.Append(p)
	}
	committed := s.canvas.Commit()

	return map[string]interface{}{
		"committed": committed,
		"points":    len(a.Points),
		"strokes":   len(s.canvas.Drawings()),
	}, nil
}

func (s *Server) handleCanvasClear(_ json.RawMessage) (interface{}, error) {
	s.canvas.Clear()
	return map[string]interface{}{
		"cleared": true,
	}, nil
}

type canvasClassifyArgs struct {
	Clear bool `json:"clear"`
}

func (s *Server) handleCanvasClassify(args json.RawMessage) (interface{}, error) {
	var a canvasClassifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	out, err := s.rec.ClassifyDrawings(s.canvas.Drawings())
	if err != nil {
		return nil, err
	}
	if a.Clear {
		s.canvas.Clear()
	}
	return newClassifyResult(out), nil
}
