// Package server implements the MCP (Model Context Protocol) server for shape recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the recognizer
// pipeline through the MCP protocol, so a drawing app or an AI client can
// load training data and classify drawings without linking the Go packages.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Training Data:
//   - shape_load_training_data: Load a JSON, YAML or SQLite training set
//   - shape_status: Readiness, labels and active settings
//
// Image Classification:
//   - shape_classify: Classify the dominant shape in a rendered drawing
//   - shape_describe: Contour and Fourier signature of a drawing
//   - shape_mask: Binarized ink mask as a base64 PNG
//
// Canvas Strokes:
//   - canvas_add_stroke: Commit one stroke of points
//   - canvas_clear: Remove every stroke
//   - canvas_classify: Classify the committed strokes
//
// # Image Caching
//
// Decoded drawings are cached by path. Pass "reload": true to re-read a file
// the app has overwritten in place.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which names the failing pipeline stage
//
// A drawing that matches nothing is not an error: shape_classify returns the
// label "Unclassified" with matched set to false.
//
// # Usage
//
//	srv := server.New(rec, server.WithLogger(logger))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
