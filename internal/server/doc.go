// Package server implements the MCP (Model Context Protocol) server for defect
// detection tools.
//
// The server speaks JSON-RPC 2.0 over stdio and lets an MCP client load an
// image, find bright or dark defects in it, and look at them as an annotated
// overlay or a zoomed crop.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//   - Logs: zerolog on stderr, never stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image management:
//   - image_load: Load image and get metadata
//   - image_evict: Drop a cached image and its last result
//
// Detection:
//   - defect_detect: Find defects with the given or configured parameters
//   - defect_last_result: Return the newest committed result for an image
//
// Rendering:
//   - defect_overlay: Circle every defect on the source image
//   - defect_crop: Zoom into a single defect
//
// Detection parameters that are omitted take the values from the server's
// configuration. Explicit values are never replaced, so an out-of-range
// value is reported as an error rather than silently defaulted.
//
// # Image Caching and Runs
//
// Decoded images and their pixel buffers are cached by path for the lifetime
// of the process or until image_evict. Detection runs go through an
// analysis.Session, so when runs for the same path overlap only the newest
// one becomes the path's last result.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal().Err(err).Msg("server stopped")
//	}
package server
