// Package server implements the MCP (Model Context Protocol) server for the
// watermark tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the invisible
// provenance-mark operations through the MCP protocol, enabling MCP-compatible
// clients to embed, attack, recover and extract marks in images and markup.
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
// Invisible image marks:
//   - watermark_image_embed: Hide a payload via the keyed transform
//   - watermark_image_extract: Recover a payload given its bit length
//   - watermark_image_attack: Degrade an image for robustness testing
//
// Crop geometry recovery:
//   - watermark_crop_estimate: Locate a cropped fragment in its original
//   - watermark_crop_recover: Rebuild a full-size extraction canvas
//
// Invisible text marks:
//   - watermark_text_embed: Hide a payload in markup as zero-width markers
//   - watermark_text_extract: Recover a payload from markup or text
//
// Visible mark verification:
//   - watermark_visible_verify: OCR check that deterrent text survives
//
// # Artifacts
//
// Tools that produce images write them as PNG artifacts under the server's
// data directory and return an opaque handle plus the absolute path. Writes
// are atomic; a failed call leaves no partial artifact. Input images are
// cached in memory by path across calls within a session.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error detail, prefixed with a stable fault kind
//     (validation, capability, no_match, timeout) when one applies
//
// A wrong bit length at extraction is deliberately NOT an error: the result
// is garbage of the requested length, and the printable_ratio field is the
// caller's plausibility signal.
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv, err := server.New(dataDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
