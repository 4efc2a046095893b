package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sealmark/watermark-mcp/internal/artifacts"
	"github.com/sealmark/watermark-mcp/internal/blindmark"
	"github.com/sealmark/watermark-mcp/internal/cropgeom"
	"github.com/sealmark/watermark-mcp/internal/imageio"
	"github.com/sealmark/watermark-mcp/internal/oplog"
)

// Server handles MCP protocol communication for the watermark tools.
type Server struct {
	cache   *imageio.Cache
	store   *artifacts.Store
	audit   *oplog.Logger
	marks   *blindmark.Orchestrator
	crops   *cropgeom.Resolver
	timeout time.Duration
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a watermark MCP server rooted at dataDir, which receives
// output artifacts and the audit log. The default capabilities (the keyed
// DCT transform and the NCC template matcher) are injected here, so a
// missing capability fails construction rather than a request.
func New(dataDir string) (*Server, error) {
	store, err := artifacts.NewStore(filepath.Join(dataDir, "output"))
	if err != nil {
		return nil, err
	}
	audit, err := oplog.New(filepath.Join(dataDir, "logs"))
	if err != nil {
		return nil, err
	}
	marks, err := blindmark.New(&blindmark.DCTTransform{})
	if err != nil {
		return nil, err
	}
	crops, err := cropgeom.New(cropgeom.NCCMatcher{})
	if err != nil {
		return nil, err
	}
	return &Server{
		cache:   imageio.NewCache(),
		store:   store,
		audit:   audit,
		marks:   marks,
		crops:   crops,
		timeout: 2 * time.Minute,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	// Inline markup payloads need more room than typical requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "watermark-mcp",
				"version": "0.1.0",
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
