package server

import (
	"encoding/json"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := newTestServer(t)
	if s.cache == nil || s.store == nil || s.audit == nil || s.marks == nil || s.crops == nil {
		t.Error("server is missing a capability")
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil {
		t.Fatal("initialize must produce a response")
	}
	if resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("initialize result has wrong shape")
	}
	info, ok := result["serverInfo"].(map[string]interface{})
	if !ok || info["name"] != "watermark-mcp" {
		t.Errorf("serverInfo: got %v", result["serverInfo"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 7, Method: "ping"})
	if resp == nil || resp.Error != nil {
		t.Fatal("ping must succeed")
	}
	if resp.ID != 7 {
		t.Errorf("response ID: got %v, want 7", resp.ID)
	}
}

func TestHandleRequest_NotificationProducesNoResponse(t *testing.T) {
	s := newTestServer(t)
	if resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}); resp != nil {
		t.Error("notifications must not be answered")
	}
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	if resp == nil || resp.Error == nil {
		t.Fatal("unknown method must produce an error response")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	if resp.Error != nil {
		t.Fatalf("tools/list failed: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools/list result has wrong shape")
	}
	if len(tools) != 8 {
		t.Errorf("tool count: got %d, want 8", len(tools))
	}

	names := make(map[string]bool)
	for _, tool := range tools {
		if tool.Name == "" || tool.Description == "" {
			t.Errorf("tool %q has an empty name or description", tool.Name)
		}
		if names[tool.Name] {
			t.Errorf("duplicate tool name %q", tool.Name)
		}
		names[tool.Name] = true
	}
	for _, want := range []string{
		"watermark_image_embed", "watermark_image_extract", "watermark_image_attack",
		"watermark_crop_estimate", "watermark_crop_recover",
		"watermark_text_embed", "watermark_text_extract", "watermark_visible_verify",
	} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0", ID: 4, Method: "tools/call",
		Params: json.RawMessage(`{not json`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("invalid params: got %+v, want code -32602", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0", ID: 5, Method: "tools/call",
		Params: json.RawMessage(`{"name":"watermark_teleport","arguments":{}}`),
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("unknown tool: got %+v, want code -32000", resp.Error)
	}
}
