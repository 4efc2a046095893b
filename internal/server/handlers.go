package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sealmark/watermark-mcp/internal/attack"
	"github.com/sealmark/watermark-mcp/internal/blindmark"
	"github.com/sealmark/watermark-mcp/internal/cropgeom"
	"github.com/sealmark/watermark-mcp/internal/fault"
	"github.com/sealmark/watermark-mcp/internal/ocr"
	"github.com/sealmark/watermark-mcp/internal/textmark"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "watermark_image_embed").
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
// Tool execution errors return a JSON-RPC error response with code -32000;
// the error data begins with the stable fault kind when one applies.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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

// executeTool dispatches tool execution and records the outcome in the
// audit log.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	start := time.Now()
	result, err := s.dispatchTool(name, args)
	s.audit.Record(name, "tools/call", err, time.Since(start), nil)
	return result, err
}

func (s *Server) dispatchTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Invisible image marks
	case "watermark_image_embed":
		return s.handleImageEmbed(args)
	case "watermark_image_extract":
		return s.handleImageExtract(args)
	case "watermark_image_attack":
		return s.handleImageAttack(args)

	// Crop geometry recovery
	case "watermark_crop_estimate":
		return s.handleCropEstimate(args)
	case "watermark_crop_recover":
		return s.handleCropRecover(args)

	// Invisible text marks
	case "watermark_text_embed":
		return s.handleTextEmbed(args)
	case "watermark_text_extract":
		return s.handleTextExtract(args)

	// Visible mark verification
	case "watermark_visible_verify":
		return s.handleVisibleVerify(args)

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

// window bounds one tool call. All operations are single-request
// transactions; a deadline here is what turns a stuck capability into a
// timeout fault instead of a hang.
func (s *Server) window() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// === Invisible Image Mark Handlers ===

type imageEmbedArgs struct {
	Path         string `json:"path"`
	Payload      string `json:"payload"`
	KeyImage     int    `json:"key_image"`
	KeyWatermark int    `json:"key_watermark"`
}

// ImageEmbedResult is the embed response. BitLength is the caller's only
// copy of the mark's size; it is required to extract and is not stored
// anywhere else.
type ImageEmbedResult struct {
	OutputHandle string `json:"output_handle"`
	OutputPath   string `json:"output_path"`
	BitLength    int    `json:"bit_length"`
}

func (s *Server) handleImageEmbed(args json.RawMessage) (interface{}, error) {
	var a imageEmbedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	applyKeyDefaults(&a.KeyImage, &a.KeyWatermark)

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.window()
	defer cancel()
	marked, bits, err := s.marks.Embed(ctx, img, []byte(a.Payload), a.KeyImage, a.KeyWatermark)
	if err != nil {
		return nil, err
	}

	handle, err := s.store.WriteImage("blind", marked)
	if err != nil {
		return nil, err
	}
	path, _ := s.store.Path(handle)
	return &ImageEmbedResult{OutputHandle: handle, OutputPath: path, BitLength: bits}, nil
}

type imageExtractArgs struct {
	Path         string `json:"path"`
	BitLength    int    `json:"bit_length"`
	KeyImage     int    `json:"key_image"`
	KeyWatermark int    `json:"key_watermark"`
}

// ImageExtractResult carries the recovered payload. PrintableRatio is the
// plausibility score for detecting the wrong-bit-length garbage case; a
// wrong length is not an error here.
type ImageExtractResult struct {
	Payload        string  `json:"payload"`
	PrintableRatio float64 `json:"printable_ratio"`
}

func (s *Server) handleImageExtract(args json.RawMessage) (interface{}, error) {
	var a imageExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	applyKeyDefaults(&a.KeyImage, &a.KeyWatermark)

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.window()
	defer cancel()
	payload, err := s.marks.Extract(ctx, img, a.BitLength, a.KeyImage, a.KeyWatermark)
	if err != nil {
		return nil, err
	}
	return &ImageExtractResult{
		Payload:        string(payload),
		PrintableRatio: blindmark.PrintableRatio(payload),
	}, nil
}

type imageAttackArgs struct {
	Path       string        `json:"path"`
	AttackType string        `json:"attack_type"`
	Params     attack.Params `json:"params"`
}

// ImageAttackResult names the degraded artifact.
type ImageAttackResult struct {
	OutputHandle string `json:"output_handle"`
	OutputPath   string `json:"output_path"`
	AttackType   string `json:"attack_type"`
}

func (s *Server) handleImageAttack(args json.RawMessage) (interface{}, error) {
	var a imageAttackArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	typ, err := attack.ParseType(a.AttackType)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	degraded, err := attack.Apply(img, typ, a.Params)
	if err != nil {
		return nil, err
	}
	handle, err := s.store.WriteImage("attacked_"+string(typ), degraded)
	if err != nil {
		return nil, err
	}
	path, _ := s.store.Path(handle)
	return &ImageAttackResult{OutputHandle: handle, OutputPath: path, AttackType: string(typ)}, nil
}

// === Crop Geometry Handlers ===

type cropEstimateArgs struct {
	OriginalPath string `json:"original_path"`
	TemplatePath string `json:"template_path"`
}

// CropEstimateResult reports where the template sat inside the original.
type CropEstimateResult struct {
	Box   cropgeom.Box   `json:"box"`
	Shape cropgeom.Shape `json:"shape"`
	Score float64        `json:"score"`
}

func (s *Server) handleCropEstimate(args json.RawMessage) (interface{}, error) {
	var a cropEstimateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	original, err := s.cache.Load(a.OriginalPath)
	if err != nil {
		return nil, err
	}
	template, err := s.cache.Load(a.TemplatePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.window()
	defer cancel()
	box, shape, score, err := s.crops.EstimateCrop(ctx, original, template)
	if err != nil {
		return nil, err
	}
	return &CropEstimateResult{Box: box, Shape: shape, Score: score}, nil
}

type cropRecoverArgs struct {
	TemplatePath string         `json:"template_path"`
	Box          cropgeom.Box   `json:"box"`
	Shape        cropgeom.Shape `json:"shape"`
}

// CropRecoverResult names the reconstructed canvas artifact.
type CropRecoverResult struct {
	OutputHandle string `json:"output_handle"`
	OutputPath   string `json:"output_path"`
}

func (s *Server) handleCropRecover(args json.RawMessage) (interface{}, error) {
	var a cropRecoverArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	template, err := s.cache.Load(a.TemplatePath)
	if err != nil {
		return nil, err
	}
	canvas, err := s.crops.RecoverCrop(template, a.Box, a.Shape)
	if err != nil {
		return nil, err
	}
	handle, err := s.store.WriteImage("recovered", canvas)
	if err != nil {
		return nil, err
	}
	path, _ := s.store.Path(handle)
	return &CropRecoverResult{OutputHandle: handle, OutputPath: path}, nil
}

// === Invisible Text Mark Handlers ===

type textEmbedArgs struct {
	Markup  string `json:"markup"`
	Payload string `json:"payload"`

	// Mode selects the embedding discipline: "scope" writes one copy per
	// matching element, "document" inserts a single run before </body>.
	Mode      string   `json:"mode"`
	ScopeTags []string `json:"scope_tags"`
}

// TextEmbedResult carries the mutated markup.
type TextEmbedResult struct {
	Markup string `json:"markup"`
}

func (s *Server) handleTextEmbed(args json.RawMessage) (interface{}, error) {
	var a textEmbedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	switch a.Mode {
	case "", "document":
		out, err := textmark.EmbedIntoDocument(a.Markup, []byte(a.Payload))
		if err != nil {
			return nil, err
		}
		return &TextEmbedResult{Markup: out}, nil
	case "scope":
		if len(a.ScopeTags) == 0 {
			return nil, fault.New(fault.Validation, "scope mode requires scope_tags")
		}
		out, err := textmark.EmbedIntoMarkupScope(a.Markup, a.ScopeTags, []byte(a.Payload))
		if err != nil {
			return nil, err
		}
		return &TextEmbedResult{Markup: out}, nil
	default:
		return nil, fault.New(fault.Validation, "unrecognized embed mode %q", a.Mode)
	}
}

type textExtractArgs struct {
	// Text is the markup or flattened text to scan. Extraction is
	// structure-blind, so either form works.
	Text string `json:"text"`
}

// TextExtractResult carries the recovered payload.
type TextExtractResult struct {
	Payload string `json:"payload"`
}

func (s *Server) handleTextExtract(args json.RawMessage) (interface{}, error) {
	var a textExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return &TextExtractResult{Payload: string(textmark.ExtractFromDocument(a.Text))}, nil
}

// === Visible Mark Verification Handler ===

type visibleVerifyArgs struct {
	Path         string `json:"path"`
	ExpectedText string `json:"expected_text"`
	Language     string `json:"language"`
}

func (s *Server) handleVisibleVerify(args json.RawMessage) (interface{}, error) {
	var a visibleVerifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = "eng"
	}
	return ocr.VerifyVisibleMark(a.Path, a.ExpectedText, a.Language)
}

// applyKeyDefaults fills in the default key of 1 for omitted key fields,
// matching the wire contract.
func applyKeyDefaults(keys ...*int) {
	for _, k := range keys {
		if *k == 0 {
			*k = 1
		}
	}
}
