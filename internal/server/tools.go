package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Invisible image marks
		{
			Name:        "watermark_image_embed",
			Description: "Embed an invisible payload into an image with the keyed frequency-domain transform. Returns the watermarked artifact handle and the payload bit length. The bit length is mandatory for extraction and is not stored anywhere else; losing it makes the mark unrecoverable.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty("Absolute path to the carrier image"),
					"payload": map[string]interface{}{"type": "string", "description": "Payload text to hide"},
					"key_image": map[string]interface{}{
						"type":        "integer",
						"description": "Image key controlling the block shuffle. Default 1",
						"default":     1,
					},
					"key_watermark": map[string]interface{}{
						"type":        "integer",
						"description": "Watermark key controlling the bit whitening. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "payload"},
			},
		},
		{
			Name:        "watermark_image_extract",
			Description: "Extract an invisible payload from a watermarked image. Requires the exact bit length returned at embed time; a wrong length yields garbage of the requested size rather than an error, so check the printable_ratio in the result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the watermarked image"),
					"bit_length": map[string]interface{}{
						"type":        "integer",
						"description": "Payload bit length returned by watermark_image_embed",
					},
					"key_image": map[string]interface{}{
						"type":        "integer",
						"description": "Image key used at embed time. Default 1",
						"default":     1,
					},
					"key_watermark": map[string]interface{}{
						"type":        "integer",
						"description": "Watermark key used at embed time. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "bit_length"},
			},
		},
		{
			Name:        "watermark_image_attack",
			Description: "Apply a degradation to a watermarked image for robustness testing. Attack types: cut (params.box ratios, optional params.scale), resize (params.width/height), bright (params.ratio), shelter (params.ratio, params.n), salt_pepper (params.ratio), rot (params.angle).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image to degrade"),
					"attack_type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"cut", "resize", "bright", "shelter", "salt_pepper", "rot"},
						"description": "Degradation to apply",
					},
					"params": map[string]interface{}{
						"type":        "object",
						"description": "Attack-specific parameters; required fields depend on attack_type",
						"properties": map[string]interface{}{
							"box": map[string]interface{}{
								"type":        "object",
								"description": "cut: region to keep, as fractions of the image size",
								"properties": map[string]interface{}{
									"x1": map[string]interface{}{"type": "number"},
									"y1": map[string]interface{}{"type": "number"},
									"x2": map[string]interface{}{"type": "number"},
									"y2": map[string]interface{}{"type": "number"},
								},
							},
							"scale":  map[string]interface{}{"type": "number", "description": "cut: optional rescale factor"},
							"width":  map[string]interface{}{"type": "integer", "description": "resize: output width"},
							"height": map[string]interface{}{"type": "integer", "description": "resize: output height"},
							"ratio":  map[string]interface{}{"type": "number", "description": "bright/shelter/salt_pepper intensity"},
							"n":      map[string]interface{}{"type": "integer", "description": "shelter: block count"},
							"angle":  map[string]interface{}{"type": "number", "description": "rot: degrees clockwise"},
						},
					},
				},
				"required": []string{"path", "attack_type"},
			},
		},

		// Crop geometry recovery
		{
			Name:        "watermark_crop_estimate",
			Description: "Estimate where a cropped fragment was cut from its original image. Returns the crop box in the original's coordinate frame, the original's shape, and the match score. Fails with a no-match fault when the best score is below the confidence floor.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"original_path": pathProperty("Absolute path to the original (pre-crop) image"),
					"template_path": pathProperty("Absolute path to the cropped fragment"),
				},
				"required": []string{"original_path", "template_path"},
			},
		},
		{
			Name:        "watermark_crop_recover",
			Description: "Reconstruct a full-size canvas from a cropped fragment plus its crop box and the original shape, so invisible-mark extraction can run after a crop attack. Pixels outside the box get a neutral fill; the box must match the fragment's dimensions exactly; recovery never resizes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template_path": pathProperty("Absolute path to the cropped fragment"),
					"box": map[string]interface{}{
						"type":        "object",
						"description": "Crop box in the original's coordinate frame (x1/y1 inclusive, x2/y2 exclusive)",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"shape": map[string]interface{}{
						"type":        "object",
						"description": "Original image dimensions",
						"properties": map[string]interface{}{
							"width":  map[string]interface{}{"type": "integer"},
							"height": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"width", "height"},
					},
				},
				"required": []string{"template_path", "box", "shape"},
			},
		},

		// Invisible text marks
		{
			Name:        "watermark_text_embed",
			Description: "Embed an invisible payload into markup as zero-width marker characters. Mode 'document' inserts one run before the closing body tag (fails if the tag is absent); mode 'scope' appends a copy to every element matching scope_tags. Use one scope per distinct payload; extraction cannot separate mixed marks.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"markup":  map[string]interface{}{"type": "string", "description": "HTML markup to mutate"},
					"payload": map[string]interface{}{"type": "string", "description": "Payload text to hide"},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"document", "scope"},
						"description": "Embedding discipline. Default document",
						"default":     "document",
					},
					"scope_tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Element tag names forming the scope (scope mode only)",
					},
				},
				"required": []string{"markup", "payload"},
			},
		},
		{
			Name:        "watermark_text_extract",
			Description: "Recover an invisible payload from markup or flattened text. Extraction is structure-blind: marker characters survive regardless of surrounding content. Text with no markers yields an empty payload.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{"type": "string", "description": "Markup or text to scan"},
				},
				"required": []string{"text"},
			},
		},

		// Visible mark verification
		{
			Name:        "watermark_visible_verify",
			Description: "Check by OCR whether the expected visible deterrent text is still readable in an image, e.g. after an attack.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty("Absolute path to the image file"),
					"expected_text": map[string]interface{}{"type": "string", "description": "Deterrent text expected to appear"},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default eng",
						"default":     "eng",
					},
				},
				"required": []string{"path", "expected_text"},
			},
		},
	}
}
