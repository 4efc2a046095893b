// Package ocr verifies visible deterrent marks.
//
// Rendering visible overlays is a collaborator concern; this package only
// reads. Given a rendered image and the deterrent text that should appear
// in it, VerifyVisibleMark reports whether OCR still finds that text, which
// is how the tiled overlay's survival is checked after an attack.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// VerifyResult reports whether the expected deterrent text survives in the
// image.
type VerifyResult struct {
	// Present is true when every token of the expected text was recognized.
	Present bool `json:"present"`

	// Confidence is the mean OCR confidence (0.0 to 1.0) of the words that
	// matched expected tokens; zero when nothing matched.
	Confidence float64 `json:"confidence"`

	// FullText is everything OCR recognized, for caller-side inspection.
	FullText string `json:"full_text"`
}

// VerifyVisibleMark runs OCR over the image at path and checks for the
// expected text. Matching is case-insensitive and token-based, so partial
// occlusion of one tile can still verify against another.
func VerifyVisibleMark(path, expectedText, language string) (*VerifyResult, error) {
	if strings.TrimSpace(expectedText) == "" {
		return nil, fmt.Errorf("expected text is empty")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	tokens := strings.Fields(strings.ToLower(expectedText))
	recognized := strings.ToLower(text)
	present := true
	for _, tok := range tokens {
		if !strings.Contains(recognized, tok) {
			present = false
			break
		}
	}

	confidence := 0.0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		matched := 0
		var sum float64
		for _, box := range boxes {
			word := strings.ToLower(strings.TrimSpace(box.Word))
			if word == "" {
				continue
			}
			for _, tok := range tokens {
				if strings.Contains(word, tok) || strings.Contains(tok, word) {
					matched++
					sum += float64(box.Confidence)
					break
				}
			}
		}
		if matched > 0 {
			confidence = sum / float64(matched) / 100
		}
	}

	return &VerifyResult{
		Present:    present,
		Confidence: confidence,
		FullText:   text,
	}, nil
}
