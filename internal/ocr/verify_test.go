package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createMarkedImage renders the deterrent text black on white, scaled up for
// reliable recognition.
func createMarkedImage(t *testing.T, text string, scale int) string {
	t.Helper()

	width := len(text)*7 + 40
	height := 40
	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(20), Y: fixed.I(25)},
	}
	d.DrawString(text)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "verify-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()
	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return tmpFile.Name()
}

func skipWithoutTesseract(t *testing.T, err error) {
	t.Helper()
	if strings.Contains(err.Error(), "tesseract") ||
		strings.Contains(err.Error(), "library") {
		t.Skip("Tesseract not available")
	}
}

func TestVerifyVisibleMark_Present(t *testing.T) {
	imgPath := createMarkedImage(t, "CONFIDENTIAL", 4)

	result, err := VerifyVisibleMark(imgPath, "CONFIDENTIAL", "eng")
	if err != nil {
		skipWithoutTesseract(t, err)
		t.Fatalf("VerifyVisibleMark failed: %v", err)
	}
	if !result.Present {
		t.Errorf("deterrent text not recognized; OCR saw %q", result.FullText)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("confidence: got %v, want (0, 1]", result.Confidence)
	}
}

func TestVerifyVisibleMark_Absent(t *testing.T) {
	imgPath := createMarkedImage(t, "HELLO", 4)

	result, err := VerifyVisibleMark(imgPath, "WATERMARK", "eng")
	if err != nil {
		skipWithoutTesseract(t, err)
		t.Fatalf("VerifyVisibleMark failed: %v", err)
	}
	if result.Present {
		t.Errorf("text that was never drawn reported present; OCR saw %q", result.FullText)
	}
}

func TestVerifyVisibleMark_EmptyExpectedText(t *testing.T) {
	if _, err := VerifyVisibleMark("ignored.png", "   ", "eng"); err == nil {
		t.Error("empty expected text should fail before OCR")
	}
}

func TestVerifyVisibleMark_MissingFile(t *testing.T) {
	_, err := VerifyVisibleMark("/nonexistent/image.png", "TEXT", "eng")
	if err == nil {
		t.Error("VerifyVisibleMark should fail for a missing file")
	}
}
