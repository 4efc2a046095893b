// Package attack applies controlled degradations to watermarked images for
// robustness testing.
//
// The attack set mirrors the degradations a mark is expected to face in the
// wild: cropping, rescaling, brightness shifts, occlusion, impulse noise and
// rotation. Attacks are pure functions of their input image; randomized
// attacks (shelter, salt_pepper) draw from a per-call source so concurrent
// calls never share state.
package attack

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"time"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"

	"github.com/sealmark/watermark-mcp/internal/fault"
)

// Type enumerates the recognized attack kinds.
type Type string

const (
	Cut        Type = "cut"         // crop a sub-rectangle, optionally rescale
	Resize     Type = "resize"      // rescale to an explicit shape
	Bright     Type = "bright"      // multiply brightness by a ratio
	Shelter    Type = "shelter"     // occlude with random gray blocks
	SaltPepper Type = "salt_pepper" // impulse noise
	Rot        Type = "rot"         // rotate about the center
)

// ParseType validates a wire-format attack name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case Cut, Resize, Bright, Shelter, SaltPepper, Rot:
		return t, nil
	}
	return "", fault.New(fault.Validation, "unrecognized attack type %q", s)
}

// RatioBox is a sub-rectangle expressed as fractions of the image size,
// origin top-left.
type RatioBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Params carries the attack-specific knobs. Only the fields required by the
// chosen Type are consulted; missing required fields fail validation before
// any pixel work.
type Params struct {
	Box    *RatioBox `json:"box,omitempty"`    // cut: region to keep
	Scale  float64   `json:"scale,omitempty"`  // cut: optional rescale factor
	Width  int       `json:"width,omitempty"`  // resize
	Height int       `json:"height,omitempty"` // resize
	Ratio  float64   `json:"ratio,omitempty"`  // bright, shelter, salt_pepper
	N      int       `json:"n,omitempty"`      // shelter: block count
	Angle  float64   `json:"angle,omitempty"`  // rot: degrees clockwise
}

// Apply runs one attack and returns the degraded image. The input image is
// never mutated.
func Apply(img image.Image, typ Type, p Params) (image.Image, error) {
	if img == nil {
		return nil, fault.New(fault.Validation, "image is required")
	}
	switch typ {
	case Cut:
		return applyCut(img, p)
	case Resize:
		return applyResize(img, p)
	case Bright:
		return applyBright(img, p)
	case Shelter:
		return applyShelter(img, p)
	case SaltPepper:
		return applySaltPepper(img, p)
	case Rot:
		return applyRot(img, p)
	}
	return nil, fault.New(fault.Validation, "unrecognized attack type %q", typ)
}

func applyCut(img image.Image, p Params) (image.Image, error) {
	if p.Box == nil {
		return nil, fault.New(fault.Validation, "cut attack requires a box")
	}
	b := *p.Box
	if !(0 <= b.X1 && b.X1 < b.X2 && b.X2 <= 1 && 0 <= b.Y1 && b.Y1 < b.Y2 && b.Y2 <= 1) {
		return nil, fault.New(fault.Validation, "cut box ratios must satisfy 0 <= x1 < x2 <= 1 and 0 <= y1 < y2 <= 1")
	}
	if p.Scale < 0 {
		return nil, fault.New(fault.Validation, "cut scale must be positive, got %v", p.Scale)
	}
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	rect := image.Rect(int(b.X1*w), int(b.Y1*h), int(b.X2*w), int(b.Y2*h))
	out := imaging.Crop(img, rect.Add(bounds.Min))
	if p.Scale > 0 && p.Scale != 1 {
		nw := int(float64(out.Rect.Dx()) * p.Scale)
		nh := int(float64(out.Rect.Dy()) * p.Scale)
		out = imaging.Resize(out, nw, nh, imaging.Lanczos)
	}
	return out, nil
}

func applyResize(img image.Image, p Params) (image.Image, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fault.New(fault.Validation, "resize attack requires positive width and height")
	}
	return imaging.Resize(img, p.Width, p.Height, imaging.Lanczos), nil
}

func applyBright(img image.Image, p Params) (image.Image, error) {
	if p.Ratio <= 0 || p.Ratio > 2 {
		return nil, fault.New(fault.Validation, "bright ratio must be in (0, 2], got %v", p.Ratio)
	}
	// bild expresses brightness as a signed change; ratio 0.8 darkens by 20%.
	return adjust.Brightness(img, p.Ratio-1), nil
}

func applyShelter(img image.Image, p Params) (image.Image, error) {
	if p.Ratio <= 0 || p.Ratio >= 1 {
		return nil, fault.New(fault.Validation, "shelter ratio must be in (0, 1), got %v", p.Ratio)
	}
	if p.N <= 0 {
		return nil, fault.New(fault.Validation, "shelter attack requires a positive block count")
	}
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	bw := int(float64(w) * p.Ratio)
	bh := int(float64(h) * p.Ratio)
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gray := image.NewUniform(color.Gray{Y: 128})
	for i := 0; i < p.N; i++ {
		x := rng.Intn(w - bw + 1)
		y := rng.Intn(h - bh + 1)
		draw.Draw(out, image.Rect(x, y, x+bw, y+bh), gray, image.Point{}, draw.Src)
	}
	return out, nil
}

func applySaltPepper(img image.Image, p Params) (image.Image, error) {
	if p.Ratio <= 0 || p.Ratio >= 1 {
		return nil, fault.New(fault.Validation, "salt_pepper ratio must be in (0, 1), got %v", p.Ratio)
	}
	out := imaging.Clone(img)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Float64() >= p.Ratio {
				continue
			}
			v := uint8(0)
			if rng.Intn(2) == 1 {
				v = 255
			}
			i := y*out.Stride + x*4
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
		}
	}
	return out, nil
}

func applyRot(img image.Image, p Params) (image.Image, error) {
	if p.Angle == 0 {
		return nil, fault.New(fault.Validation, "rot attack requires a non-zero angle")
	}
	// imaging rotates counterclockwise; the wire format is clockwise degrees.
	return imaging.Rotate(img, -p.Angle, color.Gray{Y: 128}), nil
}
