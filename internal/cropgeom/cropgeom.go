// Package cropgeom recovers the geometry destroyed by a crop attack.
//
// A cropped fragment of a watermarked image loses the spatial reference the
// invisible-mark extractor needs. EstimateCrop locates where the fragment
// sat inside the original, and RecoverCrop rebuilds a full-size canvas with
// the fragment at that position and a neutral fill elsewhere, so extraction
// can proceed as if the crop never happened (subject to the transform's own
// crop robustness).
package cropgeom

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/sealmark/watermark-mcp/internal/fault"
)

// Box is a crop rectangle in the original image's coordinate frame, origin
// top-left, x1/y1 inclusive, x2/y2 exclusive.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Dx and Dy report the box dimensions.
func (b Box) Dx() int { return b.X2 - b.X1 }
func (b Box) Dy() int { return b.Y2 - b.Y1 }

// Shape is the size of the original, pre-crop image.
type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Matcher is the injected template-matching capability. Match returns the
// best-aligned position of template inside original and a similarity score;
// ties within matching tolerance resolve to the first position in
// raster-scan order.
type Matcher interface {
	Match(ctx context.Context, original, template image.Image) (Box, float64, error)
}

// Resolver estimates crop geometry and reconstructs extraction canvases.
type Resolver struct {
	matcher Matcher
	floor   float64
	fill    color.NRGBA
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithConfidenceFloor sets the minimum match score below which EstimateCrop
// reports no match. The default is 0.5.
func WithConfidenceFloor(floor float64) Option {
	return func(r *Resolver) error {
		r.floor = floor
		return nil
	}
}

// WithFillHex sets the neutral fill color used outside the recovered crop,
// as a hex string like "#808080".
func WithFillHex(hex string) Option {
	return func(r *Resolver) error {
		c, err := colorful.Hex(hex)
		if err != nil {
			return fault.Wrap(fault.Validation, err, "fill color %q", hex)
		}
		cr, cg, cb := c.RGB255()
		r.fill = color.NRGBA{R: cr, G: cg, B: cb, A: 255}
		return nil
	}
}

// New creates a Resolver. A nil matcher is a construction-time validation
// fault.
func New(matcher Matcher, opts ...Option) (*Resolver, error) {
	if matcher == nil {
		return nil, fault.New(fault.Validation, "matching capability is required")
	}
	r := &Resolver{
		matcher: matcher,
		floor:   0.5,
		fill:    color.NRGBA{R: 128, G: 128, B: 128, A: 255},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// EstimateCrop locates the sub-region of original that best matches
// template and returns its box, the original's shape and the match score.
// A best score below the confidence floor is a no-match fault, distinct
// from a capability fault.
func (r *Resolver) EstimateCrop(ctx context.Context, original, template image.Image) (Box, Shape, float64, error) {
	if original == nil || template == nil {
		return Box{}, Shape{}, 0, fault.New(fault.Validation, "original and template images are required")
	}
	ob, tb := original.Bounds(), template.Bounds()
	shape := Shape{Width: ob.Dx(), Height: ob.Dy()}
	if tb.Dx() > ob.Dx() || tb.Dy() > ob.Dy() {
		return Box{}, Shape{}, 0, fault.New(fault.Validation,
			"template %dx%d does not fit inside original %dx%d", tb.Dx(), tb.Dy(), shape.Width, shape.Height)
	}

	box, score, err := r.matcher.Match(ctx, original, template)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Box{}, Shape{}, 0, fault.Wrap(fault.Timeout, err, "template matching")
		}
		return Box{}, Shape{}, 0, fault.Wrap(fault.Capability, err, "template matching")
	}
	if score < r.floor {
		return Box{}, Shape{}, 0, fault.New(fault.NoMatch,
			"best match score %.3f is below the confidence floor %.3f", score, r.floor)
	}
	return box, shape, score, nil
}

// RecoverCrop reconstructs a canvas of the given shape with template's
// pixels placed exactly at box and the neutral fill everywhere else. The
// box dimensions must equal the template's exactly; resizing would corrupt
// the frequency-domain mark, so a mismatch fails instead.
func (r *Resolver) RecoverCrop(template image.Image, box Box, shape Shape) (image.Image, error) {
	if template == nil {
		return nil, fault.New(fault.Validation, "template image is required")
	}
	if shape.Width <= 0 || shape.Height <= 0 {
		return nil, fault.New(fault.Validation, "canvas shape must be positive, got %dx%d", shape.Width, shape.Height)
	}
	if !(0 <= box.X1 && box.X1 < box.X2 && box.X2 <= shape.Width &&
		0 <= box.Y1 && box.Y1 < box.Y2 && box.Y2 <= shape.Height) {
		return nil, fault.New(fault.Validation, "crop box %+v is outside the %dx%d canvas", box, shape.Width, shape.Height)
	}
	tb := template.Bounds()
	if tb.Dx() != box.Dx() || tb.Dy() != box.Dy() {
		return nil, fault.New(fault.Validation,
			"crop box is %dx%d but template is %dx%d; recovery never resizes", box.Dx(), box.Dy(), tb.Dx(), tb.Dy())
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, shape.Width, shape.Height))
	draw.Draw(canvas, canvas.Rect, image.NewUniform(r.fill), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(box.X1, box.Y1, box.X2, box.Y2), template, tb.Min, draw.Src)
	return canvas, nil
}
