// Package blindmark orchestrates invisible image marks over a keyed
// frequency-domain transform capability.
//
// The orchestrator itself holds no algorithmic knowledge: it passes the two
// keys through unchanged, bounds every delegation with the caller's context,
// and surfaces the bit length produced at embed time. That length is the
// only record of the mark's size; nothing inside the carrier describes it,
// so the caller owns the single copy and must retain it until extraction.
//
// Extraction with a wrong bit length is not detectable here. The transform
// returns a result of the requested length whose content is simply garbage;
// callers that need to notice should apply their own plausibility check,
// such as the printable-character ratio.
package blindmark

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/sealmark/watermark-mcp/internal/fault"
)

// Transform is the external keyed embedding capability. Implementations
// perturb image content in a frequency domain such that the payload is
// recoverable given both keys and the exact bit length produced at embed
// time.
type Transform interface {
	// Embed hides payload in img under the two keys and reports the number
	// of payload bits written, which extraction requires.
	Embed(ctx context.Context, img image.Image, payload []byte, keyImage, keyWatermark int) (image.Image, int, error)

	// Extract recovers bitLength bits from img under the two keys and packs
	// them into bytes. A bitLength that differs from the embed-time value
	// yields a result of the requested length with undefined content.
	Extract(ctx context.Context, img image.Image, bitLength int, keyImage, keyWatermark int) ([]byte, error)
}

// Orchestrator builds embed and extract requests against a Transform.
type Orchestrator struct {
	transform Transform
	timeout   time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each delegation to the transform. Zero disables the
// orchestrator-side deadline; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// New creates an Orchestrator. A nil transform is a construction-time
// validation fault, not a runtime check.
func New(transform Transform, opts ...Option) (*Orchestrator, error) {
	if transform == nil {
		return nil, fault.New(fault.Validation, "transform capability is required")
	}
	o := &Orchestrator{transform: transform}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Embed hides payload in img and returns the watermarked image together
// with the payload's bit length. The caller now owns the only copy of that
// length; losing it makes the mark permanently unrecoverable.
func (o *Orchestrator) Embed(ctx context.Context, img image.Image, payload []byte, keyImage, keyWatermark int) (image.Image, int, error) {
	if img == nil {
		return nil, 0, fault.New(fault.Validation, "image is required")
	}
	if len(payload) == 0 {
		return nil, 0, fault.New(fault.Validation, "payload is empty")
	}
	ctx, cancel := o.window(ctx)
	defer cancel()

	out, bits, err := o.transform.Embed(ctx, img, payload, keyImage, keyWatermark)
	if err != nil {
		return nil, 0, o.classify(ctx, err, "embedding failed")
	}
	return out, bits, nil
}

// Extract recovers a payload of the supplied bit length. The length cannot
// be validated against the carrier, so a wrong value silently produces
// garbage rather than an error.
func (o *Orchestrator) Extract(ctx context.Context, img image.Image, bitLength int, keyImage, keyWatermark int) ([]byte, error) {
	if img == nil {
		return nil, fault.New(fault.Validation, "image is required")
	}
	if bitLength <= 0 {
		return nil, fault.New(fault.Validation, "bit length must be positive, got %d", bitLength)
	}
	ctx, cancel := o.window(ctx)
	defer cancel()

	payload, err := o.transform.Extract(ctx, img, bitLength, keyImage, keyWatermark)
	if err != nil {
		return nil, o.classify(ctx, err, "extraction failed")
	}
	return payload, nil
}

func (o *Orchestrator) window(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) classify(ctx context.Context, err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fault.Wrap(fault.Timeout, err, op)
	}
	return fault.Wrap(fault.Capability, err, op)
}

// PrintableRatio is the plausibility check suggested for wrong-length
// extraction results: the fraction of payload bytes that are printable
// ASCII. An empty payload scores zero.
func PrintableRatio(payload []byte) float64 {
	if len(payload) == 0 {
		return 0
	}
	printable := 0
	for _, b := range payload {
		if b >= 0x20 && b < 0x7f {
			printable++
		}
	}
	return float64(printable) / float64(len(payload))
}
