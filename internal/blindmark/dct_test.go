package blindmark

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
)

// gradientImage returns a smooth synthetic carrier with content in every
// channel.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func TestDCTTransform_RoundTrip(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(128, 128)
	payload := []byte("Go")

	marked, bits, err := tr.Embed(context.Background(), carrier, payload, 1, 1)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if bits != len(payload)*8 {
		t.Errorf("bit length: got %d, want %d", bits, len(payload)*8)
	}

	got, err := tr.Extract(context.Background(), marked, bits, 1, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip: got %v, want %v", got, payload)
	}
}

func TestDCTTransform_RoundTripWithKeys(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(160, 120)
	payload := []byte("k9")

	marked, bits, err := tr.Embed(context.Background(), carrier, payload, 42, 1337)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	got, err := tr.Extract(context.Background(), marked, bits, 42, 1337)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip with keys: got %v, want %v", got, payload)
	}
}

func TestDCTTransform_WrongKeyYieldsGarbage(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(160, 160)
	payload := []byte("top!")

	marked, bits, err := tr.Embed(context.Background(), carrier, payload, 1, 1)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	got, err := tr.Extract(context.Background(), marked, bits, 2, 1)
	if err != nil {
		t.Fatalf("Extract with wrong key must not fail: %v", err)
	}
	if bytes.Equal(got, payload) {
		t.Error("wrong image key recovered the payload; keys are not binding the mark")
	}
}

func TestDCTTransform_WrongBitLengthDoesNotFail(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(128, 128)
	payload := []byte("hello") // 40 bits

	marked, bits, err := tr.Embed(context.Background(), carrier, payload, 1, 1)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if bits != 40 {
		t.Fatalf("bit length: got %d, want 40", bits)
	}

	// Too short and too long both return a result of the requested size
	// with undefined content; neither is an error.
	for _, wrong := range []int{32, 48} {
		got, err := tr.Extract(context.Background(), marked, wrong, 1, 1)
		if err != nil {
			t.Fatalf("Extract with bitLength %d must not fail: %v", wrong, err)
		}
		if len(got) != wrong/8 {
			t.Errorf("bitLength %d: got %d bytes, want %d", wrong, len(got), wrong/8)
		}
	}
}

func TestDCTTransform_CapacityExceeded(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(16, 16) // 4 blocks, capacity 1 bit

	_, _, err := tr.Embed(context.Background(), carrier, []byte("far too large"), 1, 1)
	if err == nil {
		t.Fatal("Embed should fail when the payload exceeds capacity")
	}
}

func TestDCTTransform_ExtractBeyondCapacity(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(16, 16)

	_, err := tr.Extract(context.Background(), carrier, 1024, 1, 1)
	if err == nil {
		t.Fatal("Extract should fail when bitLength exceeds capacity")
	}
}

func TestDCTTransform_PreservesDimensions(t *testing.T) {
	tr := &DCTTransform{}
	carrier := gradientImage(100, 60)

	marked, _, err := tr.Embed(context.Background(), carrier, []byte("x"), 1, 1)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b := marked.Bounds()
	if b.Dx() != 100 || b.Dy() != 60 {
		t.Errorf("dimensions: got %dx%d, want 100x60", b.Dx(), b.Dy())
	}
}

func TestBitsBytes_DropsPartialGroup(t *testing.T) {
	bits := bytesToBits([]byte{0xC3})
	bits = append(bits, 1, 0, 1) // 11 bits total

	got := bitsToBytes(bits)
	if len(got) != 1 || got[0] != 0xC3 {
		t.Errorf("bitsToBytes: got %v, want [0xC3]", got)
	}
}
