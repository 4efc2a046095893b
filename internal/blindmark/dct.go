package blindmark

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// DCTTransform is the default Transform: payload bits are hidden in the
// quantized parity of one mid-band DCT coefficient per 8x8 block of the
// blue channel. keyImage seeds the block-order shuffle and keyWatermark
// seeds the bit whitening, so both keys are needed to recover anything.
//
// Each bit is written redundantly into several blocks and recovered by
// majority vote, which is what gives the mark its (limited) robustness to
// local damage such as shelter blocks and mild brightness shifts.
type DCTTransform struct {
	// Strength is the quantization step applied to the carrier coefficient.
	// Larger values survive more degradation at the cost of visibility.
	// Zero means the default of 36.
	Strength float64

	// Redundancy is the number of blocks carrying each bit. Zero means the
	// default of 3.
	Redundancy int
}

const dctBlock = 8

// carrier coefficient position inside each block. Mid-band: low enough to
// survive smoothing, high enough to stay invisible.
const (
	carrierU = 3
	carrierV = 2
)

func (t *DCTTransform) strength() float64 {
	if t.Strength > 0 {
		return t.Strength
	}
	return 36
}

func (t *DCTTransform) redundancy() int {
	if t.Redundancy > 0 {
		return t.Redundancy
	}
	return 3
}

// Embed implements Transform.
func (t *DCTTransform) Embed(ctx context.Context, img image.Image, payload []byte, keyImage, keyWatermark int) (image.Image, int, error) {
	base := imaging.Clone(img)
	w, h := base.Rect.Dx(), base.Rect.Dy()
	blocksX, blocksY := w/dctBlock, h/dctBlock
	nblocks := blocksX * blocksY

	bits := bytesToBits(payload)
	capacity := nblocks / t.redundancy()
	if len(bits) > capacity {
		return nil, 0, fmt.Errorf("payload needs %d bits but a %dx%d image carries at most %d", len(bits), w, h, capacity)
	}

	whiten(bits, keyWatermark)
	order := rand.New(rand.NewSource(int64(keyImage))).Perm(nblocks)

	step := t.strength()
	red := t.redundancy()
	for i, bit := range bits {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		for r := 0; r < red; r++ {
			bi := order[i*red+r]
			bx, by := (bi%blocksX)*dctBlock, (bi/blocksX)*dctBlock
			writeBit(base, bx, by, bit, step)
		}
	}
	return base, len(bits), nil
}

// Extract implements Transform.
func (t *DCTTransform) Extract(ctx context.Context, img image.Image, bitLength int, keyImage, keyWatermark int) ([]byte, error) {
	base := imaging.Clone(img)
	w, h := base.Rect.Dx(), base.Rect.Dy()
	blocksX, blocksY := w/dctBlock, h/dctBlock
	nblocks := blocksX * blocksY

	capacity := nblocks / t.redundancy()
	if bitLength > capacity {
		return nil, fmt.Errorf("requested %d bits but a %dx%d image carries at most %d", bitLength, w, h, capacity)
	}

	order := rand.New(rand.NewSource(int64(keyImage))).Perm(nblocks)
	step := t.strength()
	red := t.redundancy()

	bits := make([]byte, bitLength)
	for i := range bits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		votes := 0
		for r := 0; r < red; r++ {
			bi := order[i*red+r]
			bx, by := (bi%blocksX)*dctBlock, (bi/blocksX)*dctBlock
			votes += readBit(base, bx, by, step)
		}
		if votes*2 > red {
			bits[i] = 1
		}
	}
	whiten(bits, keyWatermark)
	return bitsToBytes(bits), nil
}

// writeBit forces the parity of the carrier coefficient in the block at
// (bx, by) to bit, then writes the reconstructed block back.
func writeBit(img *image.NRGBA, bx, by int, bit byte, step float64) {
	var block [dctBlock][dctBlock]float64
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			block[y][x] = float64(img.Pix[(by+y)*img.Stride+(bx+x)*4+2])
		}
	}
	coeffs := dct2(&block)
	c := coeffs[carrierV][carrierU]
	q := math.Round(c / step)
	if int64(q)&1 != int64(bit) {
		if c/step >= q {
			q++
		} else {
			q--
		}
	}
	coeffs[carrierV][carrierU] = q * step
	rebuilt := idct2(&coeffs)
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			img.Pix[(by+y)*img.Stride+(bx+x)*4+2] = clampByte(rebuilt[y][x])
		}
	}
}

// readBit recovers the parity of the carrier coefficient in one block.
func readBit(img *image.NRGBA, bx, by int, step float64) int {
	var block [dctBlock][dctBlock]float64
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			block[y][x] = float64(img.Pix[(by+y)*img.Stride+(bx+x)*4+2])
		}
	}
	coeffs := dct2(&block)
	return int(int64(math.Round(coeffs[carrierV][carrierU]/step)) & 1)
}

// whiten XORs bits with a keystream seeded by the watermark key. Applying
// it twice with the same key is the identity, so the same call serves both
// directions.
func whiten(bits []byte, keyWatermark int) {
	rng := rand.New(rand.NewSource(int64(keyWatermark)))
	for i := range bits {
		bits[i] ^= byte(rng.Intn(2))
	}
}

func bytesToBits(payload []byte) []byte {
	bits := make([]byte, 0, len(payload)*8)
	for _, by := range payload {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, by>>uint(shift)&1)
		}
	}
	return bits
}

// bitsToBytes groups bits big-endian, dropping a trailing group of fewer
// than 8 bits.
func bitsToBytes(bits []byte) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var by byte
		for j := 0; j < 8; j++ {
			by = by<<1 | bits[i+j]
		}
		out = append(out, by)
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// cosTable[x][u] = cos((2x+1) * u * pi / 16), shared by both directions.
var cosTable = func() (t [dctBlock][dctBlock]float64) {
	for x := 0; x < dctBlock; x++ {
		for u := 0; u < dctBlock; u++ {
			t[x][u] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
		}
	}
	return
}()

func dctScale(u int) float64 {
	if u == 0 {
		return math.Sqrt2 / 2
	}
	return 1
}

// dct2 is the 8x8 type-II DCT.
func dct2(block *[dctBlock][dctBlock]float64) (out [dctBlock][dctBlock]float64) {
	for v := 0; v < dctBlock; v++ {
		for u := 0; u < dctBlock; u++ {
			var sum float64
			for y := 0; y < dctBlock; y++ {
				for x := 0; x < dctBlock; x++ {
					sum += block[y][x] * cosTable[x][u] * cosTable[y][v]
				}
			}
			out[v][u] = sum * dctScale(u) * dctScale(v) / 4
		}
	}
	return
}

// idct2 inverts dct2.
func idct2(coeffs *[dctBlock][dctBlock]float64) (out [dctBlock][dctBlock]float64) {
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			var sum float64
			for v := 0; v < dctBlock; v++ {
				for u := 0; u < dctBlock; u++ {
					sum += dctScale(u) * dctScale(v) * coeffs[v][u] * cosTable[x][u] * cosTable[y][v]
				}
			}
			out[y][x] = sum / 4
		}
	}
	return
}
