// Package zwcodec converts byte payloads to and from runs of zero-width
// marker characters.
//
// Two distinguishable characters that render with no visible width carry the
// bits: the zero-width non-joiner marks a 0 and the zero-width joiner marks
// a 1. A marker run can be appended to any visible text without changing its
// appearance, and decoding ignores everything that is not one of the two
// markers, so the run survives arbitrary surrounding content.
package zwcodec

import "strings"

// Marker characters. Both render with zero width and neither occurs in
// ordinary visible content.
const (
	Zero = '\u200c' // zero-width non-joiner, carries a 0 bit
	One  = '\u200d' // zero-width joiner, carries a 1 bit
)

// utf8MarkerLen is the encoded size of either marker (both are 3 bytes).
const utf8MarkerLen = 3

// Encode maps a payload to a marker run: each byte becomes its 8-bit binary
// representation most-significant-bit first, in byte order. Encoding is total
// and deterministic; an empty payload yields an empty string.
func Encode(payload []byte) string {
	var b strings.Builder
	b.Grow(len(payload) * 8 * utf8MarkerLen)
	for _, by := range payload {
		for shift := 7; shift >= 0; shift-- {
			if by>>uint(shift)&1 == 1 {
				b.WriteRune(One)
			} else {
				b.WriteRune(Zero)
			}
		}
	}
	return b.String()
}

// Decode recovers a payload from arbitrary text. Non-marker characters are
// ignored (not treated as separators), marker order is preserved, bits are
// grouped into bytes big-endian, and a trailing group of fewer than 8 bits
// is dropped. Text with no markers decodes to an empty payload.
func Decode(text string) []byte {
	bits := make([]byte, 0, len(text)/utf8MarkerLen)
	for _, r := range text {
		switch r {
		case Zero:
			bits = append(bits, 0)
		case One:
			bits = append(bits, 1)
		}
	}

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

// Codec is a freely instantiable, stateless codec value. The zero value is
// ready to use.
type Codec struct{}

func (Codec) Encode(payload []byte) string { return Encode(payload) }

func (Codec) Decode(text string) []byte { return Decode(text) }
