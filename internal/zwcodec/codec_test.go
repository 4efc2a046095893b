package zwcodec

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"ascii", []byte("AB")},
		{"single byte", []byte{0x41}},
		{"zero byte", []byte{0x00}},
		{"full byte", []byte{0xFF}},
		{"mixed", []byte{0x00, 0x7F, 0x80, 0xFF}},
		{"longer text", []byte("provenance mark payload")},
		{"utf8 bytes", []byte("héllo")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(Encode(tt.payload))
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("round trip: got %v, want %v", got, tt.payload)
			}
		})
	}
}

func TestEncode_Length(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 100} {
		payload := bytes.Repeat([]byte{0xA5}, n)
		run := Encode(payload)
		if got := len([]rune(run)); got != 8*n {
			t.Errorf("Encode length for %d bytes: got %d markers, want %d", n, got, 8*n)
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	if run := Encode(nil); run != "" {
		t.Errorf("Encode(nil): got %q, want empty", run)
	}
}

func TestDecode_NoMarkers(t *testing.T) {
	for _, text := range []string{"", "plain visible text", "<p>markup only</p>", "日本語"} {
		if got := Decode(text); len(got) != 0 {
			t.Errorf("Decode(%q): got %v, want empty", text, got)
		}
	}
}

func TestDecode_IgnoresInterleavedText(t *testing.T) {
	payload := []byte("AB")
	run := []rune(Encode(payload))

	// Scatter visible characters between every marker
	var b strings.Builder
	filler := []rune("the quick brown fox! <div>")
	for i, r := range run {
		b.WriteRune(filler[i%len(filler)])
		b.WriteRune(r)
	}
	b.WriteString(" trailing tail")

	got := Decode(b.String())
	if !bytes.Equal(got, payload) {
		t.Errorf("interleaved decode: got %v, want %v", got, payload)
	}
}

func TestDecode_DropsTrailingPartialGroup(t *testing.T) {
	run := Encode([]byte{0x41, 0x42})
	// Remove the last marker so the second group has only 7 bits
	truncated := string([]rune(run)[:15])

	got := Decode(truncated)
	if !bytes.Equal(got, []byte{0x41}) {
		t.Errorf("truncated decode: got %v, want [0x41]", got)
	}
}

func TestMarkers_ZeroWidthAndDistinct(t *testing.T) {
	if Zero == One {
		t.Fatal("marker symbols must be distinguishable")
	}
	run := Encode([]byte("secret"))
	if strings.ContainsAny(run, "secret") {
		t.Error("marker run must not contain visible payload characters")
	}
}

func TestCodec_ValueSemantics(t *testing.T) {
	// Two independent codec values behave identically; the codec is stateless
	a, b := Codec{}, Codec{}
	payload := []byte{0xDE, 0xAD}
	if a.Encode(payload) != b.Encode(payload) {
		t.Error("independent codecs disagree on Encode")
	}
	if !bytes.Equal(a.Decode(a.Encode(payload)), payload) {
		t.Error("codec value round trip failed")
	}
}
