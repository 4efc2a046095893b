// Package textmark embeds and recovers invisible payloads in page text and
// markup.
//
// Embedding appends a zero-width marker run (see zwcodec) to the trailing
// text of each node in an explicit scope, or inserts one run immediately
// before the document's closing body tag. Extraction is structure-blind:
// marker characters survive regardless of surrounding markup, so decoding
// only needs the flattened text.
//
// Scope discipline matters. Marker filtering preserves order but knows
// nothing about node boundaries, so marks embedded independently into
// several nodes concatenate into a single bitstream at extraction time. Use
// one embedding scope per distinct payload; mixing payloads in one scope
// yields their interleaved bits reinterpreted as one stream.
package textmark

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/sealmark/watermark-mcp/internal/fault"
	"github.com/sealmark/watermark-mcp/internal/zwcodec"
)

// closingBodyTag is the single designated insertion point for document-level
// embedding. The match is textual, not structural; markup without this
// literal tag cannot carry a document-level mark.
const closingBodyTag = "</body>"

// EmbedIntoScope encodes the payload once and appends the marker run to the
// trailing text content of every node in scope. Each node receives its own
// complete copy; calling this on overlapping scopes accumulates independent
// runs back-to-back.
func EmbedIntoScope(scope []*html.Node, payload []byte) error {
	if len(scope) == 0 {
		return fault.New(fault.Validation, "embedding scope is empty")
	}
	run := zwcodec.Encode(payload)
	for _, n := range scope {
		appendText(n, run)
	}
	return nil
}

// EmbedIntoDocument inserts the payload's marker run immediately before the
// document's closing body tag. When the tag is absent the input is returned
// unchanged alongside a validation fault.
func EmbedIntoDocument(markup string, payload []byte) (string, error) {
	i := strings.LastIndex(markup, closingBodyTag)
	if i < 0 {
		return markup, fault.New(fault.Validation, "markup has no %s insertion point", closingBodyTag)
	}
	return markup[:i] + zwcodec.Encode(payload) + markup[i:], nil
}

// ExtractFromScope recovers a payload from the flattened visible text of one
// or more nodes. Text carrying no markers yields an empty payload.
func ExtractFromScope(text string) []byte {
	return zwcodec.Decode(text)
}

// ExtractFromDocument recovers a payload from raw markup. Identical to
// ExtractFromScope; marker characters are unaffected by surrounding tags.
func ExtractFromDocument(markup string) []byte {
	return zwcodec.Decode(markup)
}

// ScopeByTag collects the element nodes under root whose tag name is in
// tags, in document order. It is the standard way to build an embedding
// scope from parsed markup.
func ScopeByTag(root *html.Node, tags ...string) []*html.Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	var scope []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && want[n.Data] {
			scope = append(scope, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return scope
}

// ScopeText flattens the text content of every node in scope, concatenated
// in scope order. The result is what ExtractFromScope expects.
func ScopeText(scope []*html.Node) string {
	var b strings.Builder
	for _, n := range scope {
		collectText(n, &b)
	}
	return b.String()
}

// EmbedIntoMarkupScope parses markup, embeds the payload into every element
// matching one of the scope tags, and renders the mutated document back to a
// string. An empty resulting scope is a validation fault and the input is
// returned unchanged.
func EmbedIntoMarkupScope(markup string, tags []string, payload []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup, fault.Wrap(fault.Validation, err, "markup does not parse")
	}
	scope := ScopeByTag(doc, tags...)
	if len(scope) == 0 {
		return markup, fault.New(fault.Validation, "no elements match scope tags %v", tags)
	}
	if err := EmbedIntoScope(scope, payload); err != nil {
		return markup, err
	}
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return markup, fault.Wrap(fault.Capability, err, "rendering mutated markup failed")
	}
	return b.String(), nil
}

func appendText(n *html.Node, run string) {
	if c := n.LastChild; c != nil && c.Type == html.TextNode {
		c.Data += run
		return
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: run})
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
