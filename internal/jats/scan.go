// Package jats parses PMC full-text JATS XML into an article.Document.
//
// The parser is a set of independent single-pass walks over the same source
// text, each built on the scanner primitives below. Absent tags and truncated
// input resolve to zero values, never to errors; only Parse itself can fail,
// and only when the input contains no XML element at all.
package jats

import (
	"encoding/xml"
	"strings"
)

// scanner wraps an event decoder configured for the loose XML that PMC
// serves: undeclared namespace prefixes, HTML entities, occasionally
// unterminated elements.
type scanner struct {
	dec *xml.Decoder
}

func newScanner(src string) *scanner {
	dec := xml.NewDecoder(strings.NewReader(src))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return &scanner{dec: dec}
}

// next returns the next token, folding every error (including io.EOF and
// malformed markup) into a nil token. Callers treat nil as end-of-input.
func (s *scanner) next() xml.Token {
	tok, err := s.dec.Token()
	if err != nil {
		return nil
	}
	return tok
}

// attr returns the value of the named attribute on a start tag. The
// namespace prefix is ignored: "id" matches both id and xml:id.
func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attrOr(se xml.StartElement, name, fallback string) string {
	if v, ok := attr(se, name); ok && v != "" {
		return v
	}
	return fallback
}

// hrefAttr reads an href-like attribute, preferring the namespaced form
// (xlink:href) over a bare href.
func hrefAttr(se xml.StartElement) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == "href" && a.Name.Space != "" {
			return a.Value, true
		}
	}
	for _, a := range se.Attr {
		if a.Name.Local == "href" && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// boolAttr recognizes the yes/true flavors JATS uses for boolean attributes.
func boolAttr(se xml.StartElement, name string) bool {
	v, _ := attr(se, name)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// text accumulates character data until the close tag matching the element
// whose start tag was just consumed. Nested markup is dropped, its text kept.
// End-of-input is treated like the close tag. Entity references are already
// resolved by the decoder, so no extra unescape pass is needed.
func (s *scanner) text() string {
	var buf strings.Builder
	depth := 0
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(buf.String())
			}
			depth--
		}
	}
	return strings.TrimSpace(buf.String())
}

// raw re-serializes the subtree of the element whose start tag was just
// consumed, keeping tag structure but discarding attributes. Used to hand
// XHTML table markup to an HTML parser.
func (s *scanner) raw() string {
	var buf strings.Builder
	depth := 0
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			xml.EscapeText(&buf, t)
		case xml.StartElement:
			buf.WriteString("<" + t.Name.Local + ">")
			depth++
		case xml.EndElement:
			if depth == 0 {
				return buf.String()
			}
			buf.WriteString("</" + t.Name.Local + ">")
			depth--
		}
	}
	return buf.String()
}

// skip consumes the rest of the current element, nested same-name tags
// included. Errors mean the input ran out, which counts as consumed.
func (s *scanner) skip() {
	_ = s.dec.Skip()
}

// seek advances to the next start tag with the given local name and returns
// it. Returns false at end-of-input.
func (s *scanner) seek(name string) (xml.StartElement, bool) {
	for {
		tok := s.next()
		if tok == nil {
			return xml.StartElement{}, false
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == name {
			return se, true
		}
	}
}

// hasElement reports whether the source contains at least one start tag.
func hasElement(src string) bool {
	s := newScanner(src)
	for {
		tok := s.next()
		if tok == nil {
			return false
		}
		if _, ok := tok.(xml.StartElement); ok {
			return true
		}
	}
}
