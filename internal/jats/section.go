package jats

import (
	"encoding/xml"
	"strings"

	"github.com/pmctools/pmcharvest/internal/article"
)

// parseBody walks <body> and assembles the section tree. Paragraphs, figures
// and tables found directly under <body> (a shape some journals use for short
// communications) are collected into one synthetic section of type "body",
// emitted only when the body has no <sec> elements at all.
func parseBody(src string) []*article.Section {
	s := newScanner(src)
	if _, ok := s.seek("body"); !ok {
		return nil
	}

	var sections []*article.Section
	orphan := &article.Section{Type: article.BodyType}
	var orphanParas []string

	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sec":
				if sec := parseSection(s, t); !sec.IsEmpty() {
					sections = append(sections, sec)
				}
			case "p":
				text, figs, tbls := parseParagraph(s)
				if text != "" {
					orphanParas = append(orphanParas, text)
				}
				orphan.Figures = append(orphan.Figures, figs...)
				orphan.Tables = append(orphan.Tables, tbls...)
			case "fig":
				orphan.Figures = append(orphan.Figures, parseFigure(s, t))
			case "table-wrap":
				orphan.Tables = append(orphan.Tables, parseTable(s, t))
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				goto done
			}
		}
	}
done:
	if len(sections) == 0 {
		orphan.Content = strings.Join(orphanParas, "\n")
		if !orphan.IsEmpty() {
			return []*article.Section{orphan}
		}
		return nil
	}
	return sections
}

// parseSection consumes one <sec> subtree recursively. Nested sections are
// parsed before the parent resumes, so a subsection's figures and text never
// leak into the parent.
func parseSection(s *scanner, se xml.StartElement) *article.Section {
	sec := &article.Section{}
	sec.Type, _ = attr(se, "sec-type")

	var paras []string
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				// First title wins; later ones are still consumed fully.
				if title := s.text(); sec.Title == "" {
					sec.Title = title
				}
			case "p":
				text, figs, tbls := parseParagraph(s)
				if text != "" {
					paras = append(paras, text)
				}
				sec.Figures = append(sec.Figures, figs...)
				sec.Tables = append(sec.Tables, tbls...)
			case "sec":
				if child := parseSection(s, t); !child.IsEmpty() {
					sec.Subsections = append(sec.Subsections, child)
				}
			case "fig":
				sec.Figures = append(sec.Figures, parseFigure(s, t))
			case "table-wrap":
				sec.Tables = append(sec.Tables, parseTable(s, t))
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "sec" {
				sec.Content = strings.Join(paras, "\n")
				return sec
			}
		}
	}
	sec.Content = strings.Join(paras, "\n")
	return sec
}

// parseParagraph accumulates the text of one <p>, stripping inline markup.
// A <fig> or <table-wrap> embedded in the paragraph is parsed as a structured
// entity and returned separately, never inlined into the text.
func parseParagraph(s *scanner) (string, []article.Figure, []article.Table) {
	var buf strings.Builder
	var figs []article.Figure
	var tbls []article.Table

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
			switch t.Name.Local {
			case "fig":
				figs = append(figs, parseFigure(s, t))
			case "table-wrap":
				tbls = append(tbls, parseTable(s, t))
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(buf.String()), figs, tbls
			}
			depth--
		}
	}
	return strings.TrimSpace(buf.String()), figs, tbls
}

// parseAbstract extracts <abstract> with the same textual rules as a body
// section. Returns nil when the tag is absent or yields nothing.
func parseAbstract(src string) *article.Section {
	s := newScanner(src)
	if _, ok := s.seek("abstract"); !ok {
		return nil
	}

	sec := &article.Section{Title: article.AbstractTitle, Type: article.AbstractType}
	var paras []string
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				// Structured abstracts repeat titles per part; the fixed
				// "Abstract" title stays, the inner one is consumed.
				s.text()
			case "p":
				text, figs, tbls := parseParagraph(s)
				if text != "" {
					paras = append(paras, text)
				}
				sec.Figures = append(sec.Figures, figs...)
				sec.Tables = append(sec.Tables, tbls...)
			case "sec":
				if child := parseSection(s, t); !child.IsEmpty() {
					sec.Subsections = append(sec.Subsections, child)
				}
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "abstract" {
				goto done
			}
		}
	}
done:
	sec.Content = strings.Join(paras, "\n")
	if sec.IsEmpty() {
		return nil
	}
	return sec
}

// parseFloats collects figures and tables from the document-level
// <floats-group> pool.
func parseFloats(src string) ([]article.Figure, []article.Table) {
	s := newScanner(src)
	if _, ok := s.seek("floats-group"); !ok {
		return nil, nil
	}

	var figs []article.Figure
	var tbls []article.Table
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "fig":
				figs = append(figs, parseFigure(s, t))
			case "table-wrap":
				tbls = append(tbls, parseTable(s, t))
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "floats-group" {
				return figs, tbls
			}
		}
	}
	return figs, tbls
}
