package jats

import (
	"encoding/xml"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmctools/pmcharvest/internal/article"
)

// parseFigure consumes one <fig> subtree. The start tag has already been
// read; the scanner is left positioned after the matching close tag.
func parseFigure(s *scanner, se xml.StartElement) article.Figure {
	fig := article.Figure{
		ID:      attrOr(se, "id", article.UnknownFigure),
		Caption: article.NoCaption,
	}
	fig.FigType, _ = attr(se, "fig-type")

	graphicSeen := false
	for {
		tok := s.next()
		if tok == nil {
			return fig
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "label":
				fig.Label = s.text()
			case "caption":
				if c := s.text(); c != "" {
					fig.Caption = c
				}
			case "alt-text":
				fig.AltText = s.text()
			case "graphic":
				// Only the first graphic reference is kept, even when its
				// href is empty.
				if !graphicSeen {
					if href, ok := hrefAttr(t); ok {
						fig.FileName = href
						graphicSeen = true
					}
				}
				s.skip()
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "fig" {
				return fig
			}
		}
	}
}

// parseTable consumes one <table-wrap> subtree, same contract as parseFigure.
func parseTable(s *scanner, se xml.StartElement) article.Table {
	tbl := article.Table{
		ID:      attrOr(se, "id", article.UnknownTable),
		Caption: article.NoCaption,
	}

	for {
		tok := s.next()
		if tok == nil {
			return tbl
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "label":
				tbl.Label = s.text()
			case "caption":
				if c := s.text(); c != "" {
					tbl.Caption = c
				}
			case "table":
				if rows := tableRows(s.raw()); len(rows) > 0 {
					tbl.Rows = rows
				}
			case "table-wrap-foot":
				if fn := s.text(); fn != "" {
					tbl.Footnotes = append(tbl.Footnotes, fn)
				}
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "table-wrap" {
				return tbl
			}
		}
	}
}

// tableRows flattens the XHTML table model inside <table-wrap> into cell
// text. The markup arrives attribute-stripped from scanner.raw.
func tableRows(markup string) [][]string {
	doc, err := html.Parse(strings.NewReader("<table>" + markup + "</table>"))
	if err != nil {
		return nil
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, cellText(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

func cellText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
