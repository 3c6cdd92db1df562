// Package render emits Markdown and HTML renditions of a parsed article.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/pmctools/pmcharvest/internal/article"
	"github.com/pmctools/pmcharvest/internal/jats"
)

// Markdown renders the document as a Markdown string: title, byline,
// metadata, section tree with heading depth matching nesting, figures,
// tables and a reference list.
func Markdown(doc *article.Document) string {
	var b strings.Builder

	b.WriteString("# " + doc.Title + "\n")

	if byline := authorLine(doc.Authors); byline != "" {
		b.WriteString("\n*" + byline + "*\n")
	}
	writeMetaLines(&b, doc)

	for _, sec := range doc.Sections {
		writeSection(&b, sec, 2)
	}

	if len(doc.References) > 0 {
		b.WriteString("\n## References\n\n")
		for i, ref := range doc.References {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, jats.Citation(ref)))
		}
	}

	return b.String()
}

// HTML converts the Markdown rendition with goldmark.
func HTML(doc *article.Document) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func authorLine(authors []article.Author) string {
	var names []string
	for _, a := range authors {
		names = append(names, a.FullName)
	}
	return strings.Join(names, ", ")
}

func writeMetaLines(b *strings.Builder, doc *article.Document) {
	var lines []string
	if doc.Journal != "" {
		lines = append(lines, "**Journal:** "+doc.Journal)
	}
	if doc.PubDate != "" {
		lines = append(lines, "**Published:** "+doc.PubDate)
	}
	if doc.DOI != "" {
		lines = append(lines, "**DOI:** "+doc.DOI)
	}
	if doc.PMCID != "" {
		lines = append(lines, "**PMCID:** "+doc.PMCID)
	}
	if len(doc.Keywords) > 0 {
		lines = append(lines, "**Keywords:** "+strings.Join(doc.Keywords, ", "))
	}
	if len(lines) > 0 {
		b.WriteString("\n" + strings.Join(lines, "  \n") + "\n")
	}
}

func writeSection(b *strings.Builder, sec *article.Section, depth int) {
	if depth > 6 {
		depth = 6
	}
	if sec.Title != "" {
		b.WriteString("\n" + strings.Repeat("#", depth) + " " + sec.Title + "\n")
	}
	if sec.Content != "" {
		b.WriteString("\n" + sec.Content + "\n")
	}
	for _, fig := range sec.Figures {
		writeFigure(b, fig)
	}
	for _, tbl := range sec.Tables {
		writeTable(b, tbl)
	}
	for _, child := range sec.Subsections {
		writeSection(b, child, depth+1)
	}
}

func writeFigure(b *strings.Builder, fig article.Figure) {
	label := fig.Label
	if label == "" {
		label = fig.ID
	}
	b.WriteString("\n**" + label + ".** " + fig.Caption + "\n")
	if fig.FileName != "" {
		b.WriteString("\n![" + label + "](" + fig.FileName + ")\n")
	}
}

func writeTable(b *strings.Builder, tbl article.Table) {
	label := tbl.Label
	if label == "" {
		label = tbl.ID
	}
	b.WriteString("\n**" + label + ".** " + tbl.Caption + "\n")

	if len(tbl.Rows) > 0 {
		b.WriteString("\n")
		for i, row := range tbl.Rows {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
			if i == 0 {
				b.WriteString("|" + strings.Repeat(" --- |", len(row)) + "\n")
			}
		}
	}
	for _, fn := range tbl.Footnotes {
		b.WriteString("\n> " + fn + "\n")
	}
}
