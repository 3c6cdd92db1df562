package jats

import (
	"testing"

	"github.com/pmctools/pmcharvest/internal/article"
)

func TestParseBody_NestedSections(t *testing.T) {
	sections := parseBody(`<article><body>
		<sec sec-type="intro">
			<title>Introduction</title>
			<p>Opening paragraph.</p>
			<sec>
				<title>Background</title>
				<p>Nested paragraph.</p>
				<fig id="F1"><caption><p>Nested figure</p></caption></fig>
			</sec>
			<p>Closing paragraph.</p>
		</sec>
		<sec>
			<title>Methods</title>
			<p>Protocol.</p>
		</sec>
	</body></article>`)

	if len(sections) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(sections))
	}

	intro := sections[0]
	if intro.Title != "Introduction" || intro.Type != "intro" {
		t.Errorf("unexpected first section: %q %q", intro.Title, intro.Type)
	}
	if intro.Content != "Opening paragraph.\nClosing paragraph." {
		t.Errorf("subsection text leaked into parent: %q", intro.Content)
	}
	if len(intro.Figures) != 0 {
		t.Errorf("subsection figure leaked into parent: %v", intro.Figures)
	}
	if len(intro.Subsections) != 1 {
		t.Fatalf("expected 1 subsection, got %d", len(intro.Subsections))
	}

	bg := intro.Subsections[0]
	if bg.Title != "Background" || bg.Content != "Nested paragraph." {
		t.Errorf("unexpected subsection: %q %q", bg.Title, bg.Content)
	}
	if len(bg.Figures) != 1 || bg.Figures[0].Caption != "Nested figure" {
		t.Errorf("expected nested figure in subsection, got %v", bg.Figures)
	}

	if sections[1].Title != "Methods" {
		t.Errorf("unexpected second section %q", sections[1].Title)
	}
}

func TestParseBody_OrphanContent(t *testing.T) {
	sections := parseBody(`<article><body>
		<p>Short communication text.</p>
		<fig id="F1"><caption><p>Lone figure</p></caption></fig>
	</body></article>`)

	if len(sections) != 1 {
		t.Fatalf("expected one synthetic section, got %d", len(sections))
	}
	sec := sections[0]
	if sec.Type != article.BodyType {
		t.Errorf("expected type %q, got %q", article.BodyType, sec.Type)
	}
	if sec.Content != "Short communication text." {
		t.Errorf("unexpected content %q", sec.Content)
	}
	if len(sec.Figures) != 1 {
		t.Errorf("expected orphan figure collected, got %v", sec.Figures)
	}
}

func TestParseBody_OrphanDroppedWhenSectionsExist(t *testing.T) {
	sections := parseBody(`<article><body>
		<p>Stray text.</p>
		<sec><title>Results</title><p>Findings.</p></sec>
	</body></article>`)

	if len(sections) != 1 || sections[0].Title != "Results" {
		t.Fatalf("expected only the real section, got %d", len(sections))
	}
}

func TestParseBody_EmptySectionDropped(t *testing.T) {
	sections := parseBody(`<article><body>
		<sec><title>Placeholder</title></sec>
		<sec><title>Real</title><p>Text.</p></sec>
	</body></article>`)

	if len(sections) != 1 || sections[0].Title != "Real" {
		t.Fatalf("expected title-only section dropped, got %d sections", len(sections))
	}
}

func TestParseBody_NoBody(t *testing.T) {
	if sections := parseBody(`<article><front></front></article>`); sections != nil {
		t.Errorf("expected nil for missing body, got %v", sections)
	}
}

func TestParseSection_FigureInsideParagraph(t *testing.T) {
	sections := parseBody(`<article><body><sec>
		<title>Results</title>
		<p>As shown in <fig id="F2"><caption><p>Inline figure</p></caption></fig> the effect holds.</p>
	</sec></body></article>`)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	sec := sections[0]
	if len(sec.Figures) != 1 || sec.Figures[0].ID != "F2" {
		t.Fatalf("expected inline figure extracted, got %v", sec.Figures)
	}
	if sec.Content != "As shown in  the effect holds." {
		t.Errorf("figure markup should not appear in text, got %q", sec.Content)
	}
}

func TestParseSection_DuplicateTitles(t *testing.T) {
	sections := parseBody(`<article><body><sec>
		<title>First</title>
		<title>Second</title>
		<p>Text.</p>
	</sec></body></article>`)

	if len(sections) != 1 || sections[0].Title != "First" {
		t.Fatalf("expected first title to win, got %+v", sections)
	}
}

func TestParseAbstract_Plain(t *testing.T) {
	abs := parseAbstract(`<article><front><abstract><p>We report a thing.</p></abstract></front></article>`)
	if abs == nil {
		t.Fatal("expected abstract section")
	}
	if abs.Title != article.AbstractTitle || abs.Type != article.AbstractType {
		t.Errorf("unexpected title/type: %q %q", abs.Title, abs.Type)
	}
	if abs.Content != "We report a thing." {
		t.Errorf("unexpected content %q", abs.Content)
	}
}

func TestParseAbstract_StructuredKeepsFixedTitle(t *testing.T) {
	abs := parseAbstract(`<article><abstract>
		<title>ABSTRACT</title>
		<p>Background sentence.</p>
		<sec><title>Methods</title><p>Method sentence.</p></sec>
	</abstract></article>`)
	if abs == nil {
		t.Fatal("expected abstract section")
	}
	if abs.Title != article.AbstractTitle {
		t.Errorf("inner title should not replace fixed one, got %q", abs.Title)
	}
	if abs.Content != "Background sentence." {
		t.Errorf("unexpected content %q", abs.Content)
	}
	if len(abs.Subsections) != 1 || abs.Subsections[0].Title != "Methods" {
		t.Errorf("expected structured part as subsection, got %v", abs.Subsections)
	}
}

func TestParseAbstract_AbsentOrEmpty(t *testing.T) {
	if abs := parseAbstract(`<article><body><p>x</p></body></article>`); abs != nil {
		t.Errorf("expected nil for missing abstract, got %+v", abs)
	}
	if abs := parseAbstract(`<article><abstract>  </abstract></article>`); abs != nil {
		t.Errorf("expected nil for empty abstract, got %+v", abs)
	}
}

func TestParseFloats(t *testing.T) {
	figs, tbls := parseFloats(`<article><floats-group>
		<fig id="F9"><graphic xlink:href="f9.tif"/></fig>
		<table-wrap id="T9"><label>Table 9</label></table-wrap>
	</floats-group></article>`)

	if len(figs) != 1 || figs[0].ID != "F9" {
		t.Errorf("unexpected floats figures %v", figs)
	}
	if len(tbls) != 1 || tbls[0].ID != "T9" {
		t.Errorf("unexpected floats tables %v", tbls)
	}
}
