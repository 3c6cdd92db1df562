package jats

import (
	"reflect"
	"testing"
)

const sampleFront = `<article>
<front>
	<journal-meta>
		<journal-title>PLoS Biology</journal-title>
	</journal-meta>
	<article-meta>
		<article-id pub-id-type="pmc">PMC176545</article-id>
		<article-id pub-id-type="pmid">12929205</article-id>
		<article-id pub-id-type="doi">10.1371/journal.pbio.0000040</article-id>
		<article-categories>
			<subj-group subj-group-type="heading"><subject>Research Article</subject></subj-group>
		</article-categories>
		<title-group>
			<article-title>The Transcriptome of the Parasite</article-title>
		</title-group>
		<pub-date pub-type="ppub"><month>10</month><year>2003</year></pub-date>
		<pub-date pub-type="epub"><day>18</day><month>8</month><year>2003</year></pub-date>
		<kwd-group><kwd>malaria</kwd><kwd>transcriptome</kwd></kwd-group>
		<funding-group><funding-statement>Supported by grant XYZ-123.</funding-statement></funding-group>
		<permissions>
			<license xlink:href="https://creativecommons.org/licenses/by/4.0/"><license-p>CC BY</license-p></license>
		</permissions>
	</article-meta>
</front>
<body><sec><title>Results</title><p>Subject matter here, with an <article-title>embedded look-alike</article-title>.</p></sec></body>
</article>`

func TestParseMeta_FrontMatter(t *testing.T) {
	m := parseMeta(sampleFront)

	if m.title != "The Transcriptome of the Parasite" {
		t.Errorf("unexpected title %q", m.title)
	}
	if m.journal != "PLoS Biology" {
		t.Errorf("unexpected journal %q", m.journal)
	}
	if m.pmcid != "PMC176545" || m.pmid != "12929205" || m.doi != "10.1371/journal.pbio.0000040" {
		t.Errorf("unexpected ids: %q %q %q", m.pmcid, m.pmid, m.doi)
	}
	if !reflect.DeepEqual(m.keywords, []string{"malaria", "transcriptome"}) {
		t.Errorf("unexpected keywords %v", m.keywords)
	}
	if !reflect.DeepEqual(m.categories, []string{"Research Article"}) {
		t.Errorf("unexpected categories %v", m.categories)
	}
	if !reflect.DeepEqual(m.funding, []string{"Supported by grant XYZ-123."}) {
		t.Errorf("unexpected funding %v", m.funding)
	}
	if m.license != "https://creativecommons.org/licenses/by/4.0/" {
		t.Errorf("expected license href preferred, got %q", m.license)
	}
}

func TestParseMeta_PrefersEpubDate(t *testing.T) {
	m := parseMeta(sampleFront)
	if m.pubDate != "2003-08-18" {
		t.Errorf("expected epub date padded, got %q", m.pubDate)
	}
}

func TestParseMeta_FirstDateWhenNoEpub(t *testing.T) {
	m := parseMeta(`<article><front><article-meta>
		<pub-date pub-type="ppub"><year>1999</year></pub-date>
		<pub-date pub-type="collection"><month>5</month><year>2000</year></pub-date>
	</article-meta></front></article>`)
	if m.pubDate != "1999" {
		t.Errorf("expected first dated entry, got %q", m.pubDate)
	}
}

func TestParseMeta_LicenseTextFallback(t *testing.T) {
	m := parseMeta(`<article><permissions><license><license-p>Open access terms</license-p></license></permissions></article>`)
	if m.license != "Open access terms" {
		t.Errorf("expected license text fallback, got %q", m.license)
	}
}

func TestParseMeta_Empty(t *testing.T) {
	m := parseMeta(`<article/>`)
	if m.title != "" || m.journal != "" || m.pubDate != "" {
		t.Errorf("expected zero metadata, got %+v", m)
	}
	if len(m.keywords) != 0 || len(m.categories) != 0 {
		t.Errorf("expected no lists, got %+v", m)
	}
}

func TestPad2(t *testing.T) {
	cases := map[string]string{"8": "08", "12": "12", "": "", "abc": "", "0": ""}
	for in, want := range cases {
		if got := pad2(in); got != want {
			t.Errorf("pad2(%q) = %q, want %q", in, got, want)
		}
	}
}
