package jats

import (
	"errors"

	"github.com/pmctools/pmcharvest/internal/article"
)

// ErrNoArticle is returned when the input contains no XML element at all.
// Anything with a recognizable root tag parses to a best-effort Document.
var ErrNoArticle = errors.New("jats: no recognizable article element")

// Parse assembles a Document from raw JATS XML. pmcid is the caller-supplied
// document identifier; when empty, the article-id from the front matter is
// used. Extraction is graceful: missing pieces become defaults or empty
// lists, never errors.
func Parse(src, pmcid string) (*article.Document, error) {
	if !hasElement(src) {
		return nil, ErrNoArticle
	}

	m := parseMeta(src)
	doc := &article.Document{
		PMCID:      pmcid,
		Title:      m.title,
		Journal:    m.journal,
		PubDate:    m.pubDate,
		PMID:       m.pmid,
		DOI:        m.doi,
		Keywords:   m.keywords,
		Categories: m.categories,
		Funding:    m.funding,
		License:    m.license,
	}
	if doc.PMCID == "" {
		doc.PMCID = m.pmcid
	}
	if doc.Title == "" {
		doc.Title = article.UntitledTitle
	}

	doc.Authors = parseAuthors(src)
	doc.References = parseReferences(src)

	sections := parseBody(src)

	// End-of-document figure pool: attach to the first body section, or a
	// synthetic section when the body produced none.
	floatFigs, floatTbls := parseFloats(src)
	if len(floatFigs) > 0 || len(floatTbls) > 0 {
		if len(sections) > 0 {
			first := sections[0]
			first.Figures = append(first.Figures, floatFigs...)
			first.Tables = append(first.Tables, floatTbls...)
		} else {
			sections = append(sections, &article.Section{
				Title:   article.FloatsTitle,
				Type:    article.FloatsType,
				Figures: floatFigs,
				Tables:  floatTbls,
			})
		}
	}

	// The abstract, when present, is always the first section.
	if abs := parseAbstract(src); abs != nil {
		sections = append([]*article.Section{abs}, sections...)
	}
	doc.Sections = sections

	return doc, nil
}
