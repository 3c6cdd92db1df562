package jats

import (
	"encoding/xml"
	"strings"

	"github.com/pmctools/pmcharvest/internal/article"
)

// Citation tags whose children are read directly rather than skipped.
var transparentRefTags = map[string]bool{
	"element-citation": true,
	"mixed-citation":   true,
	"citation":         true,
	"person-group":     true,
}

// parseReferences walks <ref-list> and extracts one Reference per <ref>.
func parseReferences(src string) []article.Reference {
	s := newScanner(src)
	if _, ok := s.seek("ref-list"); !ok {
		return nil
	}

	var refs []article.Reference
	for {
		tok := s.next()
		if tok == nil {
			return refs
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "ref" {
				refs = append(refs, parseRef(s, t))
			} else {
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "ref-list" {
				return refs
			}
		}
	}
}

func parseRef(s *scanner, se xml.StartElement) article.Reference {
	ref := article.Reference{}
	ref.ID, _ = attr(se, "id")

	var fpage, lpage string
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case transparentRefTags[t.Name.Local]:
				if ref.RefType == "" {
					ref.RefType, _ = attr(t, "publication-type")
				}
			case t.Name.Local == "article-title":
				ref.Title = s.text()
			case t.Name.Local == "source":
				ref.Journal = s.text()
			case t.Name.Local == "year":
				ref.Year = s.text()
			case t.Name.Local == "volume":
				ref.Volume = s.text()
			case t.Name.Local == "issue":
				ref.Issue = s.text()
			case t.Name.Local == "fpage":
				fpage = s.text()
			case t.Name.Local == "lpage":
				lpage = s.text()
			case t.Name.Local == "pub-id":
				idType, _ := attr(t, "pub-id-type")
				v := s.text()
				switch idType {
				case "doi":
					ref.DOI = v
				case "pmid":
					ref.PMID = v
				}
			case t.Name.Local == "name" || t.Name.Local == "string-name":
				if a, ok := parsePersonName(s, t.Name.Local); ok {
					ref.Authors = append(ref.Authors, a)
				}
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "ref" {
				goto done
			}
		}
	}
done:
	ref.Pages = joinPages(fpage, lpage)
	return ref
}

func joinPages(fpage, lpage string) string {
	switch {
	case fpage != "" && lpage != "":
		return fpage + "-" + lpage
	case fpage != "":
		return fpage
	}
	return ""
}

// Citation renders a human-readable citation line, omitting any segment
// whose backing fields are blank. Falls back to "Reference {id}" when
// nothing at all is known.
func Citation(r article.Reference) string {
	var segments []string

	var names []string
	for _, a := range r.Authors {
		if a.FullName != "" && a.FullName != article.UnknownAuthor {
			names = append(names, a.FullName)
		}
	}
	if len(names) > 0 {
		segments = append(segments, strings.Join(names, ", "))
	}
	if r.Title != "" {
		segments = append(segments, r.Title)
	}
	if venue := venueSegment(r); venue != "" {
		segments = append(segments, venue)
	}

	if len(segments) == 0 {
		return "Reference " + r.ID
	}
	return strings.Join(segments, ". ")
}

// venueSegment builds "journal (year) volume(issue): pages" from whichever
// parts are present.
func venueSegment(r article.Reference) string {
	var b strings.Builder
	b.WriteString(r.Journal)
	if r.Year != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + r.Year + ")")
	}
	if r.Volume != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(r.Volume)
		if r.Issue != "" {
			b.WriteString("(" + r.Issue + ")")
		}
	}
	if r.Pages != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(r.Pages)
	}
	return b.String()
}
