package jats

import (
	"encoding/xml"
	"strings"

	"github.com/pmctools/pmcharvest/internal/article"
)

const orcidPrefix = "orcid.org/"

// parseAuthors walks every <contrib-group> in the document. When none of
// them yields an author it falls back to a bare name-list scan of the front
// matter.
func parseAuthors(src string) []article.Author {
	affs := collectAffiliations(src)

	var authors []article.Author
	s := newScanner(src)
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "contrib-group" {
			continue
		}
		authors = append(authors, parseContribGroup(s, affs)...)
	}

	if len(authors) == 0 {
		authors = fallbackAuthors(src)
	}
	return authors
}

func parseContribGroup(s *scanner, affs map[string]article.Affiliation) []article.Author {
	var authors []article.Author
	for {
		tok := s.next()
		if tok == nil {
			return authors
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "contrib":
				ctype, _ := attr(t, "contrib-type")
				a := parseContrib(s, t, affs)
				if ctype != "" && ctype != "author" {
					continue
				}
				authors = append(authors, a)
			case "aff":
				// Group-level affiliation text; already harvested by the
				// id-indexed pass.
				s.skip()
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "contrib-group" {
				return authors
			}
		}
	}
}

func parseContrib(s *scanner, se xml.StartElement, affs map[string]article.Affiliation) article.Author {
	a := article.Author{Corresponding: boolAttr(se, "corresp")}

	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "surname":
				a.Surname = s.text()
			case "given-names":
				// A self-closing tag means no given name, not an error.
				a.GivenNames = s.text()
			case "contrib-id":
				idType, _ := attr(t, "contrib-id-type")
				v := s.text()
				if a.ORCID == "" && (idType == "orcid" || strings.Contains(v, orcidPrefix)) {
					a.ORCID = stripORCID(v)
				}
			case "email":
				a.Email = s.text()
			case "role":
				if r := s.text(); r != "" {
					a.Roles = append(a.Roles, r)
				}
			case "xref":
				refType, _ := attr(t, "ref-type")
				rid, _ := attr(t, "rid")
				s.skip()
				if refType != "aff" || rid == "" {
					continue
				}
				if aff, ok := affs[rid]; ok {
					a.Affiliations = append(a.Affiliations, aff)
				} else {
					a.Affiliations = append(a.Affiliations, article.Affiliation{ID: rid, Institution: rid})
				}
			case "aff":
				if aff := parseAff(s, t); aff.Institution != "" {
					a.Affiliations = append(a.Affiliations, aff)
				}
			case "name", "string-name":
				// Transparent wrapper around surname/given-names.
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "contrib" {
				goto done
			}
		}
	}
done:
	a.FullName = fullName(a.GivenNames, a.Surname)
	return a
}

// fullName assembles whatever parts exist; the sentinel is used only when
// both are missing.
func fullName(given, surname string) string {
	given = strings.TrimSpace(given)
	surname = strings.TrimSpace(surname)
	switch {
	case given != "" && surname != "":
		return given + " " + surname
	case surname != "":
		return surname
	case given != "":
		return given
	}
	return article.UnknownAuthor
}

func stripORCID(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, orcidPrefix); i >= 0 {
		v = v[i+len(orcidPrefix):]
	}
	return strings.Trim(v, "/")
}

// collectAffiliations indexes every id-bearing <aff> in the document so
// contrib xrefs can resolve to real institution text.
func collectAffiliations(src string) map[string]article.Affiliation {
	affs := make(map[string]article.Affiliation)
	s := newScanner(src)
	for {
		tok := s.next()
		if tok == nil {
			return affs
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "aff" {
			continue
		}
		id, _ := attr(se, "id")
		aff := parseAff(s, se)
		if id == "" {
			continue
		}
		if aff.Institution == "" {
			aff.Institution = id
		}
		affs[id] = aff
	}
}

// parseAff reads one <aff> subtree. With two or more <institution> children
// the first is taken as the department and the last as the institution, the
// common JATS ordering. Without any, the flattened text stands in.
func parseAff(s *scanner, se xml.StartElement) article.Affiliation {
	aff := article.Affiliation{}
	aff.ID, _ = attr(se, "id")

	var institutions []string
	var loose strings.Builder
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			loose.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "institution":
				if v := s.text(); v != "" {
					institutions = append(institutions, v)
				}
			case "addr-line":
				if aff.Address == "" {
					aff.Address = s.text()
				} else {
					s.text()
				}
			case "country":
				aff.Country = s.text()
			case "label", "sup":
				s.text()
			case "institution-wrap":
				// Transparent; its institution children are handled above.
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "aff" {
				goto done
			}
		}
	}
done:
	switch len(institutions) {
	case 0:
		aff.Institution = strings.Trim(strings.TrimSpace(loose.String()), " ,;")
	case 1:
		aff.Institution = institutions[0]
	default:
		aff.Department = institutions[0]
		aff.Institution = institutions[len(institutions)-1]
	}
	return aff
}

// fallbackAuthors scans the front matter for bare <name>/<string-name>
// elements when no contrib-group produced anything. The scan stops before
// the reference list so citation names are not mistaken for authors.
func fallbackAuthors(src string) []article.Author {
	if i := strings.Index(src, "<ref-list"); i >= 0 {
		src = src[:i]
	}
	if i := strings.Index(src, "<body"); i >= 0 {
		src = src[:i]
	}

	var authors []article.Author
	s := newScanner(src)
	for {
		tok := s.next()
		if tok == nil {
			return authors
		}
		se, ok := tok.(xml.StartElement)
		if !ok || (se.Name.Local != "name" && se.Name.Local != "string-name") {
			continue
		}
		if a, ok := parsePersonName(s, se.Name.Local); ok {
			authors = append(authors, a)
		}
	}
}

// parsePersonName reads a <name> or <string-name> subtree into an Author.
// Returns false when no name part at all was found.
func parsePersonName(s *scanner, closeTag string) (article.Author, bool) {
	var a article.Author
	var loose strings.Builder
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			loose.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "surname":
				a.Surname = s.text()
			case "given-names":
				a.GivenNames = s.text()
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == closeTag {
				goto done
			}
		}
	}
done:
	if a.Surname == "" && a.GivenNames == "" {
		// string-name often holds the whole name as bare text.
		if v := strings.TrimSpace(loose.String()); v != "" {
			a.FullName = v
			return a, true
		}
		return a, false
	}
	a.FullName = fullName(a.GivenNames, a.Surname)
	return a, true
}
