package jats

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// metadata holds the front-matter fields pulled in one decoder pass.
type metadata struct {
	title      string
	journal    string
	pubDate    string
	pmid       string
	doi        string
	pmcid      string
	keywords   []string
	categories []string
	funding    []string
	license    string
}

type pubDate struct {
	pubType string
	year    string
	month   string
	day     string
}

// parseMeta runs a single pass over the document front matter, tracking the
// open-element path so look-alike tags elsewhere (reference titles, body
// subjects) are not picked up.
func parseMeta(src string) metadata {
	// Front matter ends where the body starts; everything the extractors
	// need lives before it.
	if i := strings.Index(src, "<body"); i >= 0 {
		src = src[:i]
	}

	var m metadata
	var dates []pubDate
	var path []string

	in := func(name string) bool {
		for _, p := range path {
			if p == name {
				return true
			}
		}
		return false
	}

	s := newScanner(src)
	for {
		tok := s.next()
		if tok == nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "article-title":
				if in("title-group") && m.title == "" {
					m.title = s.text()
					continue
				}
			case "journal-title":
				if m.journal == "" {
					m.journal = s.text()
					continue
				}
			case "article-id":
				idType, _ := attr(t, "pub-id-type")
				v := s.text()
				switch idType {
				case "pmid":
					m.pmid = v
				case "doi":
					m.doi = v
				case "pmc", "pmcid":
					m.pmcid = v
				}
				continue
			case "pub-date":
				pt, _ := attr(t, "pub-type")
				dates = append(dates, readPubDate(s, pt))
				continue
			case "kwd":
				if in("kwd-group") {
					if v := s.text(); v != "" {
						m.keywords = append(m.keywords, v)
					}
					continue
				}
			case "subject":
				if in("subj-group") {
					if v := s.text(); v != "" {
						m.categories = append(m.categories, v)
					}
					continue
				}
			case "funding-statement", "funding-source":
				if v := s.text(); v != "" {
					m.funding = append(m.funding, v)
				}
				continue
			case "license":
				if m.license == "" {
					href, _ := hrefAttr(t)
					text := s.text()
					if href != "" {
						m.license = href
					} else {
						m.license = text
					}
					continue
				}
			}
			path = append(path, t.Name.Local)
		case xml.EndElement:
			if len(path) > 0 && path[len(path)-1] == t.Name.Local {
				path = path[:len(path)-1]
			}
		}
	}

	m.pubDate = pickDate(dates)
	return m
}

// readPubDate consumes a <pub-date> subtree.
func readPubDate(s *scanner, pubType string) pubDate {
	d := pubDate{pubType: pubType}
	for {
		tok := s.next()
		if tok == nil {
			return d
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "year":
				d.year = s.text()
			case "month":
				d.month = s.text()
			case "day":
				d.day = s.text()
			default:
				s.skip()
			}
		case xml.EndElement:
			if t.Name.Local == "pub-date" {
				return d
			}
		}
	}
}

// pickDate prefers the electronic publication date, then the first date with
// a year. Output is ISO-ish: year, then month and day when known.
func pickDate(dates []pubDate) string {
	pick := func(match func(pubDate) bool) string {
		for _, d := range dates {
			if d.year == "" || !match(d) {
				continue
			}
			out := d.year
			if m := pad2(d.month); m != "" {
				out += "-" + m
				if day := pad2(d.day); day != "" {
					out += "-" + day
				}
			}
			return out
		}
		return ""
	}
	if v := pick(func(d pubDate) bool { return d.pubType == "epub" }); v != "" {
		return v
	}
	return pick(func(pubDate) bool { return true })
}

func pad2(v string) string {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return ""
	}
	return fmt.Sprintf("%02d", n)
}
