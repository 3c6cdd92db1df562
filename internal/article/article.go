// Package article defines the parsed document model for PMC full-text articles.
package article

// Sentinel values used when the source markup omits a field. The parser
// degrades to these rather than erroring.
const (
	NoCaption     = "No caption available"
	UnknownAuthor = "Unknown Author"
	UnknownFigure = "unknown_fig"
	UnknownTable  = "unknown_table"
	UntitledTitle = "Untitled Article"
	AbstractTitle = "Abstract"
	AbstractType  = "abstract"
	BodyType      = "body"
	FloatsType    = "figures"
	FloatsTitle   = "Figures"
)

// Document is the root of a parsed article. It is built once by the parser
// and never mutated afterward.
type Document struct {
	PMCID      string      `json:"pmcid"`
	Title      string      `json:"title"`
	Authors    []Author    `json:"authors,omitempty"`
	Journal    string      `json:"journal,omitempty"`
	PubDate    string      `json:"pub_date,omitempty"`
	PMID       string      `json:"pmid,omitempty"`
	DOI        string      `json:"doi,omitempty"`
	Keywords   []string    `json:"keywords,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	Funding    []string    `json:"funding,omitempty"`
	License    string      `json:"license,omitempty"`
	Sections   []*Section  `json:"sections,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// Section is a recursive node in the article body. Figures and tables live on
// the section that contains them, not on the document.
type Section struct {
	Title       string     `json:"title,omitempty"`
	Type        string     `json:"type,omitempty"`
	Content     string     `json:"content,omitempty"`
	Subsections []*Section `json:"subsections,omitempty"`
	Figures     []Figure   `json:"figures,omitempty"`
	Tables      []Table    `json:"tables,omitempty"`
}

// IsEmpty reports whether the section carries nothing worth keeping.
func (s *Section) IsEmpty() bool {
	return s.Content == "" && len(s.Subsections) == 0 && len(s.Figures) == 0 && len(s.Tables) == 0
}

// Figure describes one <fig> element. FileName is the href of the first
// <graphic> child, kept exactly as written (it may be empty if the attribute
// itself was empty).
type Figure struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Caption  string `json:"caption"`
	AltText  string `json:"alt_text,omitempty"`
	FigType  string `json:"fig_type,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Table describes one <table-wrap> element. Rows holds the flattened cell
// text of the inner XHTML table, row-major.
type Table struct {
	ID        string     `json:"id"`
	Label     string     `json:"label,omitempty"`
	Caption   string     `json:"caption"`
	Rows      [][]string `json:"rows,omitempty"`
	Footnotes []string   `json:"footnotes,omitempty"`
}

type Author struct {
	GivenNames    string        `json:"given_names,omitempty"`
	Surname       string        `json:"surname,omitempty"`
	FullName      string        `json:"full_name"`
	Affiliations  []Affiliation `json:"affiliations,omitempty"`
	ORCID         string        `json:"orcid,omitempty"`
	Email         string        `json:"email,omitempty"`
	Roles         []string      `json:"roles,omitempty"`
	Corresponding bool          `json:"corresponding,omitempty"`
}

// Affiliation falls back to the cross-reference id as Institution when the
// literal institution text cannot be resolved.
type Affiliation struct {
	ID          string `json:"id,omitempty"`
	Institution string `json:"institution"`
	Department  string `json:"department,omitempty"`
	Address     string `json:"address,omitempty"`
	Country     string `json:"country,omitempty"`
}

type Reference struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Journal string   `json:"journal,omitempty"`
	Year    string   `json:"year,omitempty"`
	Volume  string   `json:"volume,omitempty"`
	Issue   string   `json:"issue,omitempty"`
	Pages   string   `json:"pages,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	PMID    string   `json:"pmid,omitempty"`
	Authors []Author `json:"authors,omitempty"`
	RefType string   `json:"ref_type,omitempty"`
}

// ExtractedFigure pairs a parsed figure with the archive file it resolved to.
// Size and pixel dimensions are filled in by the export probe and stay zero
// when probing fails.
type ExtractedFigure struct {
	Figure    Figure `json:"figure"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Figures flattens every figure in document order: depth-first over sections,
// a section's own figures before its subsections'.
func (d *Document) Figures() []Figure {
	var out []Figure
	var walk func(secs []*Section)
	walk = func(secs []*Section) {
		for _, sec := range secs {
			out = append(out, sec.Figures...)
			walk(sec.Subsections)
		}
	}
	walk(d.Sections)
	return out
}

// Tables flattens every table in document order.
func (d *Document) Tables() []Table {
	var out []Table
	var walk func(secs []*Section)
	walk = func(secs []*Section) {
		for _, sec := range secs {
			out = append(out, sec.Tables...)
			walk(sec.Subsections)
		}
	}
	walk(d.Sections)
	return out
}
