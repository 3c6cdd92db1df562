package match

import (
	"testing"

	"github.com/pmctools/pmcharvest/internal/article"
)

func TestFile_FilenameSubstring(t *testing.T) {
	fig := article.Figure{ID: "F1", FileName: "pone.0012345.g001"}
	paths := []string{
		"PMC123/pone.0012345.pdf",
		"PMC123/pone.0012345.g001.jpg",
	}
	got, ok := File(fig, paths, nil)
	if !ok || got != "PMC123/pone.0012345.g001.jpg" {
		t.Errorf("expected filename match, got %q %v", got, ok)
	}
}

func TestFile_FilenameCaseSensitive(t *testing.T) {
	fig := article.Figure{ID: "zzz", FileName: "Graph.PNG"}
	if _, ok := File(fig, []string{"dir/graph.png"}, nil); ok {
		t.Error("filename pass must be case-sensitive")
	}
}

func TestFile_IDSubstring(t *testing.T) {
	fig := article.Figure{ID: "F2"}
	paths := []string{
		"PMC123/article.nxml",
		"PMC123/12345_F2.tif",
	}
	got, ok := File(fig, paths, nil)
	if !ok || got != "PMC123/12345_F2.tif" {
		t.Errorf("expected id match, got %q %v", got, ok)
	}
}

func TestFile_IDRequiresRecognizedExtension(t *testing.T) {
	fig := article.Figure{ID: "F2"}
	if _, ok := File(fig, []string{"PMC123/data_F2.csv"}, nil); ok {
		t.Error("id pass must reject unrecognized extensions")
	}
}

func TestFile_LabelNormalized(t *testing.T) {
	fig := article.Figure{ID: "nomatch", Label: "Figure 3."}
	paths := []string{"pkg/supplement.pdf", "pkg/figure3.png"}
	got, ok := File(fig, paths, nil)
	if !ok || got != "pkg/figure3.png" {
		t.Errorf("expected normalized label match, got %q %v", got, ok)
	}
}

func TestFile_PriorityOrder(t *testing.T) {
	// The explicit filename wins over an id match earlier in the list.
	fig := article.Figure{ID: "g9", Label: "Figure 9", FileName: "exact_g9.jpg"}
	paths := []string{"pkg/other_g9.jpg", "pkg/exact_g9.jpg"}
	got, ok := File(fig, paths, nil)
	if !ok || got != "pkg/exact_g9.jpg" {
		t.Errorf("filename pass must outrank id pass, got %q %v", got, ok)
	}
}

func TestFile_FirstInListWins(t *testing.T) {
	fig := article.Figure{ID: "f1"}
	paths := []string{"a/f1.png", "b/f1.png"}
	got, _ := File(fig, paths, nil)
	if got != "a/f1.png" {
		t.Errorf("expected first listed path, got %q", got)
	}
}

func TestFile_Unmatched(t *testing.T) {
	fig := article.Figure{ID: "F4", Label: "Figure 4"}
	if _, ok := File(fig, []string{"pkg/readme.txt"}, nil); ok {
		t.Error("expected no match")
	}
	if _, ok := File(fig, nil, nil); ok {
		t.Error("expected no match against empty path list")
	}
}

func TestFile_CustomExtensions(t *testing.T) {
	fig := article.Figure{ID: "F5"}
	exts := map[string]bool{".eps": true}
	got, ok := File(fig, []string{"pkg/f5.eps", "pkg/f5.png"}, exts)
	if !ok || got != "pkg/f5.eps" {
		t.Errorf("expected custom extension set honored, got %q %v", got, ok)
	}
}

func TestAll_OmitsUnmatched(t *testing.T) {
	figs := []article.Figure{
		{ID: "F1", FileName: "g001.jpg"},
		{ID: "F2", Label: "Figure 2"},
		{ID: "missing"},
	}
	paths := []string{"pkg/g001.jpg", "pkg/figure2.tif"}

	out := All(figs, paths, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out))
	}
	if out[0].Figure.ID != "F1" || out[0].Path != "pkg/g001.jpg" {
		t.Errorf("unexpected first match %+v", out[0])
	}
	if out[1].Figure.ID != "F2" || out[1].Path != "pkg/figure2.tif" {
		t.Errorf("unexpected second match %+v", out[1])
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Figure 3.": "figure3",
		"Fig. 10":   "fig10",
		"":          "",
	}
	for in, want := range cases {
		if got := normalizeLabel(in); got != want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
