// Package match correlates parsed figures with files extracted from an OA
// package archive.
package match

import (
	"path/filepath"
	"strings"

	"github.com/pmctools/pmcharvest/internal/article"
)

// DefaultImageExtensions is the recognized set for id- and label-based
// matching. Callers may supply their own.
var DefaultImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".svg":  true,
	".webp": true,
}

// File resolves a figure to the first matching path. Three passes in fixed
// priority order, first match in list order wins:
//
//  1. explicit graphic filename as a case-sensitive substring of the
//     file name;
//  2. figure id as a case-insensitive substring, extension recognized;
//  3. normalized label (lower-cased, spaces and periods stripped) as a
//     substring, extension recognized.
//
// A figure that survives all three passes unmatched is simply not an entry
// in the result; that is not an error.
func File(fig article.Figure, paths []string, exts map[string]bool) (string, bool) {
	if exts == nil {
		exts = DefaultImageExtensions
	}

	if fig.FileName != "" {
		for _, p := range paths {
			if strings.Contains(filepath.Base(p), fig.FileName) {
				return p, true
			}
		}
	}

	if id := strings.ToLower(fig.ID); id != "" {
		for _, p := range paths {
			base := strings.ToLower(filepath.Base(p))
			if strings.Contains(base, id) && exts[strings.ToLower(filepath.Ext(p))] {
				return p, true
			}
		}
	}

	if label := normalizeLabel(fig.Label); label != "" {
		for _, p := range paths {
			base := strings.ToLower(filepath.Base(p))
			if strings.Contains(base, label) && exts[strings.ToLower(filepath.Ext(p))] {
				return p, true
			}
		}
	}

	return "", false
}

// All matches every figure against the path list. Unmatched figures are
// omitted from the result.
func All(figs []article.Figure, paths []string, exts map[string]bool) []article.ExtractedFigure {
	var out []article.ExtractedFigure
	for _, fig := range figs {
		if p, ok := File(fig, paths, exts); ok {
			out = append(out, article.ExtractedFigure{Figure: fig, Path: p})
		}
	}
	return out
}

func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.ReplaceAll(label, " ", "")
	return strings.ReplaceAll(label, ".", "")
}
