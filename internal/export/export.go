// Package export copies matched figure files out of an extracted OA package
// and attaches size and pixel dimensions to each ExtractedFigure.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/imgsz"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/pmctools/pmcharvest/internal/article"
)

// Probe fills in byte size and pixel dimensions for a matched figure.
// Probing is best-effort: a file that cannot be read or decoded leaves the
// fields zero.
func Probe(m *article.ExtractedFigure) {
	if info, err := os.Stat(m.Path); err == nil {
		m.SizeBytes = info.Size()
	}
	w, h := dimensions(m.Path)
	m.Width = w
	m.Height = h
}

func dimensions(path string) (int, int) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfDimensions(path)
	}
	return rasterDimensions(path)
}

func rasterDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sz, _, err := imgsz.DecodeSize(f)
	if err != nil {
		return 0, 0
	}
	return int(sz.Width), int(sz.Height)
}

// pdfDimensions reads the first page MediaBox. Vector figures have no pixel
// grid, so the point dimensions stand in.
func pdfDimensions(path string) (int, int) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return 0, 0
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return 0, 0
	}
	box := page.V.Key("MediaBox")
	if box.Len() != 4 {
		return 0, 0
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return int(w), int(h)
}

// Sidecar is the JSON metadata written next to each exported figure file.
type Sidecar struct {
	Figure     article.Figure `json:"figure"`
	SourcePath string         `json:"source_path"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
}

// Figures probes each match, copies the file into outDir named after the
// figure id, and writes a JSON sidecar beside it. The returned slice carries
// the probed size and dimensions.
func Figures(matches []article.ExtractedFigure, outDir string) ([]article.ExtractedFigure, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	out := make([]article.ExtractedFigure, 0, len(matches))
	for _, m := range matches {
		Probe(&m)
		if err := One(m, outDir); err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// One copies a single already-probed match into outDir and writes its
// sidecar.
func One(m article.ExtractedFigure, outDir string) error {
	dest := filepath.Join(outDir, m.Figure.ID+filepath.Ext(m.Path))
	if err := copyFile(m.Path, dest); err != nil {
		return fmt.Errorf("copy figure %s: %w", m.Figure.ID, err)
	}
	if err := writeSidecar(m, dest); err != nil {
		return fmt.Errorf("write sidecar for %s: %w", m.Figure.ID, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeSidecar(m article.ExtractedFigure, dest string) error {
	sc := Sidecar{
		Figure:     m.Figure,
		SourcePath: m.Path,
		SizeBytes:  m.SizeBytes,
		Width:      m.Width,
		Height:     m.Height,
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	return os.WriteFile(base+".json", data, 0o644)
}
