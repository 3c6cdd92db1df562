package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type entry struct {
	name string
	body string
	typ  byte
}

func makeTarGz(t *testing.T, entries []entry) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		typ := e.typ
		if typ == 0 {
			typ = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Size:     int64(len(e.body)),
			Typeflag: typ,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if typ == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestExtractTarGz(t *testing.T) {
	dest := t.TempDir()
	buf := makeTarGz(t, []entry{
		{name: "PMC1/article.nxml", body: "<article/>"},
		{name: "PMC1/figs", typ: tar.TypeDir},
		{name: "PMC1/figs/g001.jpg", body: "jpegbytes"},
	})

	paths, err := ExtractTarGz(buf, dest)
	if err != nil {
		t.Fatalf("ExtractTarGz failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 regular files, got %d: %v", len(paths), paths)
	}
	// Archive order is preserved.
	if filepath.Base(paths[0]) != "article.nxml" || filepath.Base(paths[1]) != "g001.jpg" {
		t.Errorf("unexpected order %v", paths)
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestExtractTarGz_RejectsTraversal(t *testing.T) {
	dest := t.TempDir()
	buf := makeTarGz(t, []entry{
		{name: "../escape.txt", body: "nope"},
	})

	if _, err := ExtractTarGz(buf, dest); err == nil {
		t.Fatal("expected error for escaping entry")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt")); err == nil {
		t.Error("escaping file must not be written")
	}
}

func TestExtractTarGz_BadGzip(t *testing.T) {
	if _, err := ExtractTarGz(strings.NewReader("not gzip"), t.TempDir()); err == nil {
		t.Fatal("expected error for invalid gzip stream")
	}
}
