// Package archive unpacks PMC OA packages (tar+gzip) into a directory and
// reports the extracted file paths in archive order.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractTarGz writes every regular file in the gzipped tarball to destDir,
// preserving the archive's internal layout, and returns the written paths in
// the order the archive listed them. Entries that would escape destDir are
// rejected.
func ExtractTarGz(r io.Reader, destDir string) ([]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	var paths []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return paths, fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return paths, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return paths, fmt.Errorf("create directory: %w", err)
		}

		f, err := os.Create(target)
		if err != nil {
			return paths, fmt.Errorf("create %s: %w", target, err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return paths, fmt.Errorf("extract %s: %w", hdr.Name, err)
		}
		f.Close()
		paths = append(paths, target)
	}
	return paths, nil
}

// securePath joins an archive entry name onto destDir, refusing entries that
// resolve outside it.
func securePath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.Join(destDir, filepath.FromSlash(name)))
	base := filepath.Clean(destDir)
	if clean != base && !strings.HasPrefix(clean, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return clean, nil
}
