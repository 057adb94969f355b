package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractTables extracts every readable spreadsheet from a ZIP archive into
// destDir and returns the extracted paths sorted by archive name. Directory
// entries, macOS resource forks, hidden files and spreadsheet lock files
// are skipped.
func ExtractTables(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open archive %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	var entries []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !tableEntry(f.Name) {
			continue
		}
		entries = append(entries, f)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	extracted := make([]string, 0, len(entries))
	for _, f := range entries {
		p, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		extracted = append(extracted, p)
	}
	return extracted, nil
}

func tableEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	return Supported(base)
}

// extractZIPEntry writes one archive file under destDir and returns its path.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "zip: write %s", destPath)
	}
	return destPath, nil
}
