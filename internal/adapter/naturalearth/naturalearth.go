// Package naturalearth unpacks the Natural Earth admin-1 shapefile archive.
package naturalearth

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// shapefileParts are the members kept from the archive.
var shapefileParts = map[string]bool{".shp": true, ".dbf": true, ".prj": true, ".shx": true}

// Extract copies the shapefile members of the archive at zipPath into dir and
// returns the path of the extracted .shp. Members are written under their
// base name only, so entries such as "../x.shp" cannot escape dir.
func Extract(zipPath, dir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return "", fmt.Errorf("%w: open boundaries archive: %v", domain.ErrParse, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create boundaries dir: %w", err)
	}

	var shps []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(strings.ReplaceAll(f.Name, `\`, "/"))
		if !shapefileParts[strings.ToLower(path.Ext(name))] || name == "." || name == ".." {
			continue
		}
		dest := filepath.Join(dir, name)
		if err := extractFile(f, dest); err != nil {
			return "", err
		}
		if strings.EqualFold(path.Ext(name), ".shp") {
			shps = append(shps, dest)
		}
	}
	if len(shps) == 0 {
		return "", fmt.Errorf("%w: archive holds no .shp member", domain.ErrParse)
	}
	sort.Strings(shps)
	return shps[0], nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open member %s: %v", domain.ErrParse, f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%w: extract %s: %v", domain.ErrParse, f.Name, err)
	}
	return out.Close()
}
