package shapefile

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Basename used for every exported area-of-interest shapefile.
const AOIBasename = "area-of-interest"

// WriteZip builds the shapefile set in a temp dir, zips it in memory, and
// removes the temp files. The zip entries are always named
// area-of-interest.* regardless of the requested download name.
func WriteZip(geojson []byte) ([]byte, error) {
	tempdir, err := os.MkdirTemp("", "shapefile")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempdir)

	paths, err := Write(tempdir, AOIBasename, geojson)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		entry, err := zw.Create(filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(contents); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
