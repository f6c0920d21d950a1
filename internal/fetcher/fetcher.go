// Package fetcher reads catalog uploads from CSV, XLSX, and JSON sources.
package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is the file format of a catalog upload.
type Format string

// Supported upload formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for uploads that are not JSON, CSV, or XLSX.
var ErrUnsupportedFormat = eris.New("fetcher: unsupported file type")

// DetectFormat returns the upload format implied by a file name.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "json":
		return FormatJSON, nil
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	}
	return "", eris.Wrapf(ErrUnsupportedFormat, "%q", filepath.Ext(name))
}

// ReadRecords reads a tabular upload (CSV or XLSX) into string records,
// header line first.
func ReadRecords(ctx context.Context, format Format, r io.Reader) ([][]string, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(ctx, r, CSVOptions{TrimSpace: true, LazyQuotes: true})
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read xlsx upload")
		}
		return ReadXLSX(data, XLSXOptions{})
	}
	return nil, eris.Errorf("fetcher: %s is not a tabular format", format)
}

// ReadFile opens path and returns its format and contents.
func ReadFile(path string) (Format, []byte, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return "", nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return format, data, nil
}
