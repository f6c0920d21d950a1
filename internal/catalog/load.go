package catalog

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/fetcher"
)

// Decode parses an upload in the given format. JSON uploads are parsed as
// row objects; CSV and XLSX uploads become labelled ColumnN datasets.
func Decode(ctx context.Context, format fetcher.Format, data []byte) (*Dataset, error) {
	if format == fetcher.FormatJSON {
		return ParseJSON(data)
	}
	records, err := fetcher.ReadRecords(ctx, format, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(ErrMalformed, "read %s: %v", format, err)
	}
	return FromGrid(records), nil
}

// LoadFile reads and parses a catalog file from disk.
func LoadFile(ctx context.Context, path string) (*Dataset, fetcher.Format, error) {
	format, data, err := fetcher.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	ds, err := Decode(ctx, format, data)
	if err != nil {
		return nil, format, eris.Wrapf(err, "catalog: load %s", path)
	}
	return ds, format, nil
}
