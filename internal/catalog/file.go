package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/fetcher"
	"github.com/sells-group/pump-selector/internal/model"
)

// NewFile parses an upload and wraps it as a dataset file ready to store.
// The stored payload is always the JSON row-object form, whatever the
// upload format.
func NewFile(ctx context.Context, name string, data []byte) (*model.DatasetFile, *Dataset, error) {
	format, err := fetcher.DetectFormat(name)
	if err != nil {
		return nil, nil, err
	}
	ds, err := Decode(ctx, format, data)
	if err != nil {
		return nil, nil, err
	}
	payload, err := ds.MarshalJSON()
	if err != nil {
		return nil, nil, eris.Wrap(err, "catalog: encode dataset")
	}

	now := time.Now().UTC()
	return &model.DatasetFile{
		ID:        uuid.NewString(),
		FileName:  filepath.Base(name),
		FileType:  string(format),
		Data:      payload,
		Kind:      Classify(ds),
		RowCount:  ds.Len(),
		CreatedAt: now,
		UpdatedAt: now,
	}, ds, nil
}
