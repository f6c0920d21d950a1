package model

import (
	"encoding/json"
	"time"
)

// DatasetKind classifies the shape of an uploaded catalog dataset.
type DatasetKind string

// Dataset kinds.
const (
	DatasetCombination DatasetKind = "combination"
	DatasetLegacy      DatasetKind = "legacy"
	DatasetEmpty       DatasetKind = "empty"
)

// DatasetRole is the purpose a dataset file is assigned to.
type DatasetRole string

// Dataset roles. At most one file is active per role.
const (
	RoleSelection DatasetRole = "selection"
	RoleSpares    DatasetRole = "spares"
)

// Valid reports whether r is a known role.
func (r DatasetRole) Valid() bool {
	return r == RoleSelection || r == RoleSpares
}

// DatasetFile is an uploaded catalog file as persisted by the store.
// Data holds the uploaded rows as a JSON document.
type DatasetFile struct {
	ID           string          `json:"id"`
	FileName     string          `json:"file_name"`
	FileType     string          `json:"file_type"`
	Data         json.RawMessage `json:"data,omitempty"`
	Kind         DatasetKind     `json:"kind"`
	RowCount     int             `json:"row_count"`
	ForSelection bool            `json:"for_selection"`
	ForSpares    bool            `json:"for_spares"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HasData reports whether the file carries a non-empty payload.
func (f *DatasetFile) HasData() bool {
	return f != nil && len(f.Data) > 0
}

// WithoutData returns a shallow copy of f without its payload, for listings.
func (f DatasetFile) WithoutData() DatasetFile {
	f.Data = nil
	return f
}
