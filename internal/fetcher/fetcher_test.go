package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"catalog.json", FormatJSON, false},
		{"catalog.CSV", FormatCSV, false},
		{"dump.txt", FormatCSV, false},
		{"Pumps.xlsx", FormatXLSX, false},
		{"pumps.pdf", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRecords_CSV(t *testing.T) {
	rows, err := ReadRecords(context.Background(), FormatCSV, strings.NewReader("Model , HP\nSP-1, 1\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Model", "HP"}, {"SP-1", "1"}}, rows)
}

func TestReadRecords_JSONRejected(t *testing.T) {
	_, err := ReadRecords(context.Background(), FormatJSON, strings.NewReader("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a tabular format")
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	format, data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, "[]", string(data))

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
