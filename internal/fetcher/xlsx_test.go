package fetcher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type sheetData struct {
	name string
	rows [][]string
}

// workbookBytes builds an in-memory workbook with sheets in the given order.
func workbookBytes(t *testing.T, sheets ...sheetData) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, v := range rowData {
				row.AddCell().SetString(v)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadXLSX_Catalog(t *testing.T) {
	data := workbookBytes(t, sheetData{"Sheet1", [][]string{
		{"Model", "Purpose", "Source"},
		{"SP-1", "domestic", "home sewage"},
		{"SP-2", "industrial", "industry sewage"},
	}})

	rows, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Model", "Purpose", "Source"}, rows[0])
	assert.Equal(t, []string{"SP-2", "industrial", "industry sewage"}, rows[2])
}

func TestReadXLSX_FirstSheetWithData(t *testing.T) {
	data := workbookBytes(t,
		sheetData{"Cover", [][]string{{"", " "}}},
		sheetData{"Pumps", [][]string{{"Model", "HP"}, {"SP-1", "1"}}},
	)

	rows, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Model", "HP"}, {"SP-1", "1"}}, rows)
}

func TestReadXLSX_SheetName(t *testing.T) {
	data := workbookBytes(t,
		sheetData{"Selection", [][]string{{"Model"}, {"SP-1"}}},
		sheetData{"Spares", [][]string{{"Model", "Casing"}, {"SP-1", "C-1"}}},
	)

	rows, err := ReadXLSX(data, XLSXOptions{SheetName: "Spares"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"SP-1", "C-1"}, rows[1])

	_, err = ReadXLSX(data, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_DropsBlanks(t *testing.T) {
	data := workbookBytes(t, sheetData{"Sheet1", [][]string{
		{"Model", "HP", "", " "},
		{"", ""},
		{"SP-1", "1"},
	}})

	rows, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Model", "HP"}, {"SP-1", "1"}}, rows)
}

func TestReadXLSX_Invalid(t *testing.T) {
	_, err := ReadXLSX([]byte("not a workbook"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open workbook")
}
