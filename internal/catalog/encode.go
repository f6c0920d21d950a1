package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// MarshalJSON writes the dataset back as an array of row objects, keeping
// key order. A labelled dataset is written with its header row first so the
// output parses back to the same dataset.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	n := 0
	if d.Labelled() {
		cells := make([]Cell, 0, len(d.Columns))
		for _, k := range d.Columns {
			cells = append(cells, Cell{Key: k, Value: d.Labels[k]})
		}
		if err := writeRow(&buf, cells); err != nil {
			return nil, err
		}
		n++
	}
	for _, r := range d.Rows {
		if n > 0 {
			buf.WriteByte(',')
		}
		if err := writeRow(&buf, r.Cells); err != nil {
			return nil, err
		}
		n++
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cells []Cell) error {
	buf.WriteByte('{')
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Key)
		if err != nil {
			return eris.Wrap(err, "catalog: encode key")
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return eris.Wrap(err, "catalog: encode value")
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// FromGrid builds a dataset from spreadsheet records whose first record is
// the header line. Columns get synthetic ColumnN keys and the header line
// becomes the labels, matching the shape of spreadsheet JSON exports.
// Blank records are skipped.
func FromGrid(records [][]string) *Dataset {
	ds := &Dataset{}
	if len(records) == 0 {
		return ds
	}

	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	ds.Columns = make([]string, width)
	ds.Labels = make(map[string]string, width)
	for i := range width {
		key := "Column" + strconv.Itoa(i+1)
		ds.Columns[i] = key
		if i < len(records[0]) {
			ds.Labels[key] = strings.TrimSpace(records[0][i])
		}
	}

	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := Row{Cells: make([]Cell, 0, len(rec))}
		for i, v := range rec {
			row.Cells = append(row.Cells, Cell{Key: ds.Columns[i], Value: v})
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
