// Package catalog parses uploaded pump catalogs into ordered datasets and
// classifies their shape.
package catalog

import (
	"regexp"
	"strings"
)

// Cell is one column value of a row. Values are kept as uploaded text.
type Cell struct {
	Key   string
	Value string
}

// Row is a dataset row with its cells in upload order.
type Row struct {
	Cells []Cell
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	for _, c := range r.Cells {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under key, or "".
func (r Row) Value(key string) string {
	v, _ := r.Get(key)
	return v
}

// Dataset is an uploaded catalog table. Columns holds every key seen across
// rows in first-seen order. When the upload carried a header row, it is
// removed from Rows and its values are kept as Labels.
type Dataset struct {
	Columns []string
	Labels  map[string]string
	Rows    []Row
}

var syntheticKey = regexp.MustCompile(`(?i)^column\d+$`)

// IsSyntheticKey reports whether key is a spreadsheet-export placeholder
// such as "Column21".
func IsSyntheticKey(key string) bool {
	return syntheticKey.MatchString(strings.TrimSpace(key))
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Labelled reports whether the dataset carried a header row of labels.
func (d *Dataset) Labelled() bool {
	return d != nil && len(d.Labels) > 0
}

// Headers returns the display name of each column: its label when the
// upload carried one, otherwise its key.
func (d *Dataset) Headers() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.Columns))
	for i, k := range d.Columns {
		if l := strings.TrimSpace(d.Labels[k]); l != "" {
			out[i] = d.Labels[k]
			continue
		}
		out[i] = k
	}
	return out
}

// Cell returns the value of column col in row i.
func (d *Dataset) Cell(i, col int) string {
	if i < 0 || i >= len(d.Rows) || col < 0 || col >= len(d.Columns) {
		return ""
	}
	return d.Rows[i].Value(d.Columns[col])
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	if d.Labels != nil {
		out.Labels = make(map[string]string, len(d.Labels))
		for k, v := range d.Labels {
			out.Labels[k] = v
		}
	}
	for i, r := range d.Rows {
		out.Rows[i] = Row{Cells: append([]Cell(nil), r.Cells...)}
	}
	return out
}

func (d *Dataset) addColumn(seen map[string]struct{}, key string) {
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}
	d.Columns = append(d.Columns, key)
}
