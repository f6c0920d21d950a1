package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/normalize"
)

// ErrMalformed is returned when an upload is not an array of row objects.
var ErrMalformed = eris.New("catalog: malformed dataset")

// ParseJSON parses an uploaded JSON document. See Parse.
func ParseJSON(data []byte) (*Dataset, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a JSON array of row objects, keeping each row's key order.
// Scalars become text; null becomes "". A leading header row is detected
// and moved to Labels.
func Parse(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(ErrMalformed, "read opening token: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, eris.Wrapf(ErrMalformed, "expected '[', got %v", tok)
	}

	ds := &Dataset{}
	seen := make(map[string]struct{})
	for i := 0; dec.More(); i++ {
		row, err := decodeRow(dec)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformed, "row %d: %v", i, err)
		}
		for _, c := range row.Cells {
			ds.addColumn(seen, c.Key)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "read closing token: %v", err)
	}

	detectHeaderRow(ds)
	return ds, nil
}

func decodeRow(dec *json.Decoder) (Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return Row{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Row{}, eris.Errorf("expected object, got %v", tok)
	}

	var row Row
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Row{}, eris.Errorf("expected key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Row{}, err
		}
		v, err := cellText(raw)
		if err != nil {
			return Row{}, eris.Wrapf(err, "key %q", key)
		}
		row.Cells = append(row.Cells, Cell{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	return row, nil
}

func cellText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case 't', 'f':
		return string(raw), nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return FormatNumber(string(raw)), nil
}

// FormatNumber renders a JSON number literal the way spreadsheet exports
// display it: 5.0 becomes "5", 2.50 becomes "2.5".
func FormatNumber(lit string) string {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// detectHeaderRow strips a leading header row. With synthetic ColumnN keys
// the first row always carries the labels. Otherwise the first row is a
// header only when every non-empty value repeats its own key.
func detectHeaderRow(ds *Dataset) {
	if len(ds.Rows) == 0 {
		return
	}
	first := ds.Rows[0]

	synthetic := len(ds.Columns) > 0
	for _, k := range ds.Columns {
		if !IsSyntheticKey(k) {
			synthetic = false
			break
		}
	}
	if synthetic {
		ds.Labels = make(map[string]string, len(first.Cells))
		for _, c := range first.Cells {
			ds.Labels[c.Key] = c.Value
		}
		ds.Rows = ds.Rows[1:]
		return
	}

	repeats := 0
	for _, c := range first.Cells {
		v := strings.TrimSpace(c.Value)
		if v == "" {
			continue
		}
		if normalize.Header(v) != normalize.Header(c.Key) {
			return
		}
		repeats++
	}
	if repeats > 0 {
		ds.Rows = ds.Rows[1:]
	}
}
