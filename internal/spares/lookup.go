package spares

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/normalize"
)

// SourceDefault marks tables served from the built-in defaults.
const SourceDefault = "default"

// partRoles lists the roles behind model.SparesHeaders, in order.
var partRoles = []normalize.Role{
	normalize.RoleModel,
	normalize.RoleCasing,
	normalize.RoleImpeller,
	normalize.RoleSeal,
	normalize.RoleAdaptor,
	normalize.RoleNRV,
}

// Lookup finds the spares table for category in an uploaded spares
// dataset. Two shapes are accepted: an array of row objects with a category
// column, or an object keyed by category. A nil table with a nil error
// means the dataset has nothing for the category.
func Lookup(data []byte, category string) (*model.SparesTable, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		ds, err := catalog.ParseJSON(trimmed)
		if err != nil {
			return nil, eris.Wrap(err, "spares: parse rows")
		}
		return FromRows(ds, category), nil
	case '{':
		return fromObject(trimmed, category)
	default:
		return nil, eris.Wrapf(catalog.ErrMalformed, "spares: unexpected %q", trimmed[0])
	}
}

// FromRows builds the table for category from a row dataset. Rows are kept
// when their category cell equals category, ignoring case. Part columns
// missing from the dataset render as "".
func FromRows(ds *catalog.Dataset, category string) *model.SparesTable {
	headers := ds.Headers()
	b := normalize.Resolve(headers, normalize.SparesRules)
	catCol, ok := b.Column(normalize.RoleCategory)
	if !ok {
		return nil
	}

	want := strings.TrimSpace(category)
	var matched []int
	for i := range ds.Len() {
		if strings.EqualFold(strings.TrimSpace(ds.Cell(i, catCol)), want) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	t := &model.SparesTable{
		Category: category,
		Title:    category + " Spares",
		Headers:  append([]string(nil), model.SparesHeaders...),
		Prices:   make(map[string]decimal.Decimal),
	}
	priceCols := normalize.MatchAll(headers, normalize.PriceRule)
	for _, i := range matched {
		row := make([]string, len(partRoles))
		for j, role := range partRoles {
			if col, ok := b.Column(role); ok {
				row[j] = strings.TrimSpace(ds.Cell(i, col))
			}
		}
		t.Rows = append(t.Rows, row)

		for _, pc := range priceCols {
			price, ok := parsePrice(ds.Cell(i, pc))
			if !ok {
				continue
			}
			for _, code := range row[1:] {
				if code != "" {
					t.Prices[code] = price
				}
			}
		}
	}
	return t
}

type objectTable struct {
	Title string `json:"title"`
	Table struct {
		Rows [][]string `json:"rows"`
	} `json:"table"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

func fromObject(data []byte, category string) (*model.SparesTable, error) {
	var byCategory map[string]json.RawMessage
	if err := json.Unmarshal(data, &byCategory); err != nil {
		return nil, eris.Wrapf(catalog.ErrMalformed, "spares: decode object: %v", err)
	}

	raw, ok := byCategory[category]
	if !ok {
		for k, v := range byCategory {
			if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(category)) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return nil, nil
	}

	var obj objectTable
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, eris.Wrapf(catalog.ErrMalformed, "spares: decode %s: %v", category, err)
	}
	t := &model.SparesTable{
		Category: category,
		Title:    obj.Title,
		Headers:  append([]string(nil), model.SparesHeaders...),
		Rows:     obj.Table.Rows,
		Prices:   obj.Prices,
	}
	if t.Title == "" {
		t.Title = category + " Spares"
	}
	if t.Prices == nil {
		t.Prices = make(map[string]decimal.Decimal)
	}
	return t, nil
}

// parsePrice reads a positive price cell. Cells such as "450 Rs" use their
// leading number.
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if d, err := decimal.NewFromString(s); err == nil {
		return d, d.IsPositive()
	}
	f := catalog.LeadingFloat(s)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
