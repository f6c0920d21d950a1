// Package matcher recommends pump models for questionnaire answers, either
// by exact lookup in a combination dataset or by scoring a legacy numeric
// catalog against the computed requirement.
package matcher

import (
	"strings"
	"time"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/normalize"
)

// fallbackExcludes are header fragments that never name a model column.
var fallbackExcludes = []string{
	"purpose", "location", "source", "water", "delivery", "height",
	"usage", "phase", "quality", "combination", "number", "#",
}

// comboRow is a combination dataset row with its canonical fields resolved.
type comboRow struct {
	index  int
	fields [9]string
	model  string
	hp     *string
	sku    *string
	cells  []model.OrderedValue
}

// Diagnostics summarises how a dataset was understood at load time.
type Diagnostics struct {
	Kind          model.DatasetKind `json:"kind"`
	Rows          int               `json:"rows"`
	Pumps         int               `json:"pumps,omitempty"`
	BoundColumns  map[string]string `json:"bound_columns,omitempty"`
	MissingFields []model.Field     `json:"missing_fields,omitempty"`
	// ShadowedRows lists rows whose canonical fields repeat an earlier row
	// that names a different model. The earlier row always wins, so these
	// rows are unreachable.
	ShadowedRows []int `json:"shadowed_rows,omitempty"`
}

// maxShadowedRows caps the shadowed row indexes kept in Diagnostics.
const maxShadowedRows = 20

// Context is an immutable snapshot of one loaded dataset with everything
// derived from it. It is safe for concurrent use.
type Context struct {
	Source   string
	LoadedAt time.Time

	kind     model.DatasetKind
	rows     []comboRow
	pumps    []model.PumpRecord
	mappings ValueMappings
	distinct map[model.Field][]string
	known    map[model.Field]map[string]struct{}
	diag     Diagnostics
}

// NewContext builds a matching context from a copy of ds. A nil or empty
// dataset yields an empty context.
func NewContext(ds *catalog.Dataset, source string) *Context {
	ds = ds.Clone()
	c := &Context{
		Source:   source,
		LoadedAt: time.Now().UTC(),
		kind:     catalog.Classify(ds),
	}
	c.diag = Diagnostics{Kind: c.kind, Rows: ds.Len()}

	switch c.kind {
	case model.DatasetCombination:
		c.loadCombination(ds)
	case model.DatasetLegacy:
		c.pumps = catalog.ParsePumpRecords(ds)
		c.diag.Pumps = len(c.pumps)
	}
	return c
}

func (c *Context) loadCombination(ds *catalog.Dataset) {
	headers := ds.Headers()
	b := normalize.Resolve(headers, normalize.SelectionRules)

	c.diag.BoundColumns = make(map[string]string)
	for _, r := range normalize.SelectionRules {
		if h := b.Header(r.Role); h != "" {
			c.diag.BoundColumns[string(r.Role)] = h
		}
	}
	for _, f := range model.SelectionFields {
		if !b.Has(normalize.FieldRole(f)) {
			c.diag.MissingFields = append(c.diag.MissingFields, f)
		}
	}

	c.distinct = DistinctValues(ds, b)
	c.known = make(map[model.Field]map[string]struct{}, len(c.distinct))
	for f, vals := range c.distinct {
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		c.known[f] = set
	}
	c.mappings = mappingsFromValues(c.distinct)

	c.rows = make([]comboRow, len(ds.Rows))
	first := make(map[[9]string]int, len(ds.Rows))
	for i := range ds.Rows {
		c.rows[i] = resolveRow(ds, b, headers, i)
		prev, seen := first[c.rows[i].fields]
		if !seen {
			first[c.rows[i].fields] = i
			continue
		}
		if c.rows[prev].model != c.rows[i].model && len(c.diag.ShadowedRows) < maxShadowedRows {
			c.diag.ShadowedRows = append(c.diag.ShadowedRows, i)
		}
	}
}

func resolveRow(ds *catalog.Dataset, b normalize.Binding, headers []string, i int) comboRow {
	row := comboRow{index: i}
	for j, f := range model.SelectionFields {
		if col, ok := b.Column(normalize.FieldRole(f)); ok {
			row.fields[j] = normalize.Value(ds.Cell(i, col))
		}
	}

	row.cells = make([]model.OrderedValue, 0, len(ds.Rows[i].Cells))
	for _, cell := range ds.Rows[i].Cells {
		name := cell.Key
		if l := strings.TrimSpace(ds.Labels[cell.Key]); l != "" {
			name = ds.Labels[cell.Key]
		}
		row.cells = append(row.cells, model.OrderedValue{Column: name, Value: cell.Value})
	}

	row.hp = optional(ds, b, i, normalize.RoleHP)
	row.sku = optional(ds, b, i, normalize.RoleSKU)
	row.model = modelName(ds, b, headers, i)
	return row
}

func optional(ds *catalog.Dataset, b normalize.Binding, i int, r normalize.Role) *string {
	col, ok := b.Column(r)
	if !ok {
		return nil
	}
	v := strings.TrimSpace(ds.Cell(i, col))
	if v == "" {
		return nil
	}
	return &v
}

// modelName reads the bound model column, then any other model-like
// column, falling back to the first non-blank column that is not a
// questionnaire or metadata column.
func modelName(ds *catalog.Dataset, b normalize.Binding, headers []string, i int) string {
	bound, hasBound := b.Column(normalize.RoleModel)
	if hasBound {
		if v := strings.TrimSpace(ds.Cell(i, bound)); v != "" {
			return v
		}
	}
	for col, h := range headers {
		if (hasBound && col == bound) || !normalize.ModelRule.Matches(h) {
			continue
		}
		if v := strings.TrimSpace(ds.Cell(i, col)); v != "" {
			return v
		}
	}
	for col, h := range headers {
		if b.RoleOf(col) != normalize.RoleUnknown {
			continue
		}
		if normalize.ContainsAny(strings.ToLower(h), fallbackExcludes...) {
			continue
		}
		if v := strings.TrimSpace(ds.Cell(i, col)); v != "" {
			return v
		}
	}
	return model.ModelNotFound
}

// Kind returns the classification of the loaded dataset.
func (c *Context) Kind() model.DatasetKind {
	if c == nil {
		return model.DatasetEmpty
	}
	return c.kind
}

// Mappings returns the value mapping table inferred for the dataset.
func (c *Context) Mappings() ValueMappings {
	if c == nil {
		return nil
	}
	return c.mappings
}

// Pumps returns the parsed legacy catalog.
func (c *Context) Pumps() []model.PumpRecord {
	if c == nil {
		return nil
	}
	return c.pumps
}

// Diagnostics returns the load diagnostics.
func (c *Context) Diagnostics() Diagnostics {
	if c == nil {
		return Diagnostics{Kind: model.DatasetEmpty}
	}
	return c.diag
}

// DistinctFieldValues returns the distinct normalized values of a field in
// first-seen order.
func (c *Context) DistinctFieldValues(f model.Field) []string {
	if c == nil {
		return nil
	}
	return c.distinct[f]
}

func (c *Context) isKnown(f model.Field, v string) bool {
	_, ok := c.known[f][v]
	return ok
}
