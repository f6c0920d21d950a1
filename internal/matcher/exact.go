package matcher

import (
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/normalize"
)

// MaxNearMisses caps the non-matching rows reported for diagnostics.
const MaxNearMisses = 5

// Canonicalize reduces raw answers to the nine canonical fields.
func Canonicalize(answers model.Answers) model.CanonicalSelection {
	var sel model.CanonicalSelection
	for _, f := range model.SelectionFields {
		sel = sel.With(f, normalize.Value(answers[string(f)]))
	}
	return sel
}

// Translate rewrites the source and delivery answers into the dataset's
// wording. A value the dataset already uses verbatim is kept; otherwise the
// inferred mapping applies, then the fixed fallback tables.
func (c *Context) Translate(sel model.CanonicalSelection) model.CanonicalSelection {
	if c == nil {
		return sel
	}
	sel.Source = c.translate(model.FieldSource, sel.Source, normalize.TranslateSource)
	sel.Delivery = c.translate(model.FieldDelivery, sel.Delivery, normalize.TranslateDelivery)
	return sel
}

func (c *Context) translate(f model.Field, v string, fallback func(string) string) string {
	if v == "" || c.isKnown(f, v) {
		return v
	}
	if mapped, ok := c.mappings.Lookup(f, v); ok {
		return mapped
	}
	return fallback(v)
}

// FindExactMatch returns the first combination row equal to sel on all nine
// canonical fields. sel must be canonical; source and delivery are
// translated here. When nothing matches, the first few rows are returned as
// near misses.
func (c *Context) FindExactMatch(sel model.CanonicalSelection) (*model.ExactMatch, []model.NearMiss) {
	if c.Kind() != model.DatasetCombination {
		return nil, nil
	}
	want := c.Translate(sel)

	var misses []model.NearMiss
	for i := range c.rows {
		row := &c.rows[i]
		mismatched := compareRow(row, want)
		if len(mismatched) == 0 {
			return &model.ExactMatch{
				Model:    row.model,
				HP:       copyString(row.hp),
				SKU:      copyString(row.sku),
				Row:      append([]model.OrderedValue(nil), row.cells...),
				RowIndex: row.index,
				Accuracy: model.ExactAccuracy,
			}, nil
		}
		if len(misses) < MaxNearMisses {
			misses = append(misses, model.NearMiss{
				RowIndex:   row.index,
				Model:      row.model,
				Mismatches: mismatched,
			})
		}
	}
	return nil, misses
}

// compareRow returns the fields on which row differs from want.
func compareRow(row *comboRow, want model.CanonicalSelection) []model.Field {
	var out []model.Field
	for i, f := range model.SelectionFields {
		got := row.fields[i]
		var ok bool
		if f == model.FieldDelivery {
			ok = normalize.DeliveryEquivalent(got, want.Delivery)
		} else {
			ok = got == want.Value(f)
		}
		if !ok {
			out = append(out, f)
		}
	}
	return out
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
