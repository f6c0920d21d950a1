package matcher

import (
	"strings"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/normalize"
)

// ValueMappings maps a canonical field to {answer token: dataset value}.
// Only source and delivery carry mappings.
type ValueMappings map[model.Field]map[string]string

// Lookup returns the dataset value mapped to an answer token.
func (m ValueMappings) Lookup(f model.Field, token string) (string, bool) {
	v, ok := m[f][token]
	return v, ok
}

// BuildValueMappings scans a combination dataset and infers how the
// questionnaire's source and delivery tokens are worded in it. It never
// fails; a dataset without those columns yields an empty table.
func BuildValueMappings(ds *catalog.Dataset) ValueMappings {
	if ds.Len() == 0 {
		return ValueMappings{}
	}
	b := normalize.Resolve(ds.Headers(), normalize.SelectionRules)
	return mappingsFromValues(DistinctValues(ds, b))
}

// DistinctValues collects the distinct non-empty normalized values of every
// bound canonical field, in first-seen order.
func DistinctValues(ds *catalog.Dataset, b normalize.Binding) map[model.Field][]string {
	out := make(map[model.Field][]string)
	for _, f := range model.SelectionFields {
		col, ok := b.Column(normalize.FieldRole(f))
		if !ok {
			continue
		}
		seen := make(map[string]struct{})
		for i := range ds.Rows {
			v := normalize.Value(ds.Cell(i, col))
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out[f] = append(out[f], v)
		}
	}
	return out
}

func mappingsFromValues(distinct map[model.Field][]string) ValueMappings {
	m := ValueMappings{}
	if src := sourceMappings(distinct[model.FieldSource]); len(src) > 0 {
		m[model.FieldSource] = src
	}
	if del := deliveryMappings(distinct[model.FieldDelivery]); len(del) > 0 {
		m[model.FieldDelivery] = del
	}
	return m
}

// sourceMappings picks, for each source token, the longest dataset value
// naming that token as a sewage source. Equal lengths prefer values that
// spell out a compound place ("/" or "shopping").
func sourceMappings(values []string) map[string]string {
	out := make(map[string]string)
	for _, v := range values {
		if !strings.Contains(v, normalize.SewageMarker) {
			continue
		}
		for _, tok := range normalize.SourceTokens {
			if !strings.Contains(v, tok) {
				continue
			}
			cur, ok := out[tok]
			if !ok || betterSource(v, cur) {
				out[tok] = v
			}
		}
	}
	return out
}

func betterSource(candidate, current string) bool {
	if len(candidate) != len(current) {
		return len(candidate) > len(current)
	}
	return compoundSource(candidate) && !compoundSource(current)
}

func compoundSource(v string) bool {
	return normalize.ContainsAny(v, "/", "shopping")
}

// deliveryMappings maps floor tokens to the last dataset value naming
// that floor. Values arrive in first-seen order, so a later wording of the
// same floor replaces an earlier one.
func deliveryMappings(values []string) map[string]string {
	out := make(map[string]string)
	for _, v := range values {
		for _, f := range normalize.Floors {
			if normalize.ContainsAny(v, f.DatasetMarkers...) {
				out[f.Token] = v
			}
		}
		if strings.Contains(v, normalize.GroundToken) {
			out[normalize.GroundToken] = v
		}
	}
	return out
}
