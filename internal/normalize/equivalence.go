package normalize

import "strings"

// SourceTokens are the water-source answers the questionnaire offers for
// sewage applications.
var SourceTokens = []string{"industry", "hotel", "hospital", "home", "mall"}

// SewageMarker identifies dataset source values that name a sewage source.
const SewageMarker = "sewage"

// SourceFallback translates a source answer to the dataset wording used when
// no inferred mapping exists.
var SourceFallback = map[string]string{
	"industry": "industry sewage",
	"hospital": "hospital sewage",
	"hotel":    "hotels sewage",
	"home":     "home sewage",
	"mall":     "mall/shopping complex sewage",
}

// Floor describes one delivery floor and the tokens that refer to it.
type Floor struct {
	// Token is the questionnaire answer, e.g. "floor1".
	Token string
	// Canonical is the dataset wording, e.g. "1st floor".
	Canonical string
	// DatasetMarkers identify the floor inside a dataset value.
	DatasetMarkers []string
	// FormMarkers identify the floor inside an answer value.
	FormMarkers []string
}

// Floors lists the delivery floors with synonym rules.
var Floors = []Floor{
	{Token: "floor1", Canonical: "1st floor", DatasetMarkers: []string{"1st", "first"}, FormMarkers: []string{"floor1", "1st"}},
	{Token: "floor2", Canonical: "2nd floor", DatasetMarkers: []string{"2nd", "second"}, FormMarkers: []string{"floor2", "2nd"}},
	{Token: "floor3", Canonical: "3rd floor", DatasetMarkers: []string{"3rd", "third"}, FormMarkers: []string{"floor3", "3rd"}},
	{Token: "floor4", Canonical: "4th floor", DatasetMarkers: []string{"4th", "fourth"}, FormMarkers: []string{"floor4", "4th"}},
}

// GroundToken is the questionnaire answer for ground-level delivery.
const GroundToken = "ground"

// DeliveryFallback translates a delivery answer to the dataset wording used
// when no inferred mapping exists.
var DeliveryFallback = map[string]string{
	"floor1":       "1st floor",
	"floor2":       "2nd floor",
	"floor3":       "3rd floor",
	"floor4":       "4th floor",
	"ground":       "ground",
	"ground level": "ground",
}

// FloorOf returns the floor whose dataset markers appear in v.
func FloorOf(v string) (Floor, bool) {
	for _, f := range Floors {
		if ContainsAny(v, f.DatasetMarkers...) {
			return f, true
		}
	}
	return Floor{}, false
}

// TranslateSource maps a normalized source answer onto dataset wording using
// the fallback table. Values already naming a sewage source pass through.
func TranslateSource(v string) string {
	if v == "" || strings.Contains(v, SewageMarker) {
		return v
	}
	if t, ok := SourceFallback[v]; ok {
		return t
	}
	return v
}

// TranslateDelivery maps a normalized delivery answer onto dataset wording
// using the floor synonyms and the fallback table.
func TranslateDelivery(v string) string {
	if v == "" {
		return ""
	}
	if f, ok := FloorOf(v); ok {
		return f.Canonical
	}
	if t, ok := DeliveryFallback[v]; ok {
		return t
	}
	return v
}

// DeliveryEquivalent compares a dataset delivery value with a translated
// answer. Both sides must already be normalized. Two empty values are equal;
// one empty value never matches.
func DeliveryEquivalent(dataset, answer string) bool {
	if dataset == "" || answer == "" {
		return dataset == answer
	}
	if dataset == answer {
		return true
	}
	for _, f := range Floors {
		if ContainsAny(dataset, f.DatasetMarkers...) && (answer == f.Canonical || ContainsAny(answer, f.FormMarkers...)) {
			return true
		}
	}
	return false
}
