package model

// MatchType discriminates a MatchResult.
type MatchType string

// Match result types.
const (
	MatchExact  MatchType = "exact"
	MatchRanked MatchType = "ranked"
	MatchNone   MatchType = "none"
)

// Reasons attached to a MatchNone result.
const (
	ReasonNoDataset = "no_dataset"
	ReasonNoMatch   = "no_match"
)

// ModelNotFound is reported when a row matched on every field but carries no
// identifiable model name.
const ModelNotFound = "Model Name Not Found in Database"

// ExactAccuracy is the accuracy reported for every exact combination match.
const ExactAccuracy = 100

// OrderedValue is one column of a matched dataset row, in dataset order.
type OrderedValue struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// ExactMatch is a combination-dataset row equal to the selection on every
// canonical field.
type ExactMatch struct {
	Model    string         `json:"model"`
	HP       *string        `json:"hp"`
	SKU      *string        `json:"sku"`
	Row      []OrderedValue `json:"row"`
	RowIndex int            `json:"row_index"`
	Accuracy int            `json:"accuracy"`
}

// ScoredCandidate is a legacy pump ranked by compatibility with a requirement.
type ScoredCandidate struct {
	Pump          PumpRecord `json:"pump"`
	Compatibility int        `json:"compatibility"`
	HeadScore     int        `json:"head_score"`
	FlowScore     int        `json:"flow_score"`
	HPScore       int        `json:"hp_score"`
	VoltageScore  int        `json:"voltage_score"`
}

// NearMiss describes a combination row that failed to match, for diagnostics.
type NearMiss struct {
	RowIndex   int     `json:"row_index"`
	Model      string  `json:"model"`
	Mismatches []Field `json:"mismatches"`
}

// MatchResult is the outcome of a single questionnaire submission.
type MatchResult struct {
	Type        MatchType          `json:"type"`
	Reason      string             `json:"reason,omitempty"`
	Requirement Requirement        `json:"requirement"`
	Selection   CanonicalSelection `json:"selection"`
	Exact       *ExactMatch        `json:"exact,omitempty"`
	Candidates  []ScoredCandidate  `json:"candidates,omitempty"`
	NearMisses  []NearMiss         `json:"near_misses,omitempty"`
}

// Models returns the recommended model names in rank order.
func (r MatchResult) Models() []RecommendedModel {
	switch r.Type {
	case MatchExact:
		if r.Exact == nil {
			return nil
		}
		return []RecommendedModel{{
			Model:         r.Exact.Model,
			Compatibility: ExactAccuracy,
			MatchType:     MatchExact,
		}}
	case MatchRanked:
		out := make([]RecommendedModel, 0, len(r.Candidates))
		for _, c := range r.Candidates {
			out = append(out, RecommendedModel{
				Model:         c.Pump.Model,
				ProductCode:   c.Pump.ProductCode,
				Compatibility: c.Compatibility,
				MatchType:     MatchRanked,
			})
		}
		return out
	}
	return nil
}
