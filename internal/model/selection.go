// Package model defines the core data types shared by the matcher, store, and API layers.
package model

// Field identifies one of the canonical questionnaire dimensions.
type Field string

// Canonical questionnaire fields, in matching order.
const (
	FieldPurpose      Field = "purpose"
	FieldLocation     Field = "location"
	FieldSource       Field = "source"
	FieldWaterLevel   Field = "waterLevel"
	FieldDelivery     Field = "delivery"
	FieldCustomHeight Field = "customHeight"
	FieldUsage        Field = "usage"
	FieldPhase        Field = "phase"
	FieldQuality      Field = "quality"
)

// SelectionFields lists every canonical field in matching order.
var SelectionFields = []Field{
	FieldPurpose,
	FieldLocation,
	FieldSource,
	FieldWaterLevel,
	FieldDelivery,
	FieldCustomHeight,
	FieldUsage,
	FieldPhase,
	FieldQuality,
}

// CanonicalSelection is a questionnaire answer reduced to the nine canonical
// fields. Every value is trimmed and lower-cased; an absent answer is "".
type CanonicalSelection struct {
	Purpose      string `json:"purpose"`
	Location     string `json:"location"`
	Source       string `json:"source"`
	WaterLevel   string `json:"waterLevel"`
	Delivery     string `json:"delivery"`
	CustomHeight string `json:"customHeight"`
	Usage        string `json:"usage"`
	Phase        string `json:"phase"`
	Quality      string `json:"quality"`
}

// Value returns the value of the given field, or "" for an unknown field.
func (s CanonicalSelection) Value(f Field) string {
	switch f {
	case FieldPurpose:
		return s.Purpose
	case FieldLocation:
		return s.Location
	case FieldSource:
		return s.Source
	case FieldWaterLevel:
		return s.WaterLevel
	case FieldDelivery:
		return s.Delivery
	case FieldCustomHeight:
		return s.CustomHeight
	case FieldUsage:
		return s.Usage
	case FieldPhase:
		return s.Phase
	case FieldQuality:
		return s.Quality
	}
	return ""
}

// With returns a copy of s with field f set to v.
func (s CanonicalSelection) With(f Field, v string) CanonicalSelection {
	switch f {
	case FieldPurpose:
		s.Purpose = v
	case FieldLocation:
		s.Location = v
	case FieldSource:
		s.Source = v
	case FieldWaterLevel:
		s.WaterLevel = v
	case FieldDelivery:
		s.Delivery = v
	case FieldCustomHeight:
		s.CustomHeight = v
	case FieldUsage:
		s.Usage = v
	case FieldPhase:
		s.Phase = v
	case FieldQuality:
		s.Quality = v
	}
	return s
}

// Answers is the raw questionnaire submission keyed by form field name.
type Answers map[string]string

// Mode values carried in Answers["mode"].
const (
	ModeSimple   = "simple"
	ModeAdvanced = "advanced"
)

// Mode returns the questionnaire mode. Anything other than "advanced" is
// treated as simple mode.
func (a Answers) Mode() string {
	if a["mode"] == ModeAdvanced {
		return ModeAdvanced
	}
	return ModeSimple
}
