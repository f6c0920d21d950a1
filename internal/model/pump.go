package model

// PumpRecord is one parsed row of a legacy numeric pump catalog.
type PumpRecord struct {
	Model         string  `json:"model"`
	ProductCode   string  `json:"product_code"`
	Series        string  `json:"series"`
	HP            float64 `json:"hp"`
	PowerKW       string  `json:"power_kw"`
	Voltage       string  `json:"voltage"`
	HeadRange     string  `json:"head_range"`
	FlowRange     string  `json:"flow_range"`
	HeadMaxFt     float64 `json:"head_max_ft"`
	FlowMaxLPH    float64 `json:"flow_max_lph"`
	Application   string  `json:"application"`
	Category      string  `json:"category"`
	Phase         string  `json:"phase"`
	OilFilled     string  `json:"oil_filled"`
	BuildingFloor string  `json:"building_floor"`
}

// Requirement holds the hydraulic targets derived from a questionnaire.
// Head is in feet, Flow in litres per hour, HP in horsepower.
type Requirement struct {
	Head    float64 `json:"head"`
	Flow    float64 `json:"flow"`
	HP      float64 `json:"hp"`
	Voltage int     `json:"voltage"`
}

// FlowLPM returns the flow requirement in litres per minute.
func (r Requirement) FlowLPM() float64 {
	return r.Flow / 60
}
