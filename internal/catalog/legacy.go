package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/pump-selector/internal/model"
)

// Legacy catalog column contract. The numeric catalog export always places
// these attributes at the same synthetic columns.
const (
	LegacyPhase         = "Column2"
	LegacyApplication   = "Column3"
	LegacyOilFilled     = "Column10"
	LegacyCategory      = "Column12"
	LegacyBuildingFloor = "Column13"
	LegacyHeadMaxM      = "Column14"
	LegacySeries        = "Column15"
	LegacyFlowMaxLPH    = "Column19"
	LegacyProductCode   = "Column20"
	LegacyModel         = "Column21"
	LegacyPowerKW       = "Column23"
	LegacyHP            = "Column24"
	LegacyHeadRange     = "Column25"
	LegacyFlowRange     = "Column27"
	LegacyVoltage       = "Column28"
)

// MetersToFeet converts catalog head values to feet.
const MetersToFeet = 3.28084

const unknownModel = "Unknown Model"

// ParsePumpRecords reads a legacy numeric catalog. Rows without a model or
// with a non-positive horsepower are dropped.
func ParsePumpRecords(d *Dataset) []model.PumpRecord {
	if d == nil {
		return nil
	}
	out := make([]model.PumpRecord, 0, len(d.Rows))
	for _, r := range d.Rows {
		p := model.PumpRecord{
			Model:         orDefault(r.Value(LegacyModel), unknownModel),
			ProductCode:   orDefault(r.Value(LegacyProductCode), "N/A"),
			Series:        orDefault(r.Value(LegacySeries), "Unknown Series"),
			HP:            numberOrZero(strings.Replace(r.Value(LegacyHP), "HP", "", 1)),
			PowerKW:       orDefault(r.Value(LegacyPowerKW), "N/A"),
			Voltage:       orDefault(r.Value(LegacyVoltage), "N/A"),
			HeadRange:     orDefault(r.Value(LegacyHeadRange), "N/A"),
			FlowRange:     orDefault(r.Value(LegacyFlowRange), "N/A"),
			HeadMaxFt:     numberOrZero(r.Value(LegacyHeadMaxM)) * MetersToFeet,
			FlowMaxLPH:    numberOrZero(r.Value(LegacyFlowMaxLPH)),
			Application:   orDefault(r.Value(LegacyApplication), "General"),
			Category:      orDefault(r.Value(LegacyCategory), "General"),
			Phase:         orDefault(r.Value(LegacyPhase), "Unknown"),
			OilFilled:     orDefault(r.Value(LegacyOilFilled), "Unknown"),
			BuildingFloor: orDefault(r.Value(LegacyBuildingFloor), "N/A"),
		}
		if p.Model == unknownModel || !(p.HP > 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// numberOrZero reads a catalog number. Empty cells are zero; text without a
// leading number is NaN so the pump scores as unusable.
func numberOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	return LeadingFloat(s)
}

// LeadingFloat parses the longest numeric prefix of s after leading
// whitespace, so "5 HP" reads as 5 and "220/230V" as 220. It returns NaN
// when s does not start with a number.
func LeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	if strings.HasPrefix(s[end:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	// Out-of-range exponents report an error but still yield ±Inf or 0.
	f, _ := strconv.ParseFloat(s[:end], 64)
	return f
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
