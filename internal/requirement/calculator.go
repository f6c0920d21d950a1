// Package requirement derives hydraulic targets (head, flow, horsepower,
// voltage) from questionnaire answers.
package requirement

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/pump-selector/internal/model"
)

// WaterLevelDepth maps a water-level band to its representative depth in feet.
var WaterLevelDepth = map[string]float64{
	"0-5":     2.5,
	"5-20":    12.5,
	"20-28":   24,
	"28-50":   39,
	"50-100":  75,
	"100-200": 150,
	"200-350": 275,
	"350-500": 425,
	"500-700": 600,
}

// FloorHeight maps a delivery floor to its height in feet.
var FloorHeight = map[string]float64{
	"ground": 0,
	"floor1": 10,
	"floor2": 20,
	"floor3": 30,
	"floor4": 40,
}

// UsageFlow maps a usage descriptor to a flow in litres per minute.
var UsageFlow = map[string]float64{
	"500L-30min":   278,
	"1000L-30min":  556,
	"1500L-30min":  833,
	"2000L-60min":  333,
	"3000L-60min":  500,
	"1bigha-60min": 1000,
	"3bigha-60min": 3000,
	"6bigha-60min": 6000,
}

// FaucetFlow maps a faucet count to a flow in litres per minute.
var FaucetFlow = map[string]float64{
	"1": 20,
	"2": 40,
	"4": 80,
	"6": 120,
	"8": 160,
}

// Defaults applied when an answer is missing or unknown.
const (
	DefaultVoltage      = 220
	DefaultCustomHeight = 50
	DefaultUsageFlow    = 500
	DefaultFaucetFlow   = 40
	PressureHead        = 15
	MinHP               = 0.5
	HPSafetyFactor      = 1.5
	LitresPerGallon     = 3.785
	HPConstant          = 3960
)

// Compute returns the requirement for a set of answers. Advanced mode passes
// the entered head (ft), flow (L/min) and horsepower through; simple mode
// derives them from the lookup tables. Unknown or malformed answers fall
// back to defaults.
func Compute(answers model.Answers, simple bool) model.Requirement {
	voltage := parseVoltage(answers["phase"])

	if !simple {
		return model.Requirement{
			Head:    parseNumber(answers["head"]),
			Flow:    parseNumber(answers["flow"]) * 60,
			HP:      parseNumber(answers["hp"]),
			Voltage: voltage,
		}
	}

	head := WaterLevelDepth[answers["waterLevel"]]

	var flowLPM float64
	if faucets, ok := faucetMode(answers); ok {
		head += PressureHead
		flowLPM = lookupOr(FaucetFlow, faucets, DefaultFaucetFlow)
	} else {
		if h, ok := FloorHeight[answers["delivery"]]; ok {
			head += h
		} else {
			head += customHeight(answers["customHeight"])
		}
		flowLPM = lookupOr(UsageFlow, answers["usage"], DefaultUsageFlow)
	}

	flow := flowLPM * 60
	return model.Requirement{
		Head:    head,
		Flow:    flow,
		HP:      Horsepower(head, flow),
		Voltage: voltage,
	}
}

// IsSimpleMode reports whether answers should be computed in simple mode.
func IsSimpleMode(answers model.Answers) bool {
	return answers.Mode() == model.ModeSimple
}

// Horsepower estimates pump horsepower from head (ft) and flow (L/h) with a
// 1.5 safety factor, rounded up and floored at half a horsepower.
func Horsepower(head, flowLPH float64) float64 {
	gpm := flowLPH / LitresPerGallon / 60
	return math.Max(MinHP, math.Ceil(head*gpm/HPConstant*HPSafetyFactor))
}

// faucetMode returns the faucet count when the answers describe a pressure
// application: an explicit faucet count, or a delivery answer that is one.
func faucetMode(answers model.Answers) (string, bool) {
	if f := answers["faucets"]; f != "" {
		return f, true
	}
	if _, ok := FaucetFlow[answers["delivery"]]; ok {
		return answers["delivery"], true
	}
	return "", false
}

func lookupOr(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok && v != 0 {
		return v
	}
	return def
}

func customHeight(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return DefaultCustomHeight
	}
	n, ok := leadingInt(s)
	if !ok {
		return DefaultCustomHeight
	}
	return float64(n)
}

func parseVoltage(s string) int {
	n, ok := leadingInt(s)
	if !ok {
		return DefaultVoltage
	}
	return n
}

// parseNumber reads an advanced-mode numeric entry; anything unparseable is 0.
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// leadingInt parses the integer prefix of s, so "220V" reads as 220.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
