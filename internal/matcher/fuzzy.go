package matcher

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/pump-selector/internal/model"
)

// Scoring weights. Head and flow dominate; voltage is a gate that always
// scores full marks once passed.
const (
	HeadWeight    = 0.3
	FlowWeight    = 0.3
	HPWeight      = 0.2
	VoltageWeight = 0.2
)

// Thresholds bound the fuzzy ranking.
type Thresholds struct {
	MaxResults       int
	PerfectScore     int
	MinCompatibility int
}

// DefaultThresholds returns the standard ranking thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxResults: 8, PerfectScore: 95, MinCompatibility: 20}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MaxResults <= 0 {
		t.MaxResults = d.MaxResults
	}
	if t.PerfectScore <= 0 {
		t.PerfectScore = d.PerfectScore
	}
	if t.MinCompatibility <= 0 {
		t.MinCompatibility = d.MinCompatibility
	}
	return t
}

// RankCandidates scores pumps against req and returns the best matches,
// highest compatibility first. Pumps whose voltage text does not contain
// the required voltage are skipped. Scanning stops once MaxResults perfect
// matches are found.
func RankCandidates(pumps []model.PumpRecord, req model.Requirement, t Thresholds) []model.ScoredCandidate {
	t = t.withDefaults()
	voltage := strconv.Itoa(req.Voltage)

	var perfect, ordinary []model.ScoredCandidate
	for _, p := range pumps {
		if p.Voltage == "" || !strings.Contains(p.Voltage, voltage) {
			continue
		}
		c, ok := Score(p, req)
		if !ok {
			continue
		}
		if c.Compatibility >= t.PerfectScore {
			perfect = append(perfect, c)
			if len(perfect) >= t.MaxResults {
				break
			}
			continue
		}
		if c.Compatibility >= t.MinCompatibility {
			ordinary = append(ordinary, c)
		}
	}

	out := append(perfect, ordinary...)
	slices.SortStableFunc(out, func(a, b model.ScoredCandidate) int {
		return b.Compatibility - a.Compatibility
	})
	if len(out) > t.MaxResults {
		out = out[:t.MaxResults]
	}
	return out
}

// Score computes a pump's compatibility with req, assuming the voltage gate
// has passed. It reports false when the pump's ratings are unreadable.
func Score(p model.PumpRecord, req model.Requirement) (model.ScoredCandidate, bool) {
	head := dimensionScore(p.HeadMaxFt, req.Head)
	flow := dimensionScore(p.FlowMaxLPH, req.Flow)
	hp := dimensionScore(p.HP, req.HP)
	const voltage = 100.0

	compat := math.Round(head*HeadWeight + flow*FlowWeight + hp*HPWeight + voltage*VoltageWeight)
	if math.IsNaN(compat) || math.IsInf(compat, 0) {
		return model.ScoredCandidate{}, false
	}
	return model.ScoredCandidate{
		Pump:          p,
		Compatibility: int(compat),
		HeadScore:     int(math.Round(head)),
		FlowScore:     int(math.Round(flow)),
		HPScore:       int(math.Round(hp)),
		VoltageScore:  int(voltage),
	}, true
}

// dimensionScore is 100 when capacity meets the requirement, otherwise the
// percentage of the requirement it covers, floored at 0. NaN propagates.
func dimensionScore(capacity, required float64) float64 {
	if math.IsNaN(capacity) {
		return math.NaN()
	}
	if capacity >= required {
		return 100
	}
	return math.Max(0, capacity/required*100)
}
