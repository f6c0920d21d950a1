package model

import "time"

// Activity kinds counted in Statistics.ActivityByType.
const (
	ActivitySelection = "selection"
	ActivityProblem   = "problem"
	ActivityOrder     = "order"
)

// Statistics summarises selection history, problem reports, and spares
// orders for administrators.
type Statistics struct {
	TotalSelections int `json:"total_selections"`
	TotalProblems   int `json:"total_problems"`
	TotalOrders     int `json:"total_orders"`

	// ActivityByType counts every stored event by kind.
	ActivityByType map[string]int `json:"activity_by_type"`
	// ActivityByDate counts events per UTC day (YYYY-MM-DD) since Since.
	ActivityByDate map[string]int `json:"activity_by_date"`
	Since          time.Time      `json:"since"`

	ModeDistribution        map[string]int `json:"mode_distribution"`
	PurposeDistribution     map[string]int `json:"purpose_distribution"`
	ResultTypeDistribution  map[string]int `json:"result_type_distribution"`
	ProblemTypeDistribution map[string]int `json:"problem_type_distribution"`

	RecentSelections []SelectionRecord `json:"recent_selections"`
	RecentProblems   []ProblemReport   `json:"recent_problems"`

	GeneratedAt time.Time `json:"generated_at"`
}

// NewStatistics returns Statistics with every map allocated.
func NewStatistics(since time.Time) *Statistics {
	return &Statistics{
		ActivityByType:          map[string]int{},
		ActivityByDate:          map[string]int{},
		Since:                   since,
		ModeDistribution:        map[string]int{},
		PurposeDistribution:     map[string]int{},
		ResultTypeDistribution:  map[string]int{},
		ProblemTypeDistribution: map[string]int{},
		RecentSelections:        []SelectionRecord{},
		RecentProblems:          []ProblemReport{},
		GeneratedAt:             time.Now().UTC(),
	}
}

// SetTotals records the per-kind totals and mirrors them into
// ActivityByType.
func (s *Statistics) SetTotals(selections, problems, orders int) {
	s.TotalSelections = selections
	s.TotalProblems = problems
	s.TotalOrders = orders
	s.ActivityByType[ActivitySelection] = selections
	s.ActivityByType[ActivityProblem] = problems
	s.ActivityByType[ActivityOrder] = orders
}

// AddActivity counts one event on t's UTC day.
func (s *Statistics) AddActivity(t time.Time) {
	s.ActivityByDate[t.UTC().Format("2006-01-02")]++
}
