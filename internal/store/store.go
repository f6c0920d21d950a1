// Package store persists dataset files, selection history, spares orders,
// and problem reports in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/model"
)

// Sentinel errors.
var (
	ErrNotFound    = eris.New("store: not found")
	ErrNoData      = eris.New("store: dataset file has no data")
	ErrInvalidRole = eris.New("store: invalid dataset role")
)

// OrderFilter specifies criteria for listing orders.
type OrderFilter struct {
	SelectionID string `json:"selection_id,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the pump selector.
type Store interface {
	// Dataset files. SaveFile inserts or replaces a file by ID; role flags
	// are only changed through AssignFile and UnassignFile.
	SaveFile(ctx context.Context, f *model.DatasetFile) error
	GetFile(ctx context.Context, id string) (*model.DatasetFile, error)
	ListFiles(ctx context.Context) ([]model.DatasetFile, error)
	DeleteFile(ctx context.Context, id string) error
	AssignFile(ctx context.Context, id string, role model.DatasetRole) error
	UnassignFile(ctx context.Context, id string, role model.DatasetRole) error
	ActiveFile(ctx context.Context, role model.DatasetRole) (*model.DatasetFile, error)

	// Selection history
	SaveSelection(ctx context.Context, r *model.SelectionRecord) error
	ListSelections(ctx context.Context, limit int) ([]model.SelectionRecord, error)

	// Spares orders
	CreateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)

	// Problem reports
	SaveProblem(ctx context.Context, p *model.ProblemReport) error
	ListProblems(ctx context.Context, limit int) ([]model.ProblemReport, error)

	// Statistics aggregates totals and distributions over every stored
	// selection, problem, and order. Daily activity covers events at or
	// after since. Recent lists are left empty.
	Statistics(ctx context.Context, since time.Time) (*model.Statistics, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ActiveSelectionDataset returns the file assigned for selection, or nil.
func ActiveSelectionDataset(ctx context.Context, s Store) (*model.DatasetFile, error) {
	return s.ActiveFile(ctx, model.RoleSelection)
}

// ActiveSparesDataset returns the file assigned for spares, or nil.
func ActiveSparesDataset(ctx context.Context, s Store) (*model.DatasetFile, error) {
	return s.ActiveFile(ctx, model.RoleSpares)
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// roleColumn returns the flag column for role.
func roleColumn(role model.DatasetRole) (string, error) {
	switch role {
	case model.RoleSelection:
		return "for_selection", nil
	case model.RoleSpares:
		return "for_spares", nil
	}
	return "", eris.Wrapf(ErrInvalidRole, "%q", role)
}

const statsTotalsQuery = `SELECT (SELECT COUNT(*) FROM selections), (SELECT COUNT(*) FROM problems), (SELECT COUNT(*) FROM orders)`

// statsGroup is one distribution reported by Statistics. The query
// returns (key, count) rows.
type statsGroup struct {
	name  string
	query string
	into  func(*model.Statistics) map[string]int
}

// statsGroups returns the distribution queries. purpose is the dialect's
// expression extracting answers.purpose as text.
func statsGroups(purpose string) []statsGroup {
	return []statsGroup{
		{
			name:  "mode",
			query: `SELECT COALESCE(NULLIF(mode, ''), 'simple'), COUNT(*) FROM selections GROUP BY 1`,
			into:  func(s *model.Statistics) map[string]int { return s.ModeDistribution },
		},
		{
			name:  "purpose",
			query: `SELECT COALESCE(NULLIF(` + purpose + `, ''), 'unknown'), COUNT(*) FROM selections GROUP BY 1`,
			into:  func(s *model.Statistics) map[string]int { return s.PurposeDistribution },
		},
		{
			name:  "result type",
			query: `SELECT result_type, COUNT(*) FROM selections GROUP BY result_type`,
			into:  func(s *model.Statistics) map[string]int { return s.ResultTypeDistribution },
		},
		{
			name:  "problem type",
			query: `SELECT COALESCE(NULLIF(pump_type, ''), 'unknown'), COUNT(*) FROM problems GROUP BY 1`,
			into:  func(s *model.Statistics) map[string]int { return s.ProblemTypeDistribution },
		},
	}
}

// activityTables feed Statistics.ActivityByDate.
var activityTables = []string{"selections", "problems", "orders"}
