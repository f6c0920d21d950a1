package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pump-selector/internal/model"
)

// Defaults for Stats.
const (
	DefaultStatsWindow = 30 * 24 * time.Hour
	DefaultStatsRecent = 10
)

// ReportProblem sanitizes, validates, and stores a problem report.
// Validation failures wrap validator.ValidationErrors.
func (p *Pipeline) ReportProblem(ctx context.Context, r *model.ProblemReport) error {
	r.Sanitize()
	if err := p.validate.Struct(r); err != nil {
		return eris.Wrap(err, "pipeline: invalid problem report")
	}
	if err := p.store.SaveProblem(ctx, r); err != nil {
		return eris.Wrap(err, "pipeline: save problem")
	}
	zap.L().Info("pipeline: problem reported",
		zap.String("problem_id", r.ID),
		zap.String("pump_type", r.PumpType),
		zap.String("selection_id", r.SelectionID),
	)
	return nil
}

// Stats aggregates history for administrators. Daily activity covers the
// last window; recent caps the recent selection and problem lists.
// Non-positive arguments use the defaults.
func (p *Pipeline) Stats(ctx context.Context, window time.Duration, recent int) (*model.Statistics, error) {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	if recent <= 0 {
		recent = DefaultStatsRecent
	}
	since := time.Now().UTC().Add(-window).Truncate(24 * time.Hour)

	var (
		stats      *model.Statistics
		selections []model.SelectionRecord
		problems   []model.ProblemReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = p.store.Statistics(gctx, since)
		return eris.Wrap(err, "pipeline: statistics")
	})
	g.Go(func() error {
		var err error
		selections, err = p.store.ListSelections(gctx, recent)
		return eris.Wrap(err, "pipeline: recent selections")
	})
	g.Go(func() error {
		var err error
		problems, err = p.store.ListProblems(gctx, recent)
		return eris.Wrap(err, "pipeline: recent problems")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if selections != nil {
		stats.RecentSelections = selections
	}
	if problems != nil {
		stats.RecentProblems = problems
	}
	return stats, nil
}
