// Package pipeline ties the selector, spares service, store, and mirror
// together. It is the layer the HTTP API and the CLI call into.
package pipeline

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/matcher"
	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/mirror"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

// Pipeline coordinates submissions, dataset management, spares orders, and
// problem reports.
type Pipeline struct {
	store    store.Store
	selector *matcher.Selector
	spares   *spares.Service
	notifier *mirror.Notifier
	rec      metrics.Recorder
	validate *validator.Validate
}

// New creates a Pipeline. notifier may be nil when mirroring is off.
func New(
	st store.Store,
	sel *matcher.Selector,
	sp *spares.Service,
	notifier *mirror.Notifier,
	rec metrics.Recorder,
) *Pipeline {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Pipeline{
		store:    st,
		selector: sel,
		spares:   sp,
		notifier: notifier,
		rec:      rec,
		validate: validator.New(),
	}
}

// Selector returns the selector the pipeline feeds.
func (p *Pipeline) Selector() *matcher.Selector { return p.selector }

// Spares returns the spares service.
func (p *Pipeline) Spares() *spares.Service { return p.spares }

// Store returns the backing store.
func (p *Pipeline) Store() store.Store { return p.store }

// Refresh loads the active selection and spares datasets from the store.
// Both roles load concurrently; a role with no assigned file is cleared.
func (p *Pipeline) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.refreshRole(gctx, model.RoleSelection)
	})
	g.Go(func() error {
		return p.refreshRole(gctx, model.RoleSpares)
	})
	return g.Wait()
}

func (p *Pipeline) refreshRole(ctx context.Context, role model.DatasetRole) error {
	f, err := p.store.ActiveFile(ctx, role)
	if err != nil {
		return eris.Wrapf(err, "pipeline: load active %s dataset", role)
	}
	switch role {
	case model.RoleSelection:
		p.selector.LoadFile(f)
	case model.RoleSpares:
		p.spares.Use(f)
		kind, rows := string(model.DatasetEmpty), 0
		if f != nil {
			kind, rows = string(f.Kind), f.RowCount
		}
		p.rec.SetDataset(string(model.RoleSpares), kind, rows)
		zap.L().Info("pipeline: spares dataset loaded",
			zap.Bool("assigned", f != nil),
			zap.Int("rows", rows),
		)
	}
	return nil
}

// Submit matches a questionnaire submission and records it in the
// selection history. Matching never fails; only storage errors are
// returned, alongside the result.
func (p *Pipeline) Submit(ctx context.Context, answers model.Answers) (model.MatchResult, *model.SelectionRecord, error) {
	res := p.selector.Submit(ctx, answers)
	rec := model.NewSelectionRecord(answers, res)
	if err := p.store.SaveSelection(ctx, rec); err != nil {
		return res, nil, eris.Wrap(err, "pipeline: save selection")
	}
	return res, rec, nil
}

// Import parses an upload, stores it, and optionally assigns it to roles.
func (p *Pipeline) Import(ctx context.Context, name string, data []byte, roles ...model.DatasetRole) (*model.DatasetFile, error) {
	f, ds, err := catalog.NewFile(ctx, name, data)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveFile(ctx, f); err != nil {
		return nil, eris.Wrap(err, "pipeline: save file")
	}
	zap.L().Info("pipeline: dataset imported",
		zap.String("file_id", f.ID),
		zap.String("file_name", f.FileName),
		zap.String("kind", string(f.Kind)),
		zap.Int("rows", f.RowCount),
		zap.Int("columns", len(ds.Columns)),
	)
	p.notifier.FileSaved(f)

	for _, role := range roles {
		if err := p.Assign(ctx, f.ID, role); err != nil {
			return f, err
		}
		switch role {
		case model.RoleSelection:
			f.ForSelection = true
		case model.RoleSpares:
			f.ForSpares = true
		}
	}
	return f, nil
}

// Assign makes a file the active dataset for role and reloads that role.
func (p *Pipeline) Assign(ctx context.Context, id string, role model.DatasetRole) error {
	if err := p.store.AssignFile(ctx, id, role); err != nil {
		return eris.Wrapf(err, "pipeline: assign %s", id)
	}
	return p.refreshRole(ctx, role)
}

// Unassign clears role from a file and reloads that role.
func (p *Pipeline) Unassign(ctx context.Context, id string, role model.DatasetRole) error {
	if err := p.store.UnassignFile(ctx, id, role); err != nil {
		return eris.Wrapf(err, "pipeline: unassign %s", id)
	}
	return p.refreshRole(ctx, role)
}

// Delete removes a file. Roles it held are reloaded so the matcher stops
// using it.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	f, err := p.store.GetFile(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "pipeline: delete %s", id)
	}
	if err := p.store.DeleteFile(ctx, id); err != nil {
		return eris.Wrapf(err, "pipeline: delete %s", id)
	}
	p.notifier.FileDeleted(id)

	if f.ForSelection {
		if err := p.refreshRole(ctx, model.RoleSelection); err != nil {
			return err
		}
	}
	if f.ForSpares {
		return p.refreshRole(ctx, model.RoleSpares)
	}
	return nil
}

// PlaceOrder prices a spares order and stores it.
func (p *Pipeline) PlaceOrder(ctx context.Context, req spares.OrderRequest) (*model.Order, error) {
	start := time.Now()
	o, err := p.spares.Quote(req)
	if err != nil {
		return nil, err
	}
	if err := p.store.CreateOrder(ctx, o); err != nil {
		return nil, eris.Wrap(err, "pipeline: create order")
	}
	p.rec.IncOrder(string(o.Status))
	zap.L().Info("pipeline: spares order placed",
		zap.String("order_id", o.ID),
		zap.String("pump_type", o.PumpType),
		zap.Int("lines", len(o.Lines)),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return o, nil
}
