package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/matcher"
	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/mirror"
	"github.com/sells-group/pump-selector/internal/pipeline"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

// pipelineEnv holds the store, mirror, and pipeline shared by commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Mirror   *mirror.Client // nil when not configured
	Notifier *mirror.Notifier
	Registry *prometheus.Registry
}

// Close waits for background mirror pushes and closes the store.
func (pe *pipelineEnv) Close() {
	pe.Notifier.Wait()
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode, opens and migrates the store,
// loads the active datasets, and builds the pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheus(reg)

	mc, err := initMirror(rec)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	var notifier *mirror.Notifier
	if mc != nil && cfg.Mirror.Enabled {
		notifier = mirror.NewNotifier(mc, time.Duration(cfg.Mirror.TimeoutSecs)*time.Second*3)
	}

	sp, err := spares.NewService(cfg.Spares.Currency)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load spares defaults")
	}
	sel := matcher.NewSelector(matcher.Thresholds{
		MaxResults:       cfg.Selection.MaxResults,
		PerfectScore:     cfg.Selection.PerfectThreshold,
		MinCompatibility: cfg.Selection.MinCompatibility,
	}, rec)

	p := pipeline.New(st, sel, sp, notifier, rec)
	if err := p.Refresh(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Mirror:   mc,
		Notifier: notifier,
		Registry: reg,
	}, nil
}
