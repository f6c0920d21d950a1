package matcher

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/requirement"
)

// Selector is the entry point for questionnaire submissions. It holds the
// active matching context and replaces it atomically on reload, so a
// submission always sees one complete dataset.
type Selector struct {
	current    atomic.Pointer[Context]
	thresholds Thresholds
	rec        metrics.Recorder
}

// NewSelector creates a selector with no dataset loaded.
func NewSelector(t Thresholds, rec metrics.Recorder) *Selector {
	if rec == nil {
		rec = metrics.Nop{}
	}
	s := &Selector{thresholds: t.withDefaults(), rec: rec}
	s.current.Store(NewContext(nil, ""))
	return s
}

// Use builds a context from ds and makes it active.
func (s *Selector) Use(ds *catalog.Dataset, source string) *Context {
	c := NewContext(ds, source)
	s.current.Store(c)
	s.rec.SetDataset(string(model.RoleSelection), string(c.Kind()), c.Diagnostics().Rows)

	d := c.Diagnostics()
	log := zap.L().With(
		zap.String("source", source),
		zap.String("kind", string(d.Kind)),
		zap.Int("rows", d.Rows),
	)
	switch d.Kind {
	case model.DatasetCombination:
		log.Info("matcher: combination dataset loaded",
			zap.Any("bound_columns", d.BoundColumns),
			zap.Any("source_mappings", c.mappings[model.FieldSource]),
			zap.Any("delivery_mappings", c.mappings[model.FieldDelivery]),
		)
		if len(d.MissingFields) > 0 {
			log.Warn("matcher: canonical columns missing, treated as empty",
				zap.Any("fields", d.MissingFields),
			)
		}
		if len(d.ShadowedRows) > 0 {
			log.Warn("matcher: rows repeat an earlier combination with a different model",
				zap.Ints("rows", d.ShadowedRows),
			)
		}
	case model.DatasetLegacy:
		log.Info("matcher: legacy catalog loaded", zap.Int("pumps", d.Pumps))
	default:
		log.Warn("matcher: no selection data available")
	}
	return c
}

// LoadFile parses a stored dataset file and makes it active. A nil file or
// unparseable data leaves the selector with no data; parse failures are
// logged rather than returned.
func (s *Selector) LoadFile(f *model.DatasetFile) *Context {
	if !f.HasData() {
		return s.Use(nil, "")
	}
	ds, err := catalog.ParseJSON(f.Data)
	if err != nil {
		zap.L().Error("matcher: malformed selection dataset",
			zap.String("file_id", f.ID),
			zap.String("file_name", f.FileName),
			zap.Error(err),
		)
		return s.Use(nil, f.ID)
	}
	return s.Use(ds, f.ID)
}

// Current returns the active context.
func (s *Selector) Current() *Context {
	return s.current.Load()
}

// Submit matches one questionnaire submission. It never fails: a missing
// dataset or an unmatched selection is reported as a "none" result.
func (s *Selector) Submit(ctx context.Context, answers model.Answers) model.MatchResult {
	start := time.Now()
	c := s.current.Load()

	res := s.match(c, answers)
	s.rec.ObserveSelection(string(res.Type), time.Since(start))

	if ce := zap.L().Check(zap.DebugLevel, "matcher: selection matched"); ce != nil {
		fields := []zap.Field{
			zap.String("type", string(res.Type)),
			zap.String("reason", res.Reason),
			zap.Float64("head", res.Requirement.Head),
			zap.Float64("flow_lph", res.Requirement.Flow),
			zap.Float64("hp", res.Requirement.HP),
		}
		if res.Exact != nil {
			fields = append(fields, zap.String("model", res.Exact.Model))
		}
		if len(res.NearMisses) > 0 {
			fields = append(fields, zap.Any("near_misses", res.NearMisses))
		}
		if ctx.Err() != nil {
			fields = append(fields, zap.NamedError("ctx", ctx.Err()))
		}
		ce.Write(fields...)
	}
	return res
}

func (s *Selector) match(c *Context, answers model.Answers) model.MatchResult {
	res := model.MatchResult{
		Type:        model.MatchNone,
		Requirement: requirement.Compute(answers, requirement.IsSimpleMode(answers)),
		Selection:   Canonicalize(answers),
	}

	switch c.Kind() {
	case model.DatasetCombination:
		exact, misses := c.FindExactMatch(res.Selection)
		if exact != nil {
			res.Type = model.MatchExact
			res.Exact = exact
			return res
		}
		res.Reason = model.ReasonNoMatch
		res.NearMisses = misses
	case model.DatasetLegacy:
		cands := RankCandidates(c.pumps, res.Requirement, s.thresholds)
		if len(cands) > 0 {
			res.Type = model.MatchRanked
			res.Candidates = cands
			return res
		}
		res.Reason = model.ReasonNoMatch
	default:
		res.Reason = model.ReasonNoDataset
	}
	return res
}
