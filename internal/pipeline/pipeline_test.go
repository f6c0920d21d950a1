package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pump-selector/internal/matcher"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

const comboJSON = `[
  {" MODEL ": "SP-110", "Purpose": "Domestic", "Location": "House", "Source": "Home Sewage", "Water Level": "", "Delivery": "1st Floor", "Custom Height": "", "Usage": "500L-30min", "Phase": 220, "Quality": "Clean", "HP": 1.5},
  {" MODEL ": "HT-400", "Purpose": "Commercial", "Location": "Hotel", "Source": "Hotels Sewage", "Water Level": "", "Delivery": "3rd Floor", "Custom Height": "", "Usage": "3000L-60min", "Phase": 380, "Quality": "Dirty", "HP": 5}
]`

var hotelAnswers = model.Answers{
	"purpose":  "Commercial",
	"location": "Hotel",
	"source":   "hotel",
	"delivery": "floor3",
	"usage":    "3000L-60min",
	"phase":    "380",
	"quality":  "Dirty",
}

func newTestPipeline(t *testing.T, st store.Store) *Pipeline {
	t.Helper()
	sp, err := spares.NewService("")
	require.NoError(t, err)
	return New(st, matcher.NewSelector(matcher.DefaultThresholds(), nil), sp, nil, nil)
}

func newSQLitePipeline(t *testing.T) (*Pipeline, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return newTestPipeline(t, st), st
}

func TestPipeline_ImportAssignSubmit(t *testing.T) {
	ctx := context.Background()
	p, st := newSQLitePipeline(t)

	f, err := p.Import(ctx, "combos.json", []byte(comboJSON), model.RoleSelection)
	require.NoError(t, err)
	assert.True(t, f.ForSelection)
	assert.Equal(t, model.DatasetCombination, f.Kind)
	assert.Equal(t, model.DatasetCombination, p.Selector().Current().Kind())

	res, rec, err := p.Submit(ctx, hotelAnswers)
	require.NoError(t, err)
	require.Equal(t, model.MatchExact, res.Type)
	assert.Equal(t, "HT-400", res.Exact.Model)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)

	history, err := st.ListSelections(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MatchExact, history[0].ResultType)
	require.Len(t, history[0].Recommended, 1)
	assert.Equal(t, "HT-400", history[0].Recommended[0].Model)
}

func TestPipeline_NoDatasetStillRecorded(t *testing.T) {
	ctx := context.Background()
	p, st := newSQLitePipeline(t)

	res, _, err := p.Submit(ctx, model.Answers{"purpose": "domestic"})
	require.NoError(t, err)
	assert.Equal(t, model.MatchNone, res.Type)
	assert.Equal(t, model.ReasonNoDataset, res.Reason)

	history, err := st.ListSelections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPipeline_RefreshAndUnassign(t *testing.T) {
	ctx := context.Background()
	p, st := newSQLitePipeline(t)

	f, err := p.Import(ctx, "combos.json", []byte(comboJSON))
	require.NoError(t, err)
	assert.Equal(t, model.DatasetEmpty, p.Selector().Current().Kind())

	require.NoError(t, st.AssignFile(ctx, f.ID, model.RoleSelection))
	require.NoError(t, p.Refresh(ctx))
	assert.Equal(t, model.DatasetCombination, p.Selector().Current().Kind())

	require.NoError(t, p.Unassign(ctx, f.ID, model.RoleSelection))
	assert.Equal(t, model.DatasetEmpty, p.Selector().Current().Kind())
}

func TestPipeline_DeleteActiveFile(t *testing.T) {
	ctx := context.Background()
	p, _ := newSQLitePipeline(t)

	f, err := p.Import(ctx, "combos.json", []byte(comboJSON), model.RoleSelection, model.RoleSpares)
	require.NoError(t, err)
	assert.True(t, f.ForSpares)
	require.NotNil(t, p.Spares().Active())

	require.NoError(t, p.Delete(ctx, f.ID))
	assert.Equal(t, model.DatasetEmpty, p.Selector().Current().Kind())
	assert.Nil(t, p.Spares().Active())

	err = p.Delete(ctx, f.ID)
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestPipeline_ImportRejectsBadUpload(t *testing.T) {
	p, _ := newSQLitePipeline(t)

	_, err := p.Import(context.Background(), "notes.pdf", []byte("x"))
	assert.Error(t, err)

	_, err = p.Import(context.Background(), "broken.json", []byte("[{"))
	assert.Error(t, err)
}

func TestPipeline_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	p, st := newSQLitePipeline(t)

	o, err := p.PlaceOrder(ctx, spares.OrderRequest{
		PumpType:     "Priming",
		CustomerName: "Asha",
		Lines:        []spares.OrderLineRequest{{Model: "S1", PartCode: "MSPX1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", o.Total.StringFixed(2))

	orders, err := st.ListOrders(ctx, store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestPipeline_PlaceOrderInvalidSkipsStore(t *testing.T) {
	ms := new(mockStore)
	p := newTestPipeline(t, ms)

	_, err := p.PlaceOrder(context.Background(), spares.OrderRequest{PumpType: "Priming"})
	assert.True(t, eris.Is(err, spares.ErrInvalidOrder))
	ms.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestPipeline_SubmitStoreError(t *testing.T) {
	ms := new(mockStore)
	ms.On("SaveSelection", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	p := newTestPipeline(t, ms)

	res, rec, err := p.Submit(context.Background(), hotelAnswers)
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, model.MatchNone, res.Type)
	ms.AssertExpectations(t)
}

func TestPipeline_RefreshStoreError(t *testing.T) {
	ms := new(mockStore)
	ms.On("ActiveFile", mock.Anything, model.RoleSelection).Return(nil, errors.New("conn refused"))
	ms.On("ActiveFile", mock.Anything, model.RoleSpares).Return(nil, nil)
	p := newTestPipeline(t, ms)

	err := p.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load active selection dataset")
}

func TestPipeline_AssignErrorPropagates(t *testing.T) {
	ms := new(mockStore)
	ms.On("AssignFile", mock.Anything, "f1", model.RoleSpares).Return(store.ErrNoData)
	p := newTestPipeline(t, ms)

	err := p.Assign(context.Background(), "f1", model.RoleSpares)
	assert.True(t, eris.Is(err, store.ErrNoData))
	ms.AssertNotCalled(t, "ActiveFile", mock.Anything, mock.Anything)
}

func TestPipeline_ReportProblem(t *testing.T) {
	ctx := context.Background()
	p, st := newSQLitePipeline(t)

	r := &model.ProblemReport{PumpType: " Priming ", Problem: "  Loses prime overnight "}
	require.NoError(t, p.ReportProblem(ctx, r))
	assert.NotEmpty(t, r.ID)

	got, err := st.ListProblems(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Priming", got[0].PumpType)
	assert.Equal(t, "Loses prime overnight", got[0].Problem)
}

func TestPipeline_ReportProblemInvalidSkipsStore(t *testing.T) {
	ms := new(mockStore)
	p := newTestPipeline(t, ms)

	err := p.ReportProblem(context.Background(), &model.ProblemReport{PumpType: "Priming", Problem: "   "})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Problem", verrs[0].Field())
	ms.AssertNotCalled(t, "SaveProblem", mock.Anything, mock.Anything)
}

func TestPipeline_Stats(t *testing.T) {
	ctx := context.Background()
	p, _ := newSQLitePipeline(t)

	_, err := p.Import(ctx, "combos.json", []byte(comboJSON), model.RoleSelection)
	require.NoError(t, err)
	_, _, err = p.Submit(ctx, hotelAnswers)
	require.NoError(t, err)
	require.NoError(t, p.ReportProblem(ctx, &model.ProblemReport{PumpType: "Priming", Problem: "Noisy"}))

	stats, err := p.Stats(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSelections)
	assert.Equal(t, 1, stats.TotalProblems)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.Equal(t, map[string]int{"Commercial": 1}, stats.PurposeDistribution)
	assert.Equal(t, map[string]int{"exact": 1}, stats.ResultTypeDistribution)
	require.Len(t, stats.RecentSelections, 1)
	require.Len(t, stats.RecentProblems, 1)
	assert.Equal(t, "Noisy", stats.RecentProblems[0].Problem)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, 2, stats.ActivityByDate[today])
}

func TestPipeline_StatsStoreError(t *testing.T) {
	ms := new(mockStore)
	ms.On("Statistics", mock.Anything, mock.Anything).Return(nil, errors.New("conn refused"))
	ms.On("ListSelections", mock.Anything, 5).Return([]model.SelectionRecord{}, nil).Maybe()
	ms.On("ListProblems", mock.Anything, 5).Return([]model.ProblemReport{}, nil).Maybe()
	p := newTestPipeline(t, ms)

	_, err := p.Stats(context.Background(), time.Hour, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: statistics")
}
