package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pump-selector/internal/matcher"
	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/pipeline"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

const comboJSON = `[
  {" MODEL ": "SP-110", "Purpose": "Domestic", "Location": "House", "Source": "Home Sewage", "Water Level": "", "Delivery": "1st Floor", "Custom Height": "", "Usage": "500L-30min", "Phase": 220, "Quality": "Clean", "HP": 1.5},
  {" MODEL ": "HT-400", "Purpose": "Commercial", "Location": "Hotel", "Source": "Hotels Sewage", "Water Level": "", "Delivery": "3rd Floor", "Custom Height": "", "Usage": "3000L-60min", "Phase": 380, "Quality": "Dirty", "HP": 5}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg)
	sp, err := spares.NewService("")
	require.NoError(t, err)
	p := pipeline.New(st, matcher.NewSelector(matcher.DefaultThresholds(), rec), sp, nil, rec)

	srv := httptest.NewServer(NewHandler(p, Options{Gatherer: reg}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func uploadCombo(t *testing.T, srv *httptest.Server, query string) model.DatasetFile {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/api/datasets?name=combos.json"+query, "application/json", []byte(comboJSON))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var f model.DatasetFile
	require.NoError(t, json.Unmarshal(body, &f))
	return f
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestUploadAndSelect(t *testing.T) {
	srv := newTestServer(t)

	f := uploadCombo(t, srv, "&assign=selection")
	assert.True(t, f.ForSelection)
	assert.Equal(t, model.DatasetCombination, f.Kind)
	assert.Equal(t, 2, f.RowCount)
	assert.Empty(t, f.Data)

	payload := `{"answers": {"purpose": "Commercial", "location": "Hotel", "source": "hotel", "delivery": "floor3", "usage": "3000L-60min", "phase": "380", "quality": "Dirty"}}`
	resp, body := do(t, http.MethodPost, srv.URL+"/api/selections", "application/json", []byte(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out selectionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.SelectionID)
	require.Equal(t, model.MatchExact, out.Result.Type)
	assert.Equal(t, "HT-400", out.Result.Exact.Model)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/selections?limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []model.SelectionRecord
	require.NoError(t, json.Unmarshal(body, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, out.SelectionID, recs[0].ID)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/selector", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"kind":"combination"`)

	resp, body = do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pumpsel_selections_total")
}

func TestSelection_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/selections", "application/json", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/selections", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "validation failed")

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/selections?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_Multipart(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "legacy.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Model,HP,Voltage\nSP-1,1,220V\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("assign", "spares"))
	require.NoError(t, mw.Close())

	resp, body := do(t, http.MethodPost, srv.URL+"/api/datasets", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var f model.DatasetFile
	require.NoError(t, json.Unmarshal(body, &f))
	assert.Equal(t, "legacy.csv", f.FileName)
	assert.Equal(t, "csv", f.FileType)
	assert.True(t, f.ForSpares)
}

func TestUpload_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/datasets", "application/json", []byte(comboJSON))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets?name=x.pdf", "application/pdf", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets?name=x.json", "application/json", []byte(`[{`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets?name=x.json&assign=billing", "application/json", []byte(comboJSON))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDatasetLifecycle(t *testing.T) {
	srv := newTestServer(t)
	f := uploadCombo(t, srv, "")

	resp, body := do(t, http.MethodGet, srv.URL+"/api/datasets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files []model.DatasetFile
	require.NoError(t, json.Unmarshal(body, &files))
	require.Len(t, files, 1)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets/"+f.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full model.DatasetFile
	require.NoError(t, json.Unmarshal(body, &full))
	assert.NotEmpty(t, full.Data)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets/"+f.ID+"/assign?role=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/datasets/"+f.ID+"/assign?role=selection", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"for_selection":true`)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/datasets/"+f.ID+"/unassign?role=selection", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"for_selection":false`)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets/missing/assign?role=spares", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/datasets/"+f.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/datasets/"+f.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSpares(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/spares", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var types []pumpType
	require.NoError(t, json.Unmarshal(body, &types))
	assert.Len(t, types, len(spares.Categories))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/spares/Priming", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tbl model.SparesTable
	require.NoError(t, json.Unmarshal(body, &tbl))
	assert.Equal(t, "Self Priming Mini-Monoblock", tbl.Category)
	assert.NotEmpty(t, tbl.Rows)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/spares/opwell", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders(t *testing.T) {
	srv := newTestServer(t)

	order := `{"pump_type": "Priming", "customer_name": "Asha", "lines": [{"model": "S1", "part_code": "MSPX1", "quantity": 2}]}`
	resp, body := do(t, http.MethodPost, srv.URL+"/api/orders", "application/json", []byte(order))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var o model.Order
	require.NoError(t, json.Unmarshal(body, &o))
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, "1000", o.Total.String())

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/orders", "application/json", []byte(`{"pump_type": "Priming"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad := strings.Replace(order, "MSPX1", "NOPE", 1)
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/orders", "application/json", []byte(bad))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/orders", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []model.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/orders?selection_id=none", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(store.ErrNoData))
	assert.Equal(t, http.StatusBadRequest, statusFor(badRequest("x")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestProblems(t *testing.T) {
	srv := newTestServer(t)

	report := `{"pump_type": " Priming ", "problem": "Loses prime overnight", "model": "S1", "id": "client-set"}`
	resp, body := do(t, http.MethodPost, srv.URL+"/api/problems", "application/json", []byte(report))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p model.ProblemReport
	require.NoError(t, json.Unmarshal(body, &p))
	assert.NotEqual(t, "client-set", p.ID)
	assert.Equal(t, "Priming", p.PumpType)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/problems", "application/json", []byte(`{"pump_type": "Priming", "problem": "  "}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var eb errorBody
	require.NoError(t, json.Unmarshal(body, &eb))
	assert.Equal(t, "required", eb.Fields["Problem"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/problems", "application/json", []byte(`{"pump_type": "Priming", "problem": "x", "selection_id": "abc"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/problems", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var problems []model.ProblemReport
	require.NoError(t, json.Unmarshal(body, &problems))
	require.Len(t, problems, 1)
	assert.Equal(t, p.ID, problems[0].ID)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var empty model.Statistics
	require.NoError(t, json.Unmarshal(body, &empty))
	assert.Zero(t, empty.TotalSelections)
	assert.NotNil(t, empty.RecentSelections)

	uploadCombo(t, srv, "&assign=selection")
	sel := `{"answers": {"purpose": "Commercial", "location": "Hotel", "source": "hotel", "delivery": "floor3", "usage": "3000L-60min", "phase": "380", "quality": "Dirty"}}`
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/selections", "application/json", []byte(sel))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/problems", "application/json", []byte(`{"pump_type": "Priming", "problem": "Noisy"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/stats?days=7&recent=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var st model.Statistics
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 1, st.TotalSelections)
	assert.Equal(t, 1, st.TotalProblems)
	assert.Equal(t, 1, st.ModeDistribution["simple"])
	assert.Equal(t, 1, st.ProblemTypeDistribution["Priming"])
	assert.Len(t, st.RecentSelections, 1)
	assert.Len(t, st.RecentProblems, 1)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/stats?days=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
