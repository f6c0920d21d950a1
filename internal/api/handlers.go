package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) selectorStatus(w http.ResponseWriter, _ *http.Request) {
	c := s.p.Selector().Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"source":      c.Source,
		"loaded_at":   c.LoadedAt,
		"diagnostics": c.Diagnostics(),
	})
}

type selectionRequest struct {
	Answers model.Answers `json:"answers" validate:"required,dive,keys,max=64,endkeys,max=256"`
}

type selectionResponse struct {
	SelectionID string            `json:"selection_id"`
	Result      model.MatchResult `json:"result"`
}

func (s *Server) submitSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	res, rec, err := s.p.Submit(r.Context(), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{SelectionID: rec.ID, Result: res})
}

func (s *Server) listSelections(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.p.Store().ListSelections(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

// uploadDataset accepts a multipart form with a "file" part, or a raw body
// with the file name in ?name=. Repeated "assign" values assign the new
// file to roles.
func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		name string
		data []byte
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, badRequest("missing file part: %v", err))
			return
		}
		defer file.Close() //nolint:errcheck
		name = hdr.Filename
		data, err = io.ReadAll(file)
		if err != nil {
			writeError(w, r, badRequest("read upload: %v", err))
			return
		}
	} else {
		name = r.URL.Query().Get("name")
		if name == "" {
			writeError(w, r, badRequest("name is required"))
			return
		}
		var err error
		data, err = io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, badRequest("read upload: %v", err))
			return
		}
	}

	var roles []model.DatasetRole
	assign := r.URL.Query()["assign"]
	if r.MultipartForm != nil {
		assign = append(assign, r.MultipartForm.Value["assign"]...)
	}
	for _, v := range assign {
		role, err := parseRole(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		roles = append(roles, role)
	}

	f, err := s.p.Import(r.Context(), name, data, roles...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f.WithoutData())
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	files, err := s.p.Store().ListFiles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(files))
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	f, err := s.p.Store().GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.p.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignDataset(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, true)
}

func (s *Server) unassignDataset(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, false)
}

func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, assign bool) {
	role, err := parseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if assign {
		err = s.p.Assign(r.Context(), id, role)
	} else {
		err = s.p.Unassign(r.Context(), id, role)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.p.Store().GetFile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f.WithoutData())
}

type pumpType struct {
	PumpType string `json:"pump_type"`
	Category string `json:"category"`
}

func (s *Server) listPumpTypes(w http.ResponseWriter, _ *http.Request) {
	types := spares.PumpTypes()
	out := make([]pumpType, 0, len(types))
	for _, t := range types {
		out = append(out, pumpType{PumpType: t, Category: spares.CategoryFor(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sparesTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.p.Spares().Table(chi.URLParam(r, "pumpType"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req spares.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.p.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := s.p.Store().ListOrders(r.Context(), store.OrderFilter{
		SelectionID: r.URL.Query().Get("selection_id"),
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

func (s *Server) reportProblem(w http.ResponseWriter, r *http.Request) {
	var req model.ProblemReport
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.ID = ""
	req.CreatedAt = time.Time{}
	if err := s.p.ReportProblem(r.Context(), &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	problems, err := s.p.Store().ListProblems(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(problems))
}

// stats reports aggregate history. ?days= sets the daily activity window
// and ?recent= caps the recent lists.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recent, err := queryInt(r, "recent")
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.p.Stats(r.Context(), time.Duration(days)*24*time.Hour, recent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func parseRole(v string) (model.DatasetRole, error) {
	role := model.DatasetRole(strings.ToLower(strings.TrimSpace(v)))
	if !role.Valid() {
		return "", eris.Wrapf(store.ErrInvalidRole, "%q", v)
	}
	return role, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
