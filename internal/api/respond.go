package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/fetcher"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case eris.Is(err, store.ErrNotFound), eris.Is(err, spares.ErrUnknownPumpType):
		return http.StatusNotFound
	case eris.Is(err, store.ErrNoData),
		eris.Is(err, store.ErrInvalidRole),
		eris.Is(err, spares.ErrInvalidOrder),
		eris.Is(err, spares.ErrUnknownPart),
		eris.Is(err, catalog.ErrMalformed),
		eris.Is(err, fetcher.ErrUnsupportedFormat),
		eris.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = eris.New("api: bad request")

func badRequest(format string, args ...any) error {
	return eris.Wrapf(errBadRequest, format, args...)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Error = "validation failed"
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = fe.Tag()
		}
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", body.RequestID),
			zap.Error(err),
		)
		body.Error = "internal error"
	} else {
		zap.L().Debug("api: request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
