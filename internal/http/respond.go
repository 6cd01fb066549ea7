package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/importer"
	"cashflow/internal/log"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/services"
	"cashflow/internal/session"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests: bad JSON, bad query values.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// apiError is the JSON body of every failed request.
type apiError struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	RequestID string         `json:"requestId,omitempty"`
	Missing   []string       `json:"missingHeaders,omitempty"`
	Rows      []rowErrorJSON `json:"rows,omitempty"`
}

type rowErrorJSON struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Error string `json:"error"`
}

// statusOf maps domain errors to HTTP status codes and a stable code string.
func statusOf(err error) (int, string) {
	var (
		headerErr *importer.HeaderError
		rowsErr   *importer.ValidationError
	)
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, session.ErrUnknownView):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, core.ErrNoCurrentUser):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, core.ErrDuplicateName):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &headerErr), errors.As(err, &rowsErr),
		errors.Is(err, importer.ErrNoValidRows), errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "import_rejected"
	case core.IsValidation(err),
		errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrInvalidSignUp),
		errors.Is(err, export.ErrNoData):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, services.ErrExportUnavailable), errors.Is(err, services.ErrSheetsUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	body := apiError{Error: err.Error(), Code: code, RequestID: trace.GetRequestID(r.Context())}

	var (
		headerErr *importer.HeaderError
		rowsErr   *importer.ValidationError
	)
	if errors.As(err, &headerErr) {
		body.Missing = headerErr.Missing
	}
	if errors.As(err, &rowsErr) {
		for _, re := range rowsErr.Rows {
			body.Rows = append(body.Rows, rowErrorJSON{Row: re.Row, Field: re.Field, Value: re.Value, Error: re.Err.Error()})
		}
	}

	if status >= 500 {
		log.FromContext(r.Context(), s.logger).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, code,
			log.FieldError, err)
		// internal details stay in the log
		if code == "internal" {
			body.Error = "internal server error"
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

// amountInput accepts an amount as a JSON number or string.
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*a = amountInput(str)
		return nil
	}
	*a = amountInput(s)
	return nil
}

// queryList splits comma-separated and repeated query values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
