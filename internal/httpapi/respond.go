package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"pkm/internal/pkm"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Violations []pkm.Violation `json:"violations,omitempty"`
}

var statusByCode = map[string]int{
	pkm.CodeValidation:       http.StatusUnprocessableEntity,
	pkm.CodeDuplicate:        http.StatusConflict,
	pkm.CodeNotFound:         http.StatusNotFound,
	pkm.CodeMissingParameter: http.StatusBadRequest,
	pkm.CodeTimeout:          http.StatusGatewayTimeout,
	pkm.CodeInternal:         http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}

// writeError maps err onto a status code. Internal errors are logged and
// reported without details.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := pkm.ErrorCode(err)
	body := errorBody{Code: code, Message: err.Error()}

	var ve *pkm.ValidationError
	if errors.As(err, &ve) {
		body.Violations = ve.Violations
	}
	if code == pkm.CodeInternal {
		a.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		body.Message = "internal error"
	}
	writeErrorBody(w, statusByCode[code], body)
}

// decode reads a JSON body into v. Unknown fields are rejected so typos in
// patch requests do not silently do nothing.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeErrorBody(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: fmt.Sprintf("invalid JSON body: %v", err)})
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &pkm.ValidationError{Violations: []pkm.Violation{{Field: name, Message: "must be an integer"}}}
	}
	return n, nil
}
