package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client gets the mapped user message and
// its support code, as JSON under /api and as an HTML page elsewhere.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/JonMunkholm/LeadImport/internal/logging"
	"github.com/JonMunkholm/LeadImport/internal/web/templates"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var errNoFile = errors.New("no file provided")

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, leadimport.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, leadimport.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, leadimport.ErrNoDataRows),
		errors.Is(err, leadimport.ErrMissingIdentity),
		errors.Is(err, leadimport.ErrEmptyMapping),
		errors.Is(err, leadimport.ErrUnknownField),
		errors.Is(err, leadimport.ErrColumnNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, leadimport.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := leadimport.MapError(err)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		msg = leadimport.UserMessage{
			Message: "The import request is invalid",
			Action:  "Fix the listed fields and try again",
			Code:    "REQ001",
		}
	}

	logger := logging.FromContext(r.Context())
	if status >= 500 {
		logger.Error("request error", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	} else {
		logger.Info("request rejected", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	if !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorPage(status, msg).Render(r.Context(), w)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if verrs != nil {
		resp.Fields = make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			resp.Fields[field] = ferr.Error()
		}
	}
	writeJSONStatus(w, status, resp)
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
