package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/chatblast/core"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

// Error codes written in ErrorDetail.Code for kinds without a dotted key.
const (
	CodeRefresh  = "refresh"
	CodeInternal = "internal_error"
	CodeUpstream = "upstream_failure"
)

// JSONResponse is the response envelope.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
	before func(w http.ResponseWriter)
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	if j.before != nil {
		j.before(w)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithBeforeWrite runs fn before headers are written, e.g. to set cookies.
func WithBeforeWrite(fn func(w http.ResponseWriter)) JSONOption {
	return func(r *jsonResponse) {
		r.before = fn
	}
}

// JSON wraps v in the data envelope with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err in the error envelope with the status of its kind.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := ClassifyError(err)
	r := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClassifyError maps err to a status and a client-safe detail. Upstream and
// internal failures never expose the underlying message.
func ClassifyError(err error) (int, *ErrorDetail) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return http.StatusBadRequest, &ErrorDetail{
			Code:    core.Key(err, "validation_failed"),
			Message: http.StatusText(http.StatusBadRequest),
			Details: ve.Map(),
		}
	}

	status := core.HTTPStatus(err)
	detail := &ErrorDetail{Message: http.StatusText(status)}

	switch {
	case errors.Is(err, core.ErrStaleSession):
		detail.Code = CodeRefresh
	case errors.Is(err, core.ErrUpstreamFailure):
		detail.Code = CodeUpstream
	case status == http.StatusInternalServerError:
		detail.Code = CodeInternal
	default:
		detail.Code = core.Key(err, http.StatusText(status))
	}

	return status, detail
}
