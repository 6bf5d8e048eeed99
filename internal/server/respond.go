package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	goahttp "goa.design/goa/v3/http"

	apperrors "rotorcharter/pkg/errors"
)

const maxBodyBytes = 1 << 20

// envelope is the JSON shape of every API response.
type envelope struct {
	Success    bool     `json:"success"`
	Count      *int     `json:"count,omitempty"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message,omitempty"`
	EmailError bool     `json:"emailError,omitempty"`
	Error      string   `json:"error,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, status int, body any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(body); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) ok(ctx context.Context, w http.ResponseWriter, data any) {
	s.respond(ctx, w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) list(ctx context.Context, w http.ResponseWriter, count int, data any) {
	s.respond(ctx, w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

// fail writes err as an error envelope. Server-side failures only carry
// their detail in debug mode.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := statusOf(code)

	body := envelope{Error: err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Fields = appErr.Fields
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "code", code, "error", err, "request_id", requestID(ctx))
		if s.debug {
			body.Error = err.Error()
		} else {
			body.Error = "Internal server error"
		}
	}
	s.respond(ctx, w, status, body)
}

func statusOf(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrCodeBadRequest, "Request body is required")
		}
		return apperrors.Wrap(apperrors.ErrCodeBadRequest, "Invalid JSON body", err)
	}
	return nil
}
