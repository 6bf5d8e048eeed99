package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	goahttp "goa.design/goa/v3/http"

	"rotorcharter/internal/normalize"
	"rotorcharter/internal/services"
	"rotorcharter/internal/store"
	apperrors "rotorcharter/pkg/errors"
)

// RecordAPI is the intake and triage surface of one record variant.
type RecordAPI[T any] interface {
	Submit(ctx context.Context, p normalize.Payload) (*services.SubmitResult[T], error)
	List(ctx context.Context, f store.ListFilter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, p normalize.Payload) (*T, error)
	SetStatus(ctx context.Context, id, status string) (*T, error)
	SetRead(ctx context.Context, id string, read bool) (*T, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*store.Stats, error)
}

type recordHandlers[T any] struct {
	s     *Server
	mux   goahttp.Muxer
	api   RecordAPI[T]
	label string
}

// mountRecords registers the CRUD and triage routes of a variant under base.
// Submissions are also accepted on each of aliases.
func mountRecords[T any](s *Server, mux goahttp.Muxer, base, label string, api RecordAPI[T], aliases ...string) {
	h := &recordHandlers[T]{s: s, mux: mux, api: api, label: label}

	for _, path := range append([]string{base}, aliases...) {
		mux.Handle(http.MethodPost, path, s.limited(h.submit))
	}
	mux.Handle(http.MethodGet, base, s.guard(staffOnly, h.list))
	mux.Handle(http.MethodGet, base+"/stats", s.guard(staffOnly, h.stats))
	mux.Handle(http.MethodGet, base+"/{id}", s.guard(staffOnly, h.get))
	mux.Handle(http.MethodPut, base+"/{id}", s.guard(staffOnly, h.update))
	mux.Handle(http.MethodDelete, base+"/{id}", s.guard(adminOnly, h.delete))
	mux.Handle(http.MethodPatch, base+"/{id}/read", s.guard(staffOnly, h.setRead))
	mux.Handle(http.MethodPatch, base+"/{id}/status", s.guard(staffOnly, h.setStatus))
}

func (h *recordHandlers[T]) id(r *http.Request) string {
	return h.mux.Vars(r)["id"]
}

func (h *recordHandlers[T]) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var p normalize.Payload
	if err := decode(w, r, &p); err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	result, err := h.api.Submit(ctx, p)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.respond(ctx, w, http.StatusCreated, envelope{
		Success:    true,
		Data:       result.Record,
		Message:    result.Message,
		EmailError: result.EmailError,
	})
}

func (h *recordHandlers[T]) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := listFilter(r)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	records, err := h.api.List(ctx, f)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.list(ctx, w, len(records), records)
}

func (h *recordHandlers[T]) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.api.Stats(ctx)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.ok(ctx, w, st)
}

func (h *recordHandlers[T]) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.api.Get(ctx, h.id(r))
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.ok(ctx, w, rec)
}

func (h *recordHandlers[T]) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var p normalize.Payload
	if err := decode(w, r, &p); err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	rec, err := h.api.Update(ctx, h.id(r), p)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.ok(ctx, w, rec)
}

func (h *recordHandlers[T]) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.api.Delete(ctx, h.id(r)); err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.respond(ctx, w, http.StatusOK, envelope{Success: true, Message: h.label + " deleted"})
}

type readRequest struct {
	Read *bool `json:"read"`
}

func (h *recordHandlers[T]) setRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req readRequest
	if err := decode(w, r, &req); err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	if req.Read == nil {
		h.s.fail(ctx, w, apperrors.Validation([]string{"read"}, nil))
		return
	}
	rec, err := h.api.SetRead(ctx, h.id(r), *req.Read)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.ok(ctx, w, rec)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *recordHandlers[T]) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		h.s.fail(ctx, w, apperrors.Validation([]string{"status"}, nil))
		return
	}
	rec, err := h.api.SetStatus(ctx, h.id(r), req.Status)
	if err != nil {
		h.s.fail(ctx, w, err)
		return
	}
	h.s.ok(ctx, w, rec)
}

// listFilter reads q, status, read, skip and limit from the query string.
func listFilter(r *http.Request) (store.ListFilter, error) {
	q := r.URL.Query()
	f := store.ListFilter{
		Query:  strings.TrimSpace(q.Get("q")),
		Status: strings.TrimSpace(q.Get("status")),
	}

	var invalid []string
	if v := q.Get("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "read")
		} else {
			f.Read = &read
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &f.Skip}, {"limit", &f.Limit}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, p.name)
			continue
		}
		*p.dst = n
	}
	if err := apperrors.Validation(nil, invalid); err != nil {
		return f, err
	}
	return f, nil
}
