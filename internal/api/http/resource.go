// Package apihttp holds the HTTP helpers shared by module handlers.
package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"refinery-ops/internal/audit"
	"refinery-ops/internal/observability/metrics"
)

const maxBodyBytes = 1 << 20

// Service is the CRUD surface every module exposes.
type Service[T, C, U, F any] interface {
	List(ctx context.Context, filter F) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, input C) (*T, error)
	Update(ctx context.Context, id string, patch U) (*T, error)
	Delete(ctx context.Context, id string) error
}

// SubHandler serves GET {base}/{id}/{name}.
type SubHandler func(w http.ResponseWriter, r *http.Request, id string)

// Resource serves a module's collection and item routes:
//
//	GET    {base}          list
//	POST   {base}          create
//	GET    {base}/{id}     get
//	PATCH  {base}/{id}     update
//	DELETE {base}/{id}     delete
type Resource[T, C, U, F any] struct {
	Base        string
	Module      string
	Kind        string
	Service     Service[T, C, U, F]
	ParseFilter func(r *http.Request) (F, error)
	ID          func(item *T) string
	View        func(item *T) any
	Sub         map[string]SubHandler
	Audit       audit.Logger
	Logger      *zap.Logger
}

// ServeHTTP routes by path and method.
func (h *Resource[T, C, U, F]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, h.Base), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 2 {
		sub, ok := h.Sub[parts[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sub(w, r, id)
		return
	}
	if len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPatch, http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Resource[T, C, U, F]) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := h.ParseFilter(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	items, err := h.Service.List(r.Context(), filter)
	h.observe("list", start, err)
	if err != nil {
		RespondError(w, h.Logger, err)
		return
	}
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, h.view(&items[i]))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Resource[T, C, U, F]) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	item, err := h.Service.Get(r.Context(), id)
	h.observe("get", start, err)
	if err != nil {
		RespondError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.view(item))
}

func (h *Resource[T, C, U, F]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input C
	if err := decodeBody(w, r, &input); err != nil {
		BadRequest(w, err.Error())
		return
	}
	start := time.Now()
	item, err := h.Service.Create(r.Context(), input)
	h.observe("create", start, err)
	if err != nil {
		RespondError(w, h.Logger, err)
		return
	}
	h.logAudit(r, "create", h.ID(item), input)
	WriteJSON(w, http.StatusCreated, h.view(item))
}

func (h *Resource[T, C, U, F]) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var patch U
	if err := decodeBody(w, r, &patch); err != nil {
		BadRequest(w, err.Error())
		return
	}
	start := time.Now()
	item, err := h.Service.Update(r.Context(), id, patch)
	h.observe("update", start, err)
	if err != nil {
		RespondError(w, h.Logger, err)
		return
	}
	h.logAudit(r, "update", id, patch)
	WriteJSON(w, http.StatusOK, h.view(item))
}

func (h *Resource[T, C, U, F]) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	err := h.Service.Delete(r.Context(), id)
	h.observe("delete", start, err)
	if err != nil {
		RespondError(w, h.Logger, err)
		return
	}
	h.logAudit(r, "delete", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Resource[T, C, U, F]) view(item *T) any {
	if h.View == nil {
		return item
	}
	return h.View(item)
}

func (h *Resource[T, C, U, F]) observe(op string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveCRUD(h.Module, op, result, time.Since(start))
}

func (h *Resource[T, C, U, F]) logAudit(r *http.Request, op, id string, meta any) {
	if h.Audit == nil {
		return
	}
	entry := audit.FromRequest(r, h.Kind+"."+op, h.Kind, id, h.Module, meta)
	if err := h.Audit.Log(r.Context(), entry); err != nil && h.Logger != nil {
		h.Logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid json: " + err.Error())
	}
	return nil
}
