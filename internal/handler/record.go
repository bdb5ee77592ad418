package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk-go/internal/middleware"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
	"github.com/clinicdesk/clinicdesk-go/internal/service"
)

// RecordHandler serves the CRUD routes of the clinic collections. Each
// method returns the handler for one kind.
type RecordHandler struct {
	service *service.RecordService
	logger  zerolog.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *service.RecordService, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{service: svc, logger: logger}
}

// HandleList handles GET /{resource}.
func (h *RecordHandler) HandleList(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.service.List(r.Context(), kind)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// HandleGet handles GET /{resource}/{id}.
func (h *RecordHandler) HandleGet(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		rec, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleCreate handles POST /{resource}.
func (h *RecordHandler) HandleCreate(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload resource.Record
		if !decodeBody(w, r, &payload) {
			return
		}
		rec, err := h.service.Create(r.Context(), kind, payload)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// HandlePatch handles PATCH /{resource}/{id}.
func (h *RecordHandler) HandlePatch(kind resource.Kind) http.HandlerFunc {
	return h.handleWrite(kind, h.service.Patch)
}

// HandlePut handles PUT /{resource}/{id}.
func (h *RecordHandler) HandlePut(kind resource.Kind) http.HandlerFunc {
	return h.handleWrite(kind, h.service.Replace)
}

func (h *RecordHandler) handleWrite(kind resource.Kind, write func(context.Context, resource.Kind, int64, resource.Record) (resource.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		var payload resource.Record
		if !decodeBody(w, r, &payload) {
			return
		}
		rec, err := write(r.Context(), kind, id, payload)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleDelete handles DELETE /{resource}/{id}.
func (h *RecordHandler) HandleDelete(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}
		if err := h.service.Delete(r.Context(), kind, id); err != nil {
			h.fail(w, r, kind, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *RecordHandler) fail(w http.ResponseWriter, r *http.Request, kind resource.Kind, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, issuesResponse(verr.Issues))
	case errors.Is(err, service.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse(kind.Singular+" not found"))
	default:
		h.logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("resource", kind.Name).
			Msg("record operation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid record id"))
		return 0, false
	}
	return id, true
}
