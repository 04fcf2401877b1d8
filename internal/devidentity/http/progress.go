package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// ProgressResponse is a stored progress document.
type ProgressResponse struct {
	Course    string          `json:"course" example:"javascript-basics"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProgressHandler struct {
	ProgressService *service.ProgressService
}

// HandleGet handles GET /v1/progress/{course}
//
//	@Summary		Read course progress
//	@Tags			Progress
//	@Security		BearerAuth
//	@Produce		json
//	@Param			course	path		string					true	"Course slug"
//	@Success		200		{object}	ProgressResponse		"Progress document"
//	@Failure		401		{object}	identity.ErrorResponse	"Invalid or missing access token"
//	@Failure		404		{object}	identity.ErrorResponse	"No progress recorded"
//	@Router			/v1/progress/{course} [get].
func (h *ProgressHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeInvalidToken(w)
		return
	}

	course := r.PathValue("course")
	p, err := h.ProgressService.Get(ctx, userID, course)
	if err != nil {
		if errors.Is(err, service.ErrProgressMissing) {
			httpx.WriteError(w, http.StatusNotFound, identity.ErrorCodeNotFound, err.Error())
			return
		}
		slogx.FromContext(ctx).Error("failed to load progress", "course", course, "err", err)
		writeServerError(w)
		return
	}

	w.Header().Set("Last-Modified", p.UpdatedAt.UTC().Format(http.TimeFormat))
	httpx.WriteJSON(w, http.StatusOK, ProgressResponse{
		Course:    p.Course,
		Data:      p.Data,
		UpdatedAt: p.UpdatedAt,
	})
}

// HandlePut handles PUT /v1/progress/{course}
//
//	@Summary		Store course progress
//	@Description	Replaces the progress document for the course. The body can be any JSON value.
//	@Tags			Progress
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			course	path		string					true	"Course slug"
//	@Param			request	body		object					true	"Progress document"
//	@Success		200		{object}	ProgressResponse		"Stored document"
//	@Failure		400		{object}	identity.ErrorResponse	"Body is not JSON"
//	@Failure		401		{object}	identity.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/progress/{course} [put].
func (h *ProgressHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeInvalidToken(w)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeInvalidRequest(w, "request body too large")
		return
	}

	course := r.PathValue("course")
	p, err := h.ProgressService.Put(ctx, userID, course, body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProgress) {
			writeInvalidRequest(w, err.Error())
			return
		}
		slogx.FromContext(ctx).Error("failed to store progress", "course", course, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ProgressResponse{
		Course:    p.Course,
		Data:      p.Data,
		UpdatedAt: p.UpdatedAt,
	})
}
