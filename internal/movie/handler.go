// AngelaMos | 2026
// handler.go

package movie

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.Route("/movies", func(r chi.Router) {
		r.With(guard.Read).Get("/", h.List)
		r.With(guard.Write).Post("/", h.Create)
		r.With(guard.Write).Put("/{id}", h.Update)
		r.With(guard.Write).Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, movies)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMovieRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	view, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, "Movie created successfully", view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateMovieRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	view, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "Movie updated successfully", view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Delete(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "Movie deleted successfully", resp)
}

func idParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, core.Invalidf("movie id %q must be a positive integer", raw)
	}
	return id, nil
}
