// AngelaMos | 2026
// handler.go

package rating

import (
	"net/http"

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
	r.Route("/ratings", func(r chi.Router) {
		r.With(guard.Read).Get("/", h.List)
		r.With(guard.Write).Post("/", h.Create)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ratings)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRatingRequest
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

	core.Created(w, "Rating added successfully", view)
}
