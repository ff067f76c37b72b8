// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"
	"net/url"

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
	r.Route("/users", func(r chi.Router) {
		r.With(guard.Read).Get("/", h.List)
		r.With(guard.Write).Post("/", h.Create)
		r.With(guard.Write).Put("/{email}", h.Update)
		r.With(guard.Write).Put("/{email}/role", h.ChangeRole)
		r.With(guard.Write).Delete("/{email}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, users)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
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

	core.Created(w, "User created successfully", view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	view, err := h.service.Update(r.Context(), emailParam(r), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "User updated successfully", view)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	view, err := h.service.ChangeRole(r.Context(), emailParam(r), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "User role updated successfully", view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Delete(r.Context(), emailParam(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "User deleted successfully", resp)
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
