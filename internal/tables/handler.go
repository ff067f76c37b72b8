// AngelaMos | 2026
// handler.go

package tables

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
)

type Handler struct {
	reader *Reader
}

func NewHandler(reader *Reader) *Handler {
	return &Handler{reader: reader}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.Route("/tables", func(r chi.Router) {
		r.Use(guard.Read)
		r.Get("/", h.Index)
		r.Get("/{table}", h.Dump)
	})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reader.Counts(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, counts)
}

func (h *Handler) Dump(w http.ResponseWriter, r *http.Request) {
	dump, err := h.reader.Dump(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, dump)
}
