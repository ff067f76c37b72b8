// AngelaMos | 2026
// plan.go

package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
)

type Plan struct {
	Name         string  `json:"planName"     db:"plan_name"`
	MaxScreens   int     `json:"maxScreens"   db:"max_screens"`
	MonthlyPrice float64 `json:"monthlyPrice" db:"monthly_price"`
}

type Repository interface {
	Get(ctx context.Context, name string) (*Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, name string) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `
		SELECT plan_name, max_screens, monthly_price
		FROM plans
		WHERE plan_name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, `
		SELECT plan_name, max_screens, monthly_price
		FROM plans
		ORDER BY monthly_price ASC, plan_name ASC`,
	); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

type Handler struct {
	repo Repository
}

func NewHandler(db core.DBTX) *Handler {
	return &Handler{repo: NewRepository(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.With(guard.Read).Get("/plans", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repo.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, plans)
}
