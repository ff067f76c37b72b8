// AngelaMos | 2026
// watch.go

package watch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
)

type Record struct {
	Email   string `json:"email"   db:"email"`
	MovieID int    `json:"movieId" db:"movie_id"`
}

type RecordRequest struct {
	Email   string `json:"email"   validate:"required,email,max=255"`
	MovieID int    `json:"movieId" validate:"required,min=1"`
}

type RecordResponse struct {
	Record
	Created bool `json:"created"`
}

type Service struct {
	db     *core.Database
	logger *slog.Logger
}

func NewService(db *core.Database, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Record stores that a user watched a movie. Recording the same pair twice
// is not an error.
func (s *Service) Record(ctx context.Context, req RecordRequest) (resp *RecordResponse, err error) {
	ctx, done := core.TrackOperation(ctx, "watch.record")
	defer func() { done(err) }()

	rec := Record{
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		MovieID: req.MovieID,
	}

	var created bool
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var refs struct {
			User  bool `db:"user_exists"`
			Movie bool `db:"movie_exists"`
		}
		if err := tx.GetContext(ctx, &refs, `
			SELECT EXISTS (SELECT 1 FROM users WHERE email = $1) AS user_exists,
			       EXISTS (SELECT 1 FROM movies WHERE movie_id = $2) AS movie_exists`,
			rec.Email, rec.MovieID,
		); err != nil {
			return fmt.Errorf("check watch references: %w", err)
		}
		if !refs.User {
			return core.NotFoundError("user")
		}
		if !refs.Movie {
			return core.NotFoundError("movie")
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO watch_records (email, movie_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			rec.Email, rec.MovieID,
		)
		if err != nil {
			return fmt.Errorf("record watch: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("record watch: %w", err)
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("watch recorded",
		"email", rec.Email,
		"movie_id", rec.MovieID,
		"created", created,
	)
	return &RecordResponse{Record: rec, Created: created}, nil
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	records := []Record{}
	if err := s.db.DB.SelectContext(ctx, &records, `
		SELECT email, movie_id FROM watch_records
		ORDER BY email ASC, movie_id ASC`,
	); err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	return records, nil
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: core.NewValidator()}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.Route("/watches", func(r chi.Router) {
		r.With(guard.Read).Get("/", h.List)
		r.With(guard.Write).Post("/", h.Record)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, records)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Record(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if !resp.Created {
		core.Message(w, "Watch already recorded", resp)
		return
	}
	core.Created(w, "Watch recorded successfully", resp)
}
