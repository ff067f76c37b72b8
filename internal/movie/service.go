// AngelaMos | 2026
// service.go

package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/metrics"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type Service struct {
	db     *core.Database
	cache  core.JSONCache
	logger *slog.Logger
}

// NewService wires the movie lifecycle. cache may be nil.
func NewService(db *core.Database, cache core.JSONCache, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateMovieRequest) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "movie.create")
	defer func() { done(err) }()

	m := &Movie{
		Title:             strings.TrimSpace(req.Title),
		ProductionCompany: trimmedOrNil(req.ProductionCompany),
		LengthMinutes:     req.LengthMinutes,
		ReleaseYear:       req.ReleaseYear,
		Genre:             trimmedOrNil(req.Genre),
	}
	if m.Title == "" {
		return nil, core.Invalidf("title is required")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		if req.ID != nil {
			m.ID = *req.ID
		} else {
			if err := core.AcquireLock(ctx, tx, core.LockMovieID, 0); err != nil {
				return err
			}
			id, err := repo.NextID(ctx)
			if err != nil {
				return err
			}
			m.ID = id
		}

		return repo.Create(ctx, m)
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.ConflictError(fmt.Sprintf("movie %d already exists", m.ID))
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("movie created", "movie_id", m.ID, "title", m.Title)

	v := NewView(m, 0, 0)
	return &v, nil
}

func (s *Service) Update(
	ctx context.Context,
	id int,
	req UpdateMovieRequest,
) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "movie.update")
	defer func() { done(err) }()

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		m, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if err := applyUpdate(m, req); err != nil {
			return err
		}

		if err := repo.Update(ctx, m); err != nil {
			return err
		}

		avg, total, err := repo.RatingSummary(ctx, id)
		if err != nil {
			return err
		}

		v := NewView(m, avg, total)
		view = &v
		return nil
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("movie")
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("movie updated", "movie_id", id)
	return view, nil
}

func applyUpdate(m *Movie, req UpdateMovieRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return core.Invalidf("title cannot be empty")
		}
		m.Title = title
	}
	if req.ProductionCompany.Set {
		m.ProductionCompany = trimmedOrNil(req.ProductionCompany.Value)
	}
	if req.LengthMinutes.Set {
		if v := req.LengthMinutes.Value; v != nil && *v <= 0 {
			return core.Invalidf("length must be positive")
		}
		m.LengthMinutes = req.LengthMinutes.Value
	}
	if req.ReleaseYear.Set {
		m.ReleaseYear = req.ReleaseYear.Value
	}
	if req.Genre.Set {
		m.Genre = trimmedOrNil(req.Genre.Value)
	}
	return nil
}

// Delete removes a movie with its ratings, review texts and watch records.
// Unlike user deletion, an unknown id is reported as not found.
func (s *Service) Delete(ctx context.Context, id int) (resp *DeleteResponse, err error) {
	ctx, done := core.TrackOperation(ctx, "movie.delete")
	defer func() { done(err) }()

	var (
		m   *Movie
		res schema.Result
	)
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		var err error
		m, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}

		res, err = repo.DeleteCascade(ctx, id)
		return err
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("movie")
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordCascade(res)
	s.invalidate(ctx)
	s.logger.Info("movie deleted",
		"movie_id", id,
		"ratings_deleted", res[schema.Ratings],
		"watch_records_deleted", res[schema.WatchRecords],
	)

	return &DeleteResponse{
		ID:                  id,
		Title:               m.Title,
		RatingsDeleted:      res[schema.Ratings],
		WatchRecordsDeleted: res[schema.WatchRecords],
		RowsDeleted:         res,
	}, nil
}

// List serves the movie list from cache when possible.
func (s *Service) List(ctx context.Context) ([]View, error) {
	if s.cache != nil {
		var cached []View
		if s.cache.GetJSON(ctx, core.MovieListCacheKey, &cached) {
			return cached, nil
		}
	}

	views, err := NewRepository(s.db.DB).List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, core.MovieListCacheKey, views)
	}
	return views, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, core.MovieListCacheKey)
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
