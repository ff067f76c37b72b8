// AngelaMos | 2026
// service.go

package rating

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/streamflix/internal/core"
)

type Service struct {
	db     *core.Database
	cache  core.JSONCache
	logger *slog.Logger
	today  func() core.Date
}

// NewService wires rating creation. cache may be nil.
func NewService(db *core.Database, cache core.JSONCache, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger, today: core.Today}
}

// Create adds a rating dated today. Rating ids are assigned per movie while
// holding that movie's rating id lock.
func (s *Service) Create(ctx context.Context, req CreateRatingRequest) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "rating.create")
	defer func() { done(err) }()

	if req.Stars == nil {
		return nil, core.Invalidf("stars is required")
	}
	stars, err := NormalizeStars(*req.Stars)
	if err != nil {
		return nil, err
	}

	rt := &Rating{
		MovieID:    req.MovieID,
		UserEmail:  strings.ToLower(strings.TrimSpace(req.UserEmail)),
		Stars:      stars,
		RatingDate: s.today(),
	}

	var review *string
	if req.ReviewText != nil && strings.TrimSpace(*req.ReviewText) != "" {
		text := strings.TrimSpace(*req.ReviewText)
		review = &text
	}

	var title string
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		var (
			found bool
			err   error
		)
		title, found, err = repo.MovieTitle(ctx, rt.MovieID)
		if err != nil {
			return err
		}
		if !found {
			return core.NotFoundError("movie")
		}

		exists, err := repo.UserExists(ctx, rt.UserEmail)
		if err != nil {
			return err
		}
		if !exists {
			return core.NotFoundError("user")
		}

		if err := core.AcquireLock(ctx, tx, core.LockRatingID, int64(rt.MovieID)); err != nil {
			return err
		}

		rt.RatingID, err = repo.NextID(ctx, rt.MovieID)
		if err != nil {
			return err
		}

		if err := repo.Create(ctx, rt); err != nil {
			return err
		}

		if review != nil {
			return repo.AddReview(ctx, rt.MovieID, rt.RatingID, *review)
		}
		return nil
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.ConflictError("rating id already taken, retry the request")
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, core.MovieListCacheKey)
	}

	s.logger.Info("rating created",
		"movie_id", rt.MovieID,
		"rating_id", rt.RatingID,
		"user_email", rt.UserEmail,
	)

	return &View{
		MovieID:    rt.MovieID,
		RatingID:   rt.RatingID,
		MovieTitle: title,
		UserEmail:  rt.UserEmail,
		Stars:      rt.Stars,
		RatingDate: rt.RatingDate,
		ReviewText: review,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	return NewRepository(s.db.DB).List(ctx)
}
