// AngelaMos | 2026
// repository.go

package rating

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/streamflix/internal/core"
)

type Repository interface {
	MovieTitle(ctx context.Context, movieID int) (string, bool, error)
	UserExists(ctx context.Context, email string) (bool, error)
	NextID(ctx context.Context, movieID int) (int, error)
	Create(ctx context.Context, r *Rating) error
	AddReview(ctx context.Context, movieID, ratingID int, text string) error
	List(ctx context.Context) ([]View, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) MovieTitle(ctx context.Context, movieID int) (string, bool, error) {
	var titles []string
	if err := r.db.SelectContext(ctx, &titles,
		`SELECT title FROM movies WHERE movie_id = $1`, movieID,
	); err != nil {
		return "", false, fmt.Errorf("lookup movie: %w", err)
	}
	if len(titles) == 0 {
		return "", false, nil
	}
	return titles[0], true, nil
}

func (r *repository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	); err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return exists, nil
}

// NextID must run under the rating id lock of the movie.
func (r *repository) NextID(ctx context.Context, movieID int) (int, error) {
	var id int
	if err := r.db.GetContext(ctx, &id,
		`SELECT COALESCE(MAX(rating_id), 0) + 1 FROM ratings WHERE movie_id = $1`,
		movieID,
	); err != nil {
		return 0, fmt.Errorf("next rating id: %w", err)
	}
	return id, nil
}

func (r *repository) Create(ctx context.Context, rt *Rating) error {
	query := `
		INSERT INTO ratings (movie_id, rating_id, user_email, stars, rating_date)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query,
		rt.MovieID,
		rt.RatingID,
		rt.UserEmail,
		rt.Stars,
		rt.RatingDate,
	); err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create rating: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}

func (r *repository) AddReview(ctx context.Context, movieID, ratingID int, text string) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO review_texts (movie_id, rating_id, review_text)
		VALUES ($1, $2, $3)`,
		movieID, ratingID, text,
	); err != nil {
		return fmt.Errorf("add review text: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]View, error) {
	query := `
		SELECT r.movie_id, r.rating_id, m.title, r.user_email, r.stars,
		       r.rating_date, t.review_text
		FROM ratings r
		JOIN movies m ON m.movie_id = r.movie_id
		LEFT JOIN review_texts t
		       ON t.movie_id = r.movie_id AND t.rating_id = r.rating_id
		ORDER BY r.rating_date DESC, r.movie_id ASC, r.rating_id ASC`

	views := []View{}
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return views, nil
}
