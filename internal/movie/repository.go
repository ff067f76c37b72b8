// AngelaMos | 2026
// repository.go

package movie

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type Repository interface {
	Create(ctx context.Context, m *Movie) error
	Get(ctx context.Context, id int) (*Movie, error)
	Exists(ctx context.Context, id int) (bool, error)
	Update(ctx context.Context, m *Movie) error
	NextID(ctx context.Context) (int, error)
	RatingSummary(ctx context.Context, id int) (float64, int, error)
	DeleteCascade(ctx context.Context, id int) (schema.Result, error)
	List(ctx context.Context) ([]View, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Movie) error {
	query := `
		INSERT INTO movies (movie_id, title, production_company, length_minutes, release_year, genre)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.ProductionCompany,
		m.LengthMinutes,
		m.ReleaseYear,
		m.Genre,
	)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create movie: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int) (*Movie, error) {
	query := `
		SELECT movie_id, title, production_company, length_minutes, release_year, genre
		FROM movies
		WHERE movie_id = $1`

	var m Movie
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get movie: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return &m, nil
}

func (r *repository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM movies WHERE movie_id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check movie: %w", err)
	}
	return exists, nil
}

func (r *repository) Update(ctx context.Context, m *Movie) error {
	query := `
		UPDATE movies
		SET title = $2, production_company = $3, length_minutes = $4,
		    release_year = $5, genre = $6
		WHERE movie_id = $1`

	result, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.ProductionCompany,
		m.LengthMinutes,
		m.ReleaseYear,
		m.Genre,
	)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update movie: %w", core.ErrNotFound)
	}
	return nil
}

// NextID must run under the movie id lock.
func (r *repository) NextID(ctx context.Context) (int, error) {
	var id int
	if err := r.db.GetContext(ctx, &id,
		`SELECT COALESCE(MAX(movie_id), 0) + 1 FROM movies`,
	); err != nil {
		return 0, fmt.Errorf("next movie id: %w", err)
	}
	return id, nil
}

func (r *repository) RatingSummary(ctx context.Context, id int) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(stars), 0) AS average_rating, COUNT(*) AS total_ratings
		FROM ratings
		WHERE movie_id = $1`

	var row struct {
		Average float64 `db:"average_rating"`
		Total   int     `db:"total_ratings"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return 0, 0, fmt.Errorf("rating summary: %w", err)
	}
	return row.Average, row.Total, nil
}

func (r *repository) DeleteCascade(ctx context.Context, id int) (schema.Result, error) {
	res, err := schema.Cascade(ctx, r.db, schema.DeleteMovie, id)
	if err != nil {
		return nil, fmt.Errorf("delete movie: %w", err)
	}
	return res, nil
}

func (r *repository) List(ctx context.Context) ([]View, error) {
	query := `
		SELECT m.movie_id, m.title, m.production_company, m.length_minutes,
		       m.release_year, m.genre,
		       COALESCE(ROUND(AVG(r.stars), 1), 0) AS average_rating,
		       COUNT(r.rating_id) AS total_ratings
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.movie_id
		GROUP BY m.movie_id, m.title, m.production_company, m.length_minutes,
		         m.release_year, m.genre
		ORDER BY m.title ASC, m.movie_id ASC`

	views := []View{}
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return views, nil
}
