// AngelaMos | 2026
// entity.go

package rating

import (
	"math"

	"github.com/carterperez-dev/streamflix/internal/core"
)

const (
	MinStars = 0.0
	MaxStars = 5.0
)

type Rating struct {
	MovieID    int       `db:"movie_id"`
	RatingID   int       `db:"rating_id"`
	UserEmail  string    `db:"user_email"`
	Stars      float64   `db:"stars"`
	RatingDate core.Date `db:"rating_date"`
}

// NormalizeStars checks the [0,5] range and rounds to the one decimal the
// column stores.
func NormalizeStars(stars float64) (float64, error) {
	if math.IsNaN(stars) || stars < MinStars || stars > MaxStars {
		return 0, core.Invalidf("stars must be between %.0f and %.0f", MinStars, MaxStars)
	}
	return math.Round(stars*10) / 10, nil
}
