// AngelaMos | 2026
// dto.go

package rating

import "github.com/carterperez-dev/streamflix/internal/core"

type CreateRatingRequest struct {
	MovieID    int      `json:"movieId"    validate:"required,min=1"`
	UserEmail  string   `json:"userEmail"  validate:"required,email,max=255"`
	Stars      *float64 `json:"stars"      validate:"required"`
	ReviewText *string  `json:"reviewText" validate:"omitempty,max=5000"`
}

type View struct {
	MovieID    int       `json:"movieId"    db:"movie_id"`
	RatingID   int       `json:"ratingId"   db:"rating_id"`
	MovieTitle string    `json:"movieTitle" db:"title"`
	UserEmail  string    `json:"userEmail"  db:"user_email"`
	Stars      float64   `json:"stars"      db:"stars"`
	RatingDate core.Date `json:"ratingDate" db:"rating_date"`
	ReviewText *string   `json:"reviewText" db:"review_text"`
}
