// AngelaMos | 2026
// dto.go

package movie

import (
	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

// CreateMovieRequest creates a movie. ID is assigned as max+1 when omitted.
type CreateMovieRequest struct {
	ID                *int    `json:"id"                validate:"omitempty,min=1"`
	Title             string  `json:"title"             validate:"required,min=1,max=255"`
	ProductionCompany *string `json:"productionCompany" validate:"omitempty,max=255"`
	LengthMinutes     *int    `json:"length"            validate:"omitempty,min=1,max=1440"`
	ReleaseYear       *int    `json:"releaseYear"       validate:"omitempty,min=1878,max=2100"`
	Genre             *string `json:"genre"             validate:"omitempty,max=100"`
}

type UpdateMovieRequest struct {
	Title             *string               `json:"title"             validate:"omitempty,min=1,max=255"`
	ProductionCompany core.Optional[string] `json:"productionCompany"`
	LengthMinutes     core.Optional[int]    `json:"length"`
	ReleaseYear       core.Optional[int]    `json:"releaseYear"`
	Genre             core.Optional[string] `json:"genre"`
}

// View is a movie with its rating aggregate.
type View struct {
	ID                int     `json:"id"                db:"movie_id"`
	Title             string  `json:"title"             db:"title"`
	ProductionCompany *string `json:"productionCompany" db:"production_company"`
	LengthMinutes     *int    `json:"length"            db:"length_minutes"`
	ReleaseYear       *int    `json:"releaseYear"       db:"release_year"`
	Genre             *string `json:"genre"             db:"genre"`
	AverageRating     float64 `json:"averageRating"     db:"average_rating"`
	TotalRatings      int     `json:"totalRatings"      db:"total_ratings"`
}

type DeleteResponse struct {
	ID                  int           `json:"id"`
	Title               string        `json:"title"`
	RatingsDeleted      int64         `json:"ratingsDeleted"`
	WatchRecordsDeleted int64         `json:"watchRecordsDeleted"`
	RowsDeleted         schema.Result `json:"rowsDeleted"`
}

func NewView(m *Movie, average float64, total int) View {
	return View{
		ID:                m.ID,
		Title:             m.Title,
		ProductionCompany: m.ProductionCompany,
		LengthMinutes:     m.LengthMinutes,
		ReleaseYear:       m.ReleaseYear,
		Genre:             m.Genre,
		AverageRating:     RoundRating(average),
		TotalRatings:      total,
	}
}
