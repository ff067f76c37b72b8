// AngelaMos | 2026
// entity.go

package movie

import "math"

type Movie struct {
	ID                int     `db:"movie_id"`
	Title             string  `db:"title"`
	ProductionCompany *string `db:"production_company"`
	LengthMinutes     *int    `db:"length_minutes"`
	ReleaseYear       *int    `db:"release_year"`
	Genre             *string `db:"genre"`
}

// RoundRating rounds an average star value to one decimal.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// AverageRating matches ROUND(AVG(stars), 1): stars are summed as whole
// tenths and the mean is rounded half away from zero. It is 0 for a movie
// without ratings.
func AverageRating(stars []float64) float64 {
	if len(stars) == 0 {
		return 0
	}
	var tenths int64
	for _, s := range stars {
		tenths += int64(math.Round(s * 10))
	}
	n := int64(len(stars))
	mean := (2*tenths + n) / (2 * n)
	if tenths < 0 {
		mean = -((-2*tenths + n) / (2 * n))
	}
	return float64(mean) / 10
}
