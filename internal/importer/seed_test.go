// AngelaMos | 2026
// seed_test.go

package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/schema"
	"github.com/carterperez-dev/streamflix/internal/user"
)

func newTestSeeder(t *testing.T, withCipher bool) (*Seeder, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	var cipher *core.CardCipher
	if withCipher {
		cipher, err = core.NewCardCipher([]byte("0123456789abcdef0123456789abcdef"))
		require.NoError(t, err)
	}

	db := &core.Database{DB: sqlx.NewDb(mockDB, "pgx")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSeeder(db, cipher, nil, logger), mock
}

type recordingCache struct {
	deleted []string
}

func (c *recordingCache) GetJSON(context.Context, string, any) bool { return false }
func (c *recordingCache) SetJSON(context.Context, string, any)      {}
func (c *recordingCache) Delete(_ context.Context, keys ...string) {
	c.deleted = append(c.deleted, keys...)
}

func smallDataset() *Dataset {
	signUp := core.NewDate(2024, 1, 10)
	return &Dataset{
		Users: []user.User{
			{Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", SignUpDate: signUp},
		},
		Trials:      []Trial{{Email: "alice@example.com", TrialEnd: core.NewDate(2024, 2, 1)}},
		Subscribers: []string{"alice@example.com"},
		Cards:       []Card{{Email: "alice@example.com", Number: "4111111111111234"}},
		Movies:      []movie.Movie{{ID: 10, Title: "Heat"}},
		Ratings: []rating.Rating{
			{MovieID: 10, RatingID: 1, UserEmail: "alice@example.com", Stars: 4.5, RatingDate: signUp},
		},
	}
}

func TestSeedInsertsParentsFirstInOneTransaction(t *testing.T) {
	seeder, mock := newTestSeeder(t, true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice@example.com", "Alice", nil, "Smith", nil, "2024-01-10").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscribers").
		WithArgs("alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_methods").
		WithArgs("alice@example.com", sqlmock.AnyArg(), "1234").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movies").
		WithArgs(10, "Heat", nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ratings").
		WithArgs(10, 1, "alice@example.com", 4.5, "2024-01-10").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := seeder.Seed(context.Background(), smallDataset())
	require.NoError(t, err)

	assert.Equal(t, int64(1), res[schema.Users])
	assert.Equal(t, int64(0), res[schema.FreeUsers])
	assert.Equal(t, int64(1), res[schema.PaymentMethods])
	assert.Equal(t, int64(0), res[schema.Ratings])
	assert.Equal(t, int64(4), res.Total())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnForeignKeyViolation(t *testing.T) {
	seeder, mock := newTestSeeder(t, true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscribers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_methods").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movies").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ratings").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	res, err := seeder.Seed(context.Background(), smallDataset())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.Contains(t, err.Error(), "seed ratings")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedNeedsCipherForCards(t *testing.T) {
	seeder, mock := newTestSeeder(t, false)

	_, err := seeder.Seed(context.Background(), smallDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card cipher not configured")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSubscriberReplacesStoredTrial(t *testing.T) {
	seeder, mock := newTestSeeder(t, false)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)DELETE FROM free_users WHERE email = \$1.*INSERT INTO subscribers`).
		WithArgs("x@y.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := seeder.Seed(context.Background(), &Dataset{Subscribers: []string{"x@y.com"}})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res[schema.Subscribers])
	assert.Zero(t, res[schema.FreeUsers])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedInvalidatesMovieListCache(t *testing.T) {
	seeder, mock := newTestSeeder(t, true)
	cache := &recordingCache{}
	seeder.cache = cache

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscribers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_methods").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movies").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ratings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := seeder.Seed(context.Background(), smallDataset())
	require.NoError(t, err)

	assert.Equal(t, []string{core.MovieListCacheKey}, cache.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedKeepsCacheWhenNothingChanged(t *testing.T) {
	seeder, mock := newTestSeeder(t, false)
	cache := &recordingCache{}
	seeder.cache = cache

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := seeder.Seed(context.Background(), &Dataset{Movies: []movie.Movie{{ID: 10, Title: "Heat"}}})
	require.NoError(t, err)

	assert.Empty(t, cache.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollbackLeavesCache(t *testing.T) {
	seeder, mock := newTestSeeder(t, false)
	cache := &recordingCache{}
	seeder.cache = cache

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movies").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := seeder.Seed(context.Background(), &Dataset{Movies: []movie.Movie{{ID: 10, Title: "Heat"}}})
	require.Error(t, err)
	assert.Empty(t, cache.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
