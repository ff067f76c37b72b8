// AngelaMos | 2026
// tables_test.go

package tables

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

func newReader(t *testing.T) (*Reader, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewReader(sqlx.NewDb(mockDB, "pgx")), mock
}

func TestResolveLegacyAliases(t *testing.T) {
	tests := map[string]string{
		"users":         schema.Users,
		"user2":         schema.UserPhones,
		"subscriber2":   schema.PaymentMethods,
		"subscriber3":   schema.BillingAddresses,
		"has":           schema.SubscriptionOwners,
		"to":            schema.SubscriptionPlans,
		"rating2":       schema.ReviewTexts,
		"watches":       schema.WatchRecords,
		"Free_Users":    schema.FreeUsers,
		"subscriptions": schema.Subscriptions,
	}
	for in, want := range tests {
		got, ok := Resolve(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := Resolve("pg_shadow")
	assert.False(t, ok)
}

func TestEveryTableHasADump(t *testing.T) {
	for _, name := range Names() {
		_, ok := layouts[name]
		assert.True(t, ok, name)
	}
	assert.Len(t, Names(), 14)
}

func TestPaymentDumpNeverSelectsCiphertext(t *testing.T) {
	lay := layouts[schema.PaymentMethods]
	assert.NotContains(t, lay.query, "card_ciphertext")
	assert.Contains(t, lay.query, core.CardMaskPrefix)
}

func TestDumpNormalizesValues(t *testing.T) {
	reader, mock := newReader(t)

	mock.ExpectQuery(regexp.QuoteMeta(layouts[schema.FreeUsers].query)).
		WillReturnRows(sqlmock.NewRows([]string{"email", "trial_end_date"}).
			AddRow([]byte("a@x.com"), time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))

	dump, err := reader.Dump(context.Background(), "free_user")
	require.NoError(t, err)

	assert.Equal(t, schema.FreeUsers, dump.Table)
	require.Len(t, dump.Rows, 1)
	assert.Equal(t, "a@x.com", dump.Rows[0]["email"])
	assert.Equal(t, "2024-07-01", dump.Rows[0]["trial_end_date"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDumpUnknownTable(t *testing.T) {
	reader, _ := newReader(t)

	r := chi.NewRouter()
	NewHandler(reader).RegisterRoutes(r, middleware.NewGuard(nil, false))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tables/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounts(t *testing.T) {
	reader, mock := newReader(t)

	rows := sqlmock.NewRows([]string{"table_name", "row_count"})
	for _, name := range Names() {
		rows.AddRow(name, 2)
	}
	mock.ExpectQuery("UNION ALL").WillReturnRows(rows)

	counts, err := reader.Counts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, 14)
	assert.Equal(t, int64(2), counts[schema.Movies])
	require.NoError(t, mock.ExpectationsWereMet())
}
