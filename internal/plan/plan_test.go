// AngelaMos | 2026
// plan_test.go

package plan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "pgx"), mock
}

func TestGetUnknownPlan(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM plans").
		WithArgs("Gold").
		WillReturnRows(sqlmock.NewRows([]string{"plan_name", "max_screens", "monthly_price"}))

	_, err := NewRepository(db).Get(context.Background(), "Gold")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListPlansHandler(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("ORDER BY monthly_price").
		WillReturnRows(sqlmock.NewRows([]string{"plan_name", "max_screens", "monthly_price"}).
			AddRow("Basic", 1, 9.99).
			AddRow("Premium", 4, 22.99))

	r := chi.NewRouter()
	NewHandler(db).RegisterRoutes(r, middleware.NewGuard(nil, false))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Data    []Plan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Basic", body.Data[0].Name)
	assert.InDelta(t, 9.99, body.Data[0].MonthlyPrice, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}
