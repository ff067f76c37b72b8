// AngelaMos | 2026
// service_test.go

package subscription

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/core"
)

var fixedToday = core.NewDate(2024, time.June, 1)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	cipher, err := core.NewCardCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	db := &core.Database{DB: sqlx.NewDb(mockDB, "pgx"), WriteTimeout: 5 * time.Second}
	svc := NewService(db, cipher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.today = func() core.Date { return fixedToday }

	return svc, mock
}

type captureBytes struct {
	got []byte
}

func (c *captureBytes) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if ok {
		c.got = append([]byte(nil), b...)
	}
	return ok
}

func datePtr(d core.Date) *core.Date { return &d }

func expectLookups(mock sqlmock.Sqlmock, email, planName string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)")).
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM plans").
		WithArgs(planName).
		WillReturnRows(sqlmock.NewRows([]string{"plan_name", "max_screens", "monthly_price"}).
			AddRow(planName, 1, 9.99))
}

func expectIDAssignment(mock sqlmock.Sqlmock, next int) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(core.LockKey(core.LockSubscriptionID, 0)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sub_id), 0) + 1 FROM subscriptions")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(next))
}

func TestCreateSubscriptionFullFlow(t *testing.T) {
	svc, mock := newTestService(t)
	start := core.NewDate(2024, time.January, 15)
	sealed := &captureBytes{}

	mock.ExpectBegin()
	expectLookups(mock, "a@x.com", "Basic")
	expectIDAssignment(mock, 3)
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(3, start, core.NewDate(2025, time.January, 15), "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscribers").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM free_users").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscription_owners").
		WithArgs("a@x.com", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscription_plans").
		WithArgs(3, "Basic").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO billing_addresses").
		WithArgs("a@x.com", "1 Main St", "Springfield", "IL", "62701").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO payment_methods").
		WithArgs("a@x.com", sealed, "1234").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	resp, err := svc.Create(context.Background(), CreateSubscriptionRequest{
		UserEmail: "A@x.com",
		PlanName:  "Basic",
		StartDate: &start,
		BillingAddress: &BillingAddress{
			Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
		PaymentMethod: &PaymentMethodInput{CardNumber: "4111-1111-1111-1234"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.SubID)
	assert.Equal(t, "2025-01-15", resp.EndDate.String())
	assert.Equal(t, StatusActive, resp.Status)

	require.NotEmpty(t, sealed.got)
	assert.NotContains(t, string(sealed.got), "4111111111111234")
	plain, err := svc.cipher.Open(sealed.got)
	require.NoError(t, err)
	assert.Equal(t, "4111111111111234", plain)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscriptionFutureStartIsPending(t *testing.T) {
	svc, mock := newTestService(t)
	start := core.NewDate(2024, time.December, 1)

	mock.ExpectBegin()
	expectLookups(mock, "b@x.com", "Premium")
	expectIDAssignment(mock, 1)
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(1, start, core.NewDate(2025, time.December, 1), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscribers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM free_users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO subscription_owners").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscription_plans").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.Create(context.Background(), CreateSubscriptionRequest{
		UserEmail: "b@x.com",
		PlanName:  "Premium",
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscriptionUnknownPlan(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM plans").
		WillReturnRows(sqlmock.NewRows([]string{"plan_name", "max_screens", "monthly_price"}))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateSubscriptionRequest{
		UserEmail: "a@x.com",
		PlanName:  "Gold",
		StartDate: datePtr(fixedToday),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscriptionUnknownUser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateSubscriptionRequest{
		UserEmail: "ghost@x.com",
		PlanName:  "Basic",
		StartDate: datePtr(fixedToday),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscriptionRejectsBadCardBeforeWriting(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.Create(context.Background(), CreateSubscriptionRequest{
		UserEmail:     "a@x.com",
		PlanName:      "Basic",
		StartDate:     datePtr(fixedToday),
		PaymentMethod: &PaymentMethodInput{CardNumber: "12ab"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscriptionRollsBackAtEveryStep(t *testing.T) {
	steps := []string{
		"INSERT INTO subscriptions",
		"INSERT INTO subscribers",
		"DELETE FROM free_users",
		"INSERT INTO subscription_owners",
		"INSERT INTO subscription_plans",
		"INSERT INTO billing_addresses",
	}

	for failAt := range steps {
		t.Run(steps[failAt], func(t *testing.T) {
			svc, mock := newTestService(t)

			mock.ExpectBegin()
			expectLookups(mock, "a@x.com", "Basic")
			expectIDAssignment(mock, 1)
			for i, step := range steps[:failAt+1] {
				exp := mock.ExpectExec(step)
				if i == failAt {
					exp.WillReturnError(errors.New("injected failure"))
					continue
				}
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}
			mock.ExpectRollback()

			_, err := svc.Create(context.Background(), CreateSubscriptionRequest{
				UserEmail: "a@x.com",
				PlanName:  "Basic",
				StartDate: datePtr(fixedToday),
				BillingAddress: &BillingAddress{
					Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
				},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrTransaction)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateStartDateRecomputesEndDate(t *testing.T) {
	svc, mock := newTestService(t)
	newStart := core.NewDate(2024, time.February, 29)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM subscriptions").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"sub_id", "start_date", "end_date", "status"}).
			AddRow(7, "2024-01-01", "2025-01-01", "active"))
	mock.ExpectExec("UPDATE subscriptions").
		WithArgs(7, newStart, core.NewDate(2025, time.February, 28), "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sub, err := svc.Update(context.Background(), 7, UpdateSubscriptionRequest{StartDate: &newStart})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", sub.EndDate.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownSubscription(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"sub_id", "start_date", "end_date", "status"}))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 99, UpdateSubscriptionRequest{})
	require.Error(t, err)
	assert.Equal(t, "subscription not found", core.FromError(err).Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDecoratesWithPlaceholdersAndMasks(t *testing.T) {
	svc, mock := newTestService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("FROM subscriptions s").
		WillReturnRows(sqlmock.NewRows([]string{
			"sub_id", "email", "plan_name", "status", "start_date", "end_date",
			"monthly_price", "max_screens", "owner_name",
		}).
			AddRow(2, "b@x.com", "Premium", "active", "2024-03-01", "2025-03-01", 22.99, 4, "Bob Jones").
			AddRow(1, "a@x.com", "Basic", "active", "2024-01-15", "2025-01-15", 9.99, 1, "Ann Lee"))
	mock.ExpectQuery("FROM billing_addresses").
		WillReturnRows(sqlmock.NewRows([]string{"email", "street", "city", "state", "zip_code"}).
			AddRow("a@x.com", "1 Main St", "Springfield", "IL", "62701"))
	mock.ExpectQuery("FROM payment_methods").
		WillReturnRows(sqlmock.NewRows([]string{"email", "card_last4"}).
			AddRow("a@x.com", "1234"))

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	bob := views[0]
	assert.Equal(t, PlaceholderAddress(), bob.BillingAddress)
	assert.Equal(t, core.PlaceholderCard, bob.PaymentMethod.CardNumber)
	assert.Equal(t, NotAvailable, bob.PaymentMethod.CardHolder)

	ann := views[1]
	assert.Equal(t, "Springfield", ann.BillingAddress.City)
	assert.Equal(t, "****-****-****-1234", ann.PaymentMethod.CardNumber)
	assert.Equal(t, "Ann Lee", ann.PaymentMethod.CardHolder)
	assert.InDelta(t, 9.99, ann.MonthlyPrice, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepStatuses(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET status = 'active'").
		WithArgs(fixedToday).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("SET status = 'inactive'").
		WithArgs(fixedToday).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := svc.SweepStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed[StatusActive])
	assert.Equal(t, int64(1), changed[StatusInactive])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEndDateAndInitialStatus(t *testing.T) {
	assert.Equal(t, "2025-01-15", EndDateFor(core.NewDate(2024, time.January, 15)).String())
	assert.Equal(t, "2025-02-28", EndDateFor(core.NewDate(2024, time.February, 29)).String())

	today := core.NewDate(2024, time.June, 1)
	assert.Equal(t, StatusActive, InitialStatus(today, today))
	assert.Equal(t, StatusPending, InitialStatus(today.AddDays(1), today))
}

func TestMaskedPayment(t *testing.T) {
	p := MaskedPayment("9876", "")
	assert.Equal(t, "****-****-****-9876", p.CardNumber)
	assert.Equal(t, NotAvailable, p.CardHolder)
	assert.Equal(t, CardType, p.Type)
}
