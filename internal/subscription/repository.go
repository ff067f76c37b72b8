// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/streamflix/internal/core"
)

type Repository interface {
	NextID(ctx context.Context) (int, error)
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id int) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	EnsureSubscriber(ctx context.Context, email string) error
	LinkOwner(ctx context.Context, email string, id int) error
	LinkPlan(ctx context.Context, id int, plan string) error
	SetPlan(ctx context.Context, id int, plan string) error
	AddBillingAddress(ctx context.Context, email string, a BillingAddress) error
	AddPaymentMethod(ctx context.Context, email string, ciphertext []byte, last4 string) error
	List(ctx context.Context) ([]View, error)
	FirstAddresses(ctx context.Context) (map[string]BillingAddress, error)
	FirstCards(ctx context.Context) (map[string]string, error)
	SweepStatuses(ctx context.Context, today core.Date) (map[Status]int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// NextID must run under the subscription id lock.
func (r *repository) NextID(ctx context.Context) (int, error) {
	var id int
	if err := r.db.GetContext(ctx, &id,
		`SELECT COALESCE(MAX(sub_id), 0) + 1 FROM subscriptions`,
	); err != nil {
		return 0, fmt.Errorf("next subscription id: %w", err)
	}
	return id, nil
}

func (r *repository) Create(ctx context.Context, s *Subscription) error {
	query := `
		INSERT INTO subscriptions (sub_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.StartDate,
		s.EndDate,
		string(s.Status),
	); err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create subscription: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int) (*Subscription, error) {
	var s Subscription
	err := r.db.GetContext(ctx, &s, `
		SELECT sub_id, start_date, end_date, status
		FROM subscriptions
		WHERE sub_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}

func (r *repository) Update(ctx context.Context, s *Subscription) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET start_date = $2, end_date = $3, status = $4
		WHERE sub_id = $1`,
		s.ID, s.StartDate, s.EndDate, string(s.Status),
	); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// EnsureSubscriber promotes the user to subscriber and drops any free-user
// row so the two specializations stay exclusive.
func (r *repository) EnsureSubscriber(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (email) VALUES ($1)
		ON CONFLICT DO NOTHING`, email,
	); err != nil {
		return fmt.Errorf("ensure subscriber: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM free_users WHERE email = $1`, email,
	); err != nil {
		return fmt.Errorf("ensure subscriber: %w", err)
	}
	return nil
}

func (r *repository) LinkOwner(ctx context.Context, email string, id int) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_owners (email, sub_id) VALUES ($1, $2)`,
		email, id,
	); err != nil {
		return fmt.Errorf("link owner: %w", err)
	}
	return nil
}

func (r *repository) LinkPlan(ctx context.Context, id int, plan string) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_plans (sub_id, plan_name) VALUES ($1, $2)`,
		id, plan,
	); err != nil {
		return fmt.Errorf("link plan: %w", err)
	}
	return nil
}

func (r *repository) SetPlan(ctx context.Context, id int, plan string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE subscription_plans SET plan_name = $2 WHERE sub_id = $1`,
		id, plan,
	); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (r *repository) AddBillingAddress(ctx context.Context, email string, a BillingAddress) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO billing_addresses (email, street, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5)`,
		email, a.Street, a.City, a.State, a.ZipCode,
	); err != nil {
		return fmt.Errorf("add billing address: %w", err)
	}
	return nil
}

func (r *repository) AddPaymentMethod(
	ctx context.Context,
	email string,
	ciphertext []byte,
	last4 string,
) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_methods (email, card_ciphertext, card_last4)
		VALUES ($1, $2, $3)`,
		email, ciphertext, last4,
	); err != nil {
		return fmt.Errorf("add payment method: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]View, error) {
	query := `
		SELECT s.sub_id, o.email, sp.plan_name, s.status, s.start_date, s.end_date,
		       p.monthly_price, p.max_screens,
		       TRIM(u.first_name || ' ' || u.last_name) AS owner_name
		FROM subscriptions s
		JOIN subscription_owners o ON o.sub_id = s.sub_id
		JOIN subscription_plans sp ON sp.sub_id = s.sub_id
		JOIN plans p ON p.plan_name = sp.plan_name
		JOIN users u ON u.email = o.email
		ORDER BY s.start_date DESC, s.sub_id DESC`

	views := []View{}
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return views, nil
}

// FirstAddresses returns the earliest billing address per subscriber.
func (r *repository) FirstAddresses(ctx context.Context) (map[string]BillingAddress, error) {
	var rows []struct {
		Email string `db:"email"`
		BillingAddress
	}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT ON (email) email, street, city, state, zip_code
		FROM billing_addresses
		ORDER BY email, id`,
	); err != nil {
		return nil, fmt.Errorf("list billing addresses: %w", err)
	}

	out := make(map[string]BillingAddress, len(rows))
	for _, row := range rows {
		out[row.Email] = row.BillingAddress
	}
	return out, nil
}

// FirstCards returns the last four digits of the earliest card per
// subscriber. Ciphertext never leaves the database on this path.
func (r *repository) FirstCards(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Email string `db:"email"`
		Last4 string `db:"card_last4"`
	}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT ON (email) email, card_last4
		FROM payment_methods
		ORDER BY email, id`,
	); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Email] = row.Last4
	}
	return out, nil
}

// SweepStatuses activates pending subscriptions that have started and
// expires active ones past their end date.
func (r *repository) SweepStatuses(ctx context.Context, today core.Date) (map[Status]int64, error) {
	out := make(map[Status]int64, 2)

	activated, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = 'active'
		WHERE status = 'pending' AND start_date <= $1 AND end_date >= $1`, today)
	if err != nil {
		return nil, fmt.Errorf("activate subscriptions: %w", err)
	}
	if out[StatusActive], err = activated.RowsAffected(); err != nil {
		return nil, fmt.Errorf("activate subscriptions: %w", err)
	}

	expired, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = 'inactive'
		WHERE status IN ('active', 'pending') AND end_date < $1`, today)
	if err != nil {
		return nil, fmt.Errorf("expire subscriptions: %w", err)
	}
	if out[StatusInactive], err = expired.RowsAffected(); err != nil {
		return nil, fmt.Errorf("expire subscriptions: %w", err)
	}

	return out, nil
}
