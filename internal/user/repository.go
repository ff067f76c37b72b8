// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	AddPhone(ctx context.Context, email, phone string) error
	ReplacePhones(ctx context.Context, email string, phones []string) error
	PhonesFor(ctx context.Context, email string) ([]string, error)
	GetRole(ctx context.Context, email string) (Role, error)
	AddRole(ctx context.Context, email string, role Role) error
	RemoveRole(ctx context.Context, email string, kind RoleKind) (schema.Result, error)
	DeleteCascade(ctx context.Context, email string) (schema.Result, error)
	List(ctx context.Context) ([]View, error)
	ListPhones(ctx context.Context) (map[string][]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, first_name, middle_name, last_name, birth_date, sign_up_date)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		u.Email,
		u.FirstName,
		u.MiddleName,
		u.LastName,
		u.BirthDate,
		u.SignUpDate,
	)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT email, first_name, middle_name, last_name, birth_date, sign_up_date
		FROM users
		WHERE email = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

func (r *repository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET first_name = $2, middle_name = $3, last_name = $4, birth_date = $5
		WHERE email = $1`

	result, err := r.db.ExecContext(ctx, query,
		u.Email,
		u.FirstName,
		u.MiddleName,
		u.LastName,
		u.BirthDate,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) AddPhone(ctx context.Context, email, phone string) error {
	query := `
		INSERT INTO user_phones (email, phone_number)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, email, phone); err != nil {
		return fmt.Errorf("add phone: %w", err)
	}
	return nil
}

func (r *repository) ReplacePhones(
	ctx context.Context,
	email string,
	phones []string,
) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM user_phones WHERE email = $1`, email,
	); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}

	for _, p := range phones {
		if err := r.AddPhone(ctx, email, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) PhonesFor(ctx context.Context, email string) ([]string, error) {
	query := `
		SELECT phone_number FROM user_phones
		WHERE email = $1
		ORDER BY phone_number`

	phones := []string{}
	if err := r.db.SelectContext(ctx, &phones, query, email); err != nil {
		return nil, fmt.Errorf("list phones for user: %w", err)
	}
	return phones, nil
}

func (r *repository) GetRole(ctx context.Context, email string) (Role, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM subscribers WHERE email = $1) AS is_subscriber,
		       (SELECT trial_end_date FROM free_users WHERE email = $1) AS trial_end_date`

	var row struct {
		IsSubscriber bool       `db:"is_subscriber"`
		TrialEndDate *core.Date `db:"trial_end_date"`
	}
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		return Role{}, fmt.Errorf("get role: %w", err)
	}

	return ResolveRole(row.IsSubscriber, row.TrialEndDate), nil
}

func (r *repository) AddRole(ctx context.Context, email string, role Role) error {
	switch role.Kind {
	case RoleSubscriber:
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO subscribers (email) VALUES ($1)
			ON CONFLICT DO NOTHING`, email,
		); err != nil {
			return fmt.Errorf("add subscriber: %w", err)
		}
	case RoleFreeUser:
		if role.TrialEndDate == nil {
			return core.Invalidf("free users need a trial end date")
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO free_users (email, trial_end_date) VALUES ($1, $2)
			ON CONFLICT (email) DO UPDATE SET trial_end_date = EXCLUDED.trial_end_date`,
			email, *role.TrialEndDate,
		); err != nil {
			return fmt.Errorf("add free user: %w", err)
		}
	case RoleUser:
	default:
		return core.Invalidf("unknown user type %q", role.Kind)
	}
	return nil
}

// RemoveRole drops a specialization. Removing the subscriber role also
// removes payment data, ownership links and subscriptions left unowned.
func (r *repository) RemoveRole(
	ctx context.Context,
	email string,
	kind RoleKind,
) (schema.Result, error) {
	switch kind {
	case RoleSubscriber:
		owned, err := r.ownedSubscriptions(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("remove subscriber: %w", err)
		}
		res, err := schema.Cascade(ctx, r.db, schema.DemoteSubscriber, email)
		if err != nil {
			return nil, fmt.Errorf("remove subscriber: %w", err)
		}
		orphans, err := r.deleteOrphans(ctx, owned)
		if err != nil {
			return nil, fmt.Errorf("remove subscriber: %w", err)
		}
		return merge(res, orphans), nil
	case RoleFreeUser:
		result, err := r.db.ExecContext(ctx, `DELETE FROM free_users WHERE email = $1`, email)
		if err != nil {
			return nil, fmt.Errorf("remove free user: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("remove free user: %w", err)
		}
		return schema.Result{schema.FreeUsers: n}, nil
	default:
		return schema.Result{}, nil
	}
}

func (r *repository) DeleteCascade(ctx context.Context, email string) (schema.Result, error) {
	owned, err := r.ownedSubscriptions(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	res, err := schema.Cascade(ctx, r.db, schema.DeleteUser, email)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	orphans, err := r.deleteOrphans(ctx, owned)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	return merge(res, orphans), nil
}

// ownedSubscriptions must run before the owner links are removed.
func (r *repository) ownedSubscriptions(ctx context.Context, email string) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT sub_id FROM subscription_owners WHERE email = $1 ORDER BY sub_id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("owned subscriptions: %w", err)
	}
	return ids, nil
}

// deleteOrphans removes those of ids that were left without an owner.
// Subscriptions the user never owned are not touched.
func (r *repository) deleteOrphans(ctx context.Context, ids []int) (schema.Result, error) {
	if len(ids) == 0 {
		return schema.Result{}, nil
	}
	return schema.Cascade(ctx, r.db, schema.DeleteOrphanSubscriptions, ids)
}

func (r *repository) List(ctx context.Context) ([]View, error) {
	query := `
		SELECT u.email, u.first_name, u.middle_name, u.last_name,
		       u.birth_date, u.sign_up_date,
		       CASE
		           WHEN s.email IS NOT NULL THEN 'subscriber'
		           WHEN f.email IS NOT NULL THEN 'free_user'
		           ELSE 'user'
		       END AS user_type,
		       CASE WHEN s.email IS NULL THEN f.trial_end_date END AS trial_end_date
		FROM users u
		LEFT JOIN subscribers s ON s.email = u.email
		LEFT JOIN free_users f ON f.email = u.email
		ORDER BY u.sign_up_date DESC, u.email ASC`

	views := []View{}
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return views, nil
}

func (r *repository) ListPhones(ctx context.Context) (map[string][]string, error) {
	query := `
		SELECT email, phone_number FROM user_phones
		ORDER BY email, phone_number`

	var rows []struct {
		Email       string `db:"email"`
		PhoneNumber string `db:"phone_number"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}

	out := make(map[string][]string, len(rows))
	for _, row := range rows {
		out[row.Email] = append(out[row.Email], row.PhoneNumber)
	}
	return out, nil
}

func merge(a, b schema.Result) schema.Result {
	out := make(schema.Result, len(a)+len(b))
	maps.Copy(out, a)
	for k, v := range b {
		out[k] += v
	}
	return out
}
