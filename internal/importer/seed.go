// AngelaMos | 2026
// seed.go

package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/schema"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

// Seeder writes a Dataset into the database. Rows that already exist are
// left untouched, so seeding the same dump twice inserts nothing new.
type Seeder struct {
	db     *core.Database
	cipher *core.CardCipher
	cache  core.JSONCache
	logger *slog.Logger
}

// NewSeeder accepts a nil cache when no API shares the database.
func NewSeeder(
	db *core.Database,
	cipher *core.CardCipher,
	cache core.JSONCache,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{db: db, cipher: cipher, cache: cache, logger: logger}
}

type sealedCard struct {
	email      string
	ciphertext []byte
	last4      string
}

type writer func(ctx context.Context, tx *sqlx.Tx) (int64, error)

// Seed inserts the dataset in one transaction, parents before children.
// It reports the rows inserted per table.
func (s *Seeder) Seed(ctx context.Context, ds *Dataset) (res schema.Result, err error) {
	ctx, done := core.TrackOperation(ctx, "importer.seed")
	defer func() { done(err) }()

	cards := make([]sealedCard, 0, len(ds.Cards))
	if len(ds.Cards) > 0 && s.cipher == nil {
		return nil, fmt.Errorf("seed payment methods: card cipher not configured")
	}
	for _, c := range ds.Cards {
		sealed, err := s.cipher.Seal(c.Number)
		if err != nil {
			return nil, fmt.Errorf("seed payment methods: %w", err)
		}
		cards = append(cards, sealedCard{email: c.Email, ciphertext: sealed, last4: core.CardLast4(c.Number)})
	}

	tables := writers(ds, cards)
	res = schema.Result{}

	err = core.InTx(ctx, s.db.DB, func(tx *sqlx.Tx) error {
		for _, table := range schema.Dependencies.InsertOrder() {
			write, ok := tables[table]
			if !ok {
				continue
			}
			n, err := write(ctx, tx)
			if err != nil {
				return fmt.Errorf("seed %s: %w", table, err)
			}
			res[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && (res[schema.Movies] > 0 || res[schema.Ratings] > 0) {
		s.cache.Delete(ctx, core.MovieListCacheKey)
	}

	s.logger.Info("dataset seeded", "rows", res.Total(), "tables", res)
	return res, nil
}

func each[T any](rows []T, query string, args func(T) []any) writer {
	return func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		var total int64
		for _, row := range rows {
			out, err := tx.ExecContext(ctx, query, args(row)...)
			if err != nil {
				return total, err
			}
			n, err := out.RowsAffected()
			if err != nil {
				return total, err
			}
			total += n
		}
		return total, nil
	}
}

//nolint:funlen // one writer per table
func writers(ds *Dataset, cards []sealedCard) map[string]writer {
	subscribers := make(map[string]bool, len(ds.Subscribers))
	for _, email := range ds.Subscribers {
		subscribers[email] = true
	}

	// A subscriber row wins over a trial row for the same email.
	trials := make([]Trial, 0, len(ds.Trials))
	for _, t := range ds.Trials {
		if !subscribers[t.Email] {
			trials = append(trials, t)
		}
	}

	return map[string]writer{
		schema.Users: each(ds.Users, `
			INSERT INTO users (email, first_name, middle_name, last_name, birth_date, sign_up_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO NOTHING`,
			func(u user.User) []any {
				return []any{u.Email, u.FirstName, u.MiddleName, u.LastName, u.BirthDate, u.SignUpDate}
			}),

		schema.UserPhones: each(ds.Phones, `
			INSERT INTO user_phones (email, phone_number)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			func(p Phone) []any { return []any{p.Email, p.Number} }),

		schema.FreeUsers: each(trials, `
			INSERT INTO free_users (email, trial_end_date)
			SELECT $1::varchar, $2::date
			WHERE NOT EXISTS (SELECT 1 FROM subscribers WHERE email = $1)
			ON CONFLICT (email) DO NOTHING`,
			func(t Trial) []any { return []any{t.Email, t.TrialEnd} }),

		// A stored trial for the same email is dropped so only one role
		// row remains.
		schema.Subscribers: each(ds.Subscribers, `
			WITH demoted AS (DELETE FROM free_users WHERE email = $1)
			INSERT INTO subscribers (email)
			VALUES ($1)
			ON CONFLICT (email) DO NOTHING`,
			func(email string) []any { return []any{email} }),

		schema.Plans: each(ds.Plans, `
			INSERT INTO plans (plan_name, max_screens, monthly_price)
			VALUES ($1, $2, $3)
			ON CONFLICT (plan_name) DO NOTHING`,
			func(p plan.Plan) []any { return []any{p.Name, p.MaxScreens, p.MonthlyPrice} }),

		schema.Subscriptions: each(ds.Subscriptions, `
			INSERT INTO subscriptions (sub_id, start_date, end_date, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (sub_id) DO NOTHING`,
			func(sub subscription.Subscription) []any {
				return []any{sub.ID, sub.StartDate, sub.EndDate, string(sub.Status)}
			}),

		schema.SubscriptionPlans: each(ds.PlanLinks, `
			INSERT INTO subscription_plans (sub_id, plan_name)
			VALUES ($1, $2)
			ON CONFLICT (sub_id) DO NOTHING`,
			func(l PlanLink) []any { return []any{l.SubID, l.PlanName} }),

		schema.SubscriptionOwners: each(ds.Owners, `
			INSERT INTO subscription_owners (email, sub_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			func(o Owner) []any { return []any{o.Email, o.SubID} }),

		schema.BillingAddresses: each(ds.Addresses, `
			INSERT INTO billing_addresses (email, street, city, state, zip_code)
			SELECT $1::varchar, $2::varchar, $3::varchar, $4::varchar, $5::varchar
			WHERE NOT EXISTS (
				SELECT 1 FROM billing_addresses
				WHERE email = $1 AND street = $2 AND city = $3 AND state = $4 AND zip_code = $5
			)`,
			func(a Address) []any { return []any{a.Email, a.Street, a.City, a.State, a.ZipCode} }),

		schema.PaymentMethods: each(cards, `
			INSERT INTO payment_methods (email, card_ciphertext, card_last4)
			SELECT $1::varchar, $2::bytea, $3::char(4)
			WHERE NOT EXISTS (
				SELECT 1 FROM payment_methods WHERE email = $1 AND card_last4 = $3
			)`,
			func(c sealedCard) []any { return []any{c.email, c.ciphertext, c.last4} }),

		schema.Movies: each(ds.Movies, `
			INSERT INTO movies (movie_id, title, production_company, length_minutes, release_year, genre)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (movie_id) DO NOTHING`,
			func(m movie.Movie) []any {
				return []any{m.ID, m.Title, m.ProductionCompany, m.LengthMinutes, m.ReleaseYear, m.Genre}
			}),

		schema.Ratings: each(ds.Ratings, `
			INSERT INTO ratings (movie_id, rating_id, user_email, stars, rating_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (movie_id, rating_id) DO NOTHING`,
			func(r rating.Rating) []any {
				return []any{r.MovieID, r.RatingID, r.UserEmail, r.Stars, r.RatingDate}
			}),

		schema.ReviewTexts: each(ds.Reviews, `
			INSERT INTO review_texts (movie_id, rating_id, review_text)
			VALUES ($1, $2, $3)
			ON CONFLICT (movie_id, rating_id) DO NOTHING`,
			func(r Review) []any { return []any{r.MovieID, r.RatingID, r.Text} }),

		schema.WatchRecords: each(ds.Watches, `
			INSERT INTO watch_records (email, movie_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			func(w watch.Record) []any { return []any{w.Email, w.MovieID} }),
	}
}
