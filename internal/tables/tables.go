// AngelaMos | 2026
// tables.go

package tables

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

// Dump is one raw table listing. No joins are applied.
type Dump struct {
	Table   string           `json:"table"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type layout struct {
	table   string
	columns []string
	query   string
}

func plain(table string, orderBy string, columns ...string) layout {
	return layout{
		table:   table,
		columns: columns,
		query: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
			strings.Join(columns, ", "), table, orderBy),
	}
}

var layouts = map[string]layout{
	schema.Users: plain(schema.Users, "email",
		"email", "first_name", "middle_name", "last_name", "birth_date", "sign_up_date"),
	schema.UserPhones: plain(schema.UserPhones, "email, phone_number",
		"email", "phone_number"),
	schema.FreeUsers: plain(schema.FreeUsers, "email",
		"email", "trial_end_date"),
	schema.Subscribers: plain(schema.Subscribers, "email",
		"email"),
	schema.Plans: plain(schema.Plans, "plan_name",
		"plan_name", "max_screens", "monthly_price"),
	schema.Subscriptions: plain(schema.Subscriptions, "sub_id",
		"sub_id", "start_date", "end_date", "status"),
	schema.SubscriptionPlans: plain(schema.SubscriptionPlans, "sub_id",
		"sub_id", "plan_name"),
	schema.SubscriptionOwners: plain(schema.SubscriptionOwners, "email, sub_id",
		"email", "sub_id"),
	schema.BillingAddresses: plain(schema.BillingAddresses, "id",
		"id", "email", "street", "city", "state", "zip_code"),
	schema.PaymentMethods: {
		table:   schema.PaymentMethods,
		columns: []string{"id", "email", "card_number"},
		query: `SELECT id, email, '` + core.CardMaskPrefix +
			`' || card_last4 AS card_number FROM payment_methods ORDER BY id`,
	},
	schema.Movies: plain(schema.Movies, "movie_id",
		"movie_id", "title", "production_company", "length_minutes", "release_year", "genre"),
	schema.Ratings: plain(schema.Ratings, "movie_id, rating_id",
		"movie_id", "rating_id", "user_email", "stars", "rating_date"),
	schema.ReviewTexts: plain(schema.ReviewTexts, "movie_id, rating_id",
		"movie_id", "rating_id", "review_text"),
	schema.WatchRecords: plain(schema.WatchRecords, "email, movie_id",
		"email", "movie_id"),
}

// aliases maps the table names of the legacy dashboard to the current ones.
var aliases = map[string]string{
	"user":         schema.Users,
	"user2":        schema.UserPhones,
	"free_user":    schema.FreeUsers,
	"subscriber":   schema.Subscribers,
	"subscriber2":  schema.PaymentMethods,
	"subscriber3":  schema.BillingAddresses,
	"plan":         schema.Plans,
	"subscription": schema.Subscriptions,
	"has":          schema.SubscriptionOwners,
	"to":           schema.SubscriptionPlans,
	"movie":        schema.Movies,
	"rating":       schema.Ratings,
	"rating2":      schema.ReviewTexts,
	"watches":      schema.WatchRecords,
}

// Resolve maps a requested table name, current or legacy, to a table.
func Resolve(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := layouts[name]; ok {
		return name, true
	}
	table, ok := aliases[name]
	return table, ok
}

// Names lists the current table names in sorted order.
func Names() []string {
	out := make([]string, 0, len(layouts))
	for name := range layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type Reader struct {
	db core.DBTX
}

func NewReader(db core.DBTX) *Reader {
	return &Reader{db: db}
}

func (r *Reader) Dump(ctx context.Context, name string) (*Dump, error) {
	table, ok := Resolve(name)
	if !ok {
		return nil, core.NotFoundError(fmt.Sprintf("table %q", name))
	}
	lay := layouts[table]

	rows, err := r.db.QueryxContext(ctx, lay.query)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	out := &Dump{Table: table, Columns: lay.columns, Rows: []map[string]any{}}
	for rows.Next() {
		row := make(map[string]any, len(lay.columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("dump %s: %w", table, err)
		}
		for k, v := range row {
			row[k] = normalize(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	return out, nil
}

// Counts returns the row count of every table in one round trip.
func (r *Reader) Counts(ctx context.Context) (map[string]int64, error) {
	names := Names()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts,
			fmt.Sprintf("SELECT '%s' AS table_name, COUNT(*) AS row_count FROM %s", name, name))
	}

	var rows []struct {
		Table string `db:"table_name"`
		Count int64  `db:"row_count"`
	}
	if err := r.db.SelectContext(ctx, &rows, strings.Join(parts, " UNION ALL ")); err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Table] = row.Count
	}
	return out, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(core.DateLayout)
		}
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
