// AngelaMos | 2026
// dataset.go

package importer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/schema"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

type Phone struct {
	Email  string
	Number string
}

type Trial struct {
	Email    string
	TrialEnd core.Date
}

// Card holds a normalized card number in the clear. It is encrypted on
// the way into the database and masked in every view.
type Card struct {
	Email  string
	Number string
}

type Address struct {
	Email string
	subscription.BillingAddress
}

type Owner struct {
	Email string
	SubID int
}

type PlanLink struct {
	SubID    int
	PlanName string
}

type Review struct {
	MovieID  int
	RatingID int
	Text     string
}

// Dataset is the content of one dump, keyed by the current table names.
type Dataset struct {
	Users         []user.User
	Phones        []Phone
	Trials        []Trial
	Subscribers   []string
	Cards         []Card
	Addresses     []Address
	Plans         []plan.Plan
	Subscriptions []subscription.Subscription
	Owners        []Owner
	PlanLinks     []PlanLink
	Movies        []movie.Movie
	Ratings       []rating.Rating
	Reviews       []Review
	Watches       []watch.Record

	// Skipped names the INSERT targets that map to no known table.
	Skipped []string
}

// Counts reports the rows per current table name.
func (d *Dataset) Counts() schema.Result {
	return schema.Result{
		schema.Users:              int64(len(d.Users)),
		schema.UserPhones:         int64(len(d.Phones)),
		schema.FreeUsers:          int64(len(d.Trials)),
		schema.Subscribers:        int64(len(d.Subscribers)),
		schema.PaymentMethods:     int64(len(d.Cards)),
		schema.BillingAddresses:   int64(len(d.Addresses)),
		schema.Plans:              int64(len(d.Plans)),
		schema.Subscriptions:      int64(len(d.Subscriptions)),
		schema.SubscriptionOwners: int64(len(d.Owners)),
		schema.SubscriptionPlans:  int64(len(d.PlanLinks)),
		schema.Movies:             int64(len(d.Movies)),
		schema.Ratings:            int64(len(d.Ratings)),
		schema.ReviewTexts:        int64(len(d.Reviews)),
		schema.WatchRecords:       int64(len(d.Watches)),
	}
}

type target struct {
	table   string
	columns []string
}

// targets maps both the legacy dump names and the current table names.
// columns is the positional order used when an INSERT lists none.
var targets = func() map[string]target {
	current := []target{
		{schema.Users, []string{"email", "first_name", "middle_name", "last_name", "birth_date", "sign_up_date"}},
		{schema.UserPhones, []string{"email", "phone_number"}},
		{schema.FreeUsers, []string{"email", "trial_end_date"}},
		{schema.Subscribers, []string{"email"}},
		{schema.PaymentMethods, []string{"email", "card_number"}},
		{schema.BillingAddresses, []string{"email", "street", "city", "state", "zip_code"}},
		{schema.Plans, []string{"plan_name", "max_screens", "monthly_price"}},
		{schema.Subscriptions, []string{"sub_id", "start_date", "end_date", "status"}},
		{schema.SubscriptionOwners, []string{"email", "sub_id"}},
		{schema.SubscriptionPlans, []string{"sub_id", "plan_name"}},
		{schema.Movies, []string{"movie_id", "title", "production_company", "length_minutes", "release_year", "genre"}},
		{schema.Ratings, []string{"movie_id", "rating_id", "user_email", "stars", "rating_date"}},
		{schema.ReviewTexts, []string{"movie_id", "rating_id", "review_text"}},
		{schema.WatchRecords, []string{"email", "movie_id"}},
	}

	legacy := map[string]string{
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

	out := make(map[string]target, len(current)+len(legacy))
	for _, t := range current {
		out[t.table] = t
	}
	for name, table := range legacy {
		out[name] = out[table]
	}
	return out
}()

// columnAliases renames legacy column names to the current ones.
var columnAliases = map[string]string{
	"first":           "first_name",
	"middle":          "middle_name",
	"last":            "last_name",
	"zip":             "zip_code",
	"payment_method":  "card_number",
	"length_of_movie": "length_minutes",
	"length":          "length_minutes",
	"user_name":       "user_email",
	"date":            "rating_date",
}

// row gives access to one VALUES tuple by current column name.
type row struct {
	table  string
	pos    Pos
	values map[string]Value
}

func (r row) get(col string) (Value, error) {
	v, ok := r.values[col]
	if !ok {
		return Value{}, fmt.Errorf("%s row at %s: missing column %s", r.table, r.pos, col)
	}
	return v, nil
}

func (r row) text(col string) (string, error) {
	v, err := r.get(col)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", fmt.Errorf("%s row at %s: %s is NULL", r.table, r.pos, col)
	}
	return v.Text, nil
}

func (r row) email(col string) (string, error) {
	s, err := r.text(col)
	if err != nil {
		return "", err
	}
	return user.NormalizeEmail(s), nil
}

func (r row) optText(col string) *string {
	v, ok := r.values[col]
	if !ok {
		return nil
	}
	return v.OptString()
}

func (r row) integer(col string) (int, error) {
	v, err := r.get(col)
	if err != nil {
		return 0, err
	}
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
	return n, nil
}

func (r row) optInteger(col string) (*int, error) {
	v, ok := r.values[col]
	if !ok {
		return nil, nil
	}
	n, err := v.OptInt()
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
	return n, nil
}

func (r row) number(col string) (float64, error) {
	v, err := r.get(col)
	if err != nil {
		return 0, err
	}
	f, err := v.Float()
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
	return f, nil
}

func (r row) date(col string) (core.Date, error) {
	v, err := r.get(col)
	if err != nil {
		return core.Date{}, err
	}
	d, err := v.Date()
	if err != nil {
		return core.Date{}, fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
	return d, nil
}

func (r row) optDate(col string) (*core.Date, error) {
	v, ok := r.values[col]
	if !ok {
		return nil, nil
	}
	d, err := v.OptDate()
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
	return d, nil
}

// Load reads a SQL dump and collects the rows of every known table.
// Statements other than INSERT are ignored.
func Load(r io.Reader) (*Dataset, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}

	toks, err := Tokenize(string(src))
	if err != nil {
		return nil, err
	}

	inserts, err := ParseStatements(toks)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	skipped := map[string]bool{}

	for _, ins := range inserts {
		t, ok := targets[strings.ToLower(ins.Table)]
		if !ok {
			skipped[ins.Table] = true
			continue
		}

		cols := t.columns
		if len(ins.Columns) > 0 {
			cols = make([]string, len(ins.Columns))
			for i, c := range ins.Columns {
				if alias, ok := columnAliases[c]; ok {
					c = alias
				}
				cols[i] = c
			}
		}

		for _, values := range ins.Rows {
			if len(values) != len(cols) {
				return nil, fmt.Errorf(
					"%s row at %s: %d values for %d columns",
					ins.Table, values[0].Pos, len(values), len(cols),
				)
			}

			rw := row{table: ins.Table, pos: values[0].Pos, values: make(map[string]Value, len(cols))}
			for i, c := range cols {
				rw.values[c] = values[i]
			}

			if err := ds.add(t.table, rw); err != nil {
				return nil, err
			}
		}
	}

	for name := range skipped {
		ds.Skipped = append(ds.Skipped, name)
	}
	sort.Strings(ds.Skipped)

	return ds, nil
}

//nolint:gocyclo // one case per table
func (d *Dataset) add(table string, r row) error {
	switch table {
	case schema.Users:
		return d.addUser(r)

	case schema.UserPhones:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		raw, err := r.text("phone_number")
		if err != nil {
			return err
		}
		number, err := user.NormalizePhone(raw)
		if err != nil {
			return fmt.Errorf("%s row at %s: %w", r.table, r.pos, err)
		}
		d.Phones = append(d.Phones, Phone{Email: email, Number: number})

	case schema.FreeUsers:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		end, err := r.date("trial_end_date")
		if err != nil {
			return err
		}
		d.Trials = append(d.Trials, Trial{Email: email, TrialEnd: end})

	case schema.Subscribers:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		d.Subscribers = append(d.Subscribers, email)

	case schema.PaymentMethods:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		raw, err := r.text("card_number")
		if err != nil {
			return err
		}
		number, err := core.NormalizeCardNumber(raw)
		if err != nil {
			return fmt.Errorf("%s row at %s: %w", r.table, r.pos, err)
		}
		d.Cards = append(d.Cards, Card{Email: email, Number: number})

	case schema.BillingAddresses:
		return d.addAddress(r)

	case schema.Plans:
		name, err := r.text("plan_name")
		if err != nil {
			return err
		}
		screens, err := r.integer("max_screens")
		if err != nil {
			return err
		}
		price, err := r.number("monthly_price")
		if err != nil {
			return err
		}
		d.Plans = append(d.Plans, plan.Plan{Name: name, MaxScreens: screens, MonthlyPrice: price})

	case schema.Subscriptions:
		return d.addSubscription(r)

	case schema.SubscriptionOwners:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		id, err := r.integer("sub_id")
		if err != nil {
			return err
		}
		d.Owners = append(d.Owners, Owner{Email: email, SubID: id})

	case schema.SubscriptionPlans:
		id, err := r.integer("sub_id")
		if err != nil {
			return err
		}
		name, err := r.text("plan_name")
		if err != nil {
			return err
		}
		d.PlanLinks = append(d.PlanLinks, PlanLink{SubID: id, PlanName: name})

	case schema.Movies:
		return d.addMovie(r)

	case schema.Ratings:
		return d.addRating(r)

	case schema.ReviewTexts:
		movieID, err := r.integer("movie_id")
		if err != nil {
			return err
		}
		ratingID, err := r.integer("rating_id")
		if err != nil {
			return err
		}
		text := r.optText("review_text")
		if text == nil {
			return nil
		}
		d.Reviews = append(d.Reviews, Review{MovieID: movieID, RatingID: ratingID, Text: *text})

	case schema.WatchRecords:
		email, err := r.email("email")
		if err != nil {
			return err
		}
		movieID, err := r.integer("movie_id")
		if err != nil {
			return err
		}
		d.Watches = append(d.Watches, watch.Record{Email: email, MovieID: movieID})
	}

	return nil
}

func (d *Dataset) addUser(r row) error {
	email, err := r.email("email")
	if err != nil {
		return err
	}
	first, err := r.text("first_name")
	if err != nil {
		return err
	}
	last, err := r.text("last_name")
	if err != nil {
		return err
	}
	birth, err := r.optDate("birth_date")
	if err != nil {
		return err
	}
	signUp, err := r.optDate("sign_up_date")
	if err != nil {
		return err
	}

	u := user.User{
		Email:      email,
		FirstName:  first,
		MiddleName: r.optText("middle_name"),
		LastName:   last,
		BirthDate:  birth,
		SignUpDate: core.Today(),
	}
	if signUp != nil {
		u.SignUpDate = *signUp
	}

	d.Users = append(d.Users, u)
	return nil
}

func (d *Dataset) addAddress(r row) error {
	email, err := r.email("email")
	if err != nil {
		return err
	}

	var addr subscription.BillingAddress
	for col, dst := range map[string]*string{
		"street":   &addr.Street,
		"city":     &addr.City,
		"state":    &addr.State,
		"zip_code": &addr.ZipCode,
	} {
		if *dst, err = r.text(col); err != nil {
			return err
		}
	}

	d.Addresses = append(d.Addresses, Address{Email: email, BillingAddress: addr})
	return nil
}

func (d *Dataset) addSubscription(r row) error {
	id, err := r.integer("sub_id")
	if err != nil {
		return err
	}
	start, err := r.date("start_date")
	if err != nil {
		return err
	}
	end, err := r.optDate("end_date")
	if err != nil {
		return err
	}
	raw, err := r.text("status")
	if err != nil {
		return err
	}

	status := subscription.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return fmt.Errorf("%s row at %s: unknown status %q", r.table, r.pos, raw)
	}

	sub := subscription.Subscription{
		ID:        id,
		StartDate: start,
		EndDate:   subscription.EndDateFor(start),
		Status:    status,
	}
	if end != nil {
		sub.EndDate = *end
	}

	d.Subscriptions = append(d.Subscriptions, sub)
	return nil
}

func (d *Dataset) addMovie(r row) error {
	id, err := r.integer("movie_id")
	if err != nil {
		return err
	}
	title, err := r.text("title")
	if err != nil {
		return err
	}
	length, err := r.optInteger("length_minutes")
	if err != nil {
		return err
	}
	year, err := r.optInteger("release_year")
	if err != nil {
		return err
	}

	d.Movies = append(d.Movies, movie.Movie{
		ID:                id,
		Title:             title,
		ProductionCompany: r.optText("production_company"),
		LengthMinutes:     length,
		ReleaseYear:       year,
		Genre:             r.optText("genre"),
	})
	return nil
}

func (d *Dataset) addRating(r row) error {
	movieID, err := r.integer("movie_id")
	if err != nil {
		return err
	}
	ratingID, err := r.integer("rating_id")
	if err != nil {
		return err
	}
	email, err := r.email("user_email")
	if err != nil {
		return err
	}
	raw, err := r.number("stars")
	if err != nil {
		return err
	}
	stars, err := rating.NormalizeStars(raw)
	if err != nil {
		return fmt.Errorf("%s row at %s: %w", r.table, r.pos, err)
	}
	date, err := r.optDate("rating_date")
	if err != nil {
		return err
	}

	rt := rating.Rating{
		MovieID:    movieID,
		RatingID:   ratingID,
		UserEmail:  email,
		Stars:      stars,
		RatingDate: core.Today(),
	}
	if date != nil {
		rt.RatingDate = *date
	}

	d.Ratings = append(d.Ratings, rt)
	return nil
}
