// AngelaMos | 2026
// tables.go

package schema

const (
	Users              = "users"
	UserPhones         = "user_phones"
	FreeUsers          = "free_users"
	Subscribers        = "subscribers"
	Plans              = "plans"
	Subscriptions      = "subscriptions"
	SubscriptionPlans  = "subscription_plans"
	SubscriptionOwners = "subscription_owners"
	BillingAddresses   = "billing_addresses"
	PaymentMethods     = "payment_methods"
	Movies             = "movies"
	Ratings            = "ratings"
	ReviewTexts        = "review_texts"
	WatchRecords       = "watch_records"
)

// Dependencies mirrors the foreign keys in schema.sql. Sibling order is the
// order dependents are removed in.
var Dependencies = MustGraph(
	[]Table{
		{Name: Users, Key: []string{"email"}},
		{Name: UserPhones, Key: []string{"email", "phone_number"}},
		{Name: FreeUsers, Key: []string{"email"}},
		{Name: Subscribers, Key: []string{"email"}},
		{Name: Plans, Key: []string{"plan_name"}},
		{Name: Subscriptions, Key: []string{"sub_id"}},
		{Name: SubscriptionPlans, Key: []string{"sub_id"}},
		{Name: SubscriptionOwners, Key: []string{"email", "sub_id"}},
		{Name: BillingAddresses, Key: []string{"id"}},
		{Name: PaymentMethods, Key: []string{"id"}},
		{Name: Movies, Key: []string{"movie_id"}},
		{Name: Ratings, Key: []string{"movie_id", "rating_id"}},
		{Name: ReviewTexts, Key: []string{"movie_id", "rating_id"}},
		{Name: WatchRecords, Key: []string{"email", "movie_id"}},
	},
	[]Edge{
		RefAs(Users, []string{"email"}, Ratings, []string{"user_email"}),
		Ref(Users, WatchRecords, "email"),
		Ref(Users, Subscribers, "email"),
		Ref(Users, FreeUsers, "email"),
		Ref(Users, UserPhones, "email"),

		Ref(Ratings, ReviewTexts, "movie_id", "rating_id"),

		Ref(Subscribers, PaymentMethods, "email"),
		Ref(Subscribers, BillingAddresses, "email"),
		Ref(Subscribers, SubscriptionOwners, "email"),

		Ref(Movies, Ratings, "movie_id"),
		Ref(Movies, WatchRecords, "movie_id"),

		Ref(Subscriptions, SubscriptionOwners, "sub_id"),
		Ref(Subscriptions, SubscriptionPlans, "sub_id"),

		Ref(Plans, SubscriptionPlans, "plan_name"),
	},
)

var (
	// DeleteUser removes a user and everything that references it. $1 is
	// the email.
	DeleteUser = mustPlan(Users, "email = $1")

	// DeleteMovie removes a movie with its ratings and watch records. $1 is
	// the movie id.
	DeleteMovie = mustPlan(Movies, "movie_id = $1")

	// DemoteSubscriber removes the subscriber specialization together with
	// its payment data and ownership links. $1 is the email.
	DemoteSubscriber = mustPlan(Subscribers, "email = $1")

	// DeleteOrphanSubscriptions removes the subscriptions among $1 (an
	// array of sub ids) that no longer have any owner.
	DeleteOrphanSubscriptions = mustPlan(
		Subscriptions,
		"sub_id = ANY($1) AND NOT EXISTS "+
			"(SELECT 1 FROM subscription_owners o WHERE o.sub_id = subscriptions.sub_id)",
	)
)

func mustPlan(root, where string) Plan {
	p, err := Dependencies.Plan(root, where)
	if err != nil {
		panic(err)
	}
	return p
}
