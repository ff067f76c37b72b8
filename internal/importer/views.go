// AngelaMos | 2026
// views.go

package importer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/dashboard"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

// Views projects the dataset the way the list endpoints project the
// database, so a dump can be previewed without loading it.
func (d *Dataset) Views() *dashboard.Snapshot {
	snap := &dashboard.Snapshot{
		Users:         d.userViews(),
		Movies:        d.movieViews(),
		Subscriptions: d.subscriptionViews(),
		Ratings:       d.ratingViews(),
		Plans:         d.planViews(),
		Watches:       d.watchViews(),
	}
	snap.Summary = dashboard.Summarize(snap)
	return snap
}

func (d *Dataset) userViews() []user.View {
	subscribers := make(map[string]bool, len(d.Subscribers))
	for _, email := range d.Subscribers {
		subscribers[email] = true
	}

	trials := make(map[string]*core.Date, len(d.Trials))
	for _, t := range d.Trials {
		end := t.TrialEnd
		trials[t.Email] = &end
	}

	phones := make(map[string][]string)
	for _, p := range d.Phones {
		phones[p.Email] = append(phones[p.Email], p.Number)
	}

	views := make([]user.View, 0, len(d.Users))
	for i := range d.Users {
		u := &d.Users[i]
		nums := slices.Clone(phones[u.Email])
		slices.Sort(nums)
		views = append(views, user.NewView(u, user.ResolveRole(subscribers[u.Email], trials[u.Email]), nums))
	}

	slices.SortStableFunc(views, func(a, b user.View) int {
		if c := b.SignUpDate.Compare(a.SignUpDate); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return views
}

func (d *Dataset) movieViews() []movie.View {
	stars := make(map[int][]float64)
	for _, r := range d.Ratings {
		stars[r.MovieID] = append(stars[r.MovieID], r.Stars)
	}

	views := make([]movie.View, 0, len(d.Movies))
	for i := range d.Movies {
		m := &d.Movies[i]
		s := stars[m.ID]
		views = append(views, movie.NewView(m, movie.AverageRating(s), len(s)))
	}

	slices.SortStableFunc(views, func(a, b movie.View) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return views
}

func (d *Dataset) subscriptionViews() []subscription.View {
	subs := make(map[int]subscription.Subscription, len(d.Subscriptions))
	for _, s := range d.Subscriptions {
		subs[s.ID] = s
	}

	plans := make(map[string]plan.Plan, len(d.Plans))
	for _, p := range d.Plans {
		plans[p.Name] = p
	}

	planOf := make(map[int]string, len(d.PlanLinks))
	for _, l := range d.PlanLinks {
		planOf[l.SubID] = l.PlanName
	}

	users := make(map[string]*user.User, len(d.Users))
	for i := range d.Users {
		users[d.Users[i].Email] = &d.Users[i]
	}

	addresses := make(map[string]subscription.BillingAddress)
	for _, a := range d.Addresses {
		if _, seen := addresses[a.Email]; !seen {
			addresses[a.Email] = a.BillingAddress
		}
	}

	cards := make(map[string]string)
	for _, c := range d.Cards {
		if _, seen := cards[c.Email]; !seen {
			cards[c.Email] = core.CardLast4(c.Number)
		}
	}

	views := make([]subscription.View, 0, len(d.Owners))
	for _, o := range d.Owners {
		s, ok := subs[o.SubID]
		if !ok {
			continue
		}
		p, ok := plans[planOf[o.SubID]]
		if !ok {
			continue
		}
		u, ok := users[o.Email]
		if !ok {
			continue
		}

		v := subscription.View{
			ID:           s.ID,
			UserEmail:    o.Email,
			PlanName:     p.Name,
			Status:       s.Status,
			StartDate:    s.StartDate,
			EndDate:      s.EndDate,
			MonthlyPrice: p.MonthlyPrice,
			MaxScreens:   p.MaxScreens,
			OwnerName:    u.FullName(),
		}
		subscription.Decorate(&v, addresses, cards)
		views = append(views, v)
	}

	slices.SortStableFunc(views, func(a, b subscription.View) int {
		if c := b.StartDate.Compare(a.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return views
}

func (d *Dataset) ratingViews() []rating.View {
	titles := make(map[int]string, len(d.Movies))
	for _, m := range d.Movies {
		titles[m.ID] = m.Title
	}

	type key struct{ movie, rating int }
	reviews := make(map[key]string, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews[key{r.MovieID, r.RatingID}] = r.Text
	}

	views := make([]rating.View, 0, len(d.Ratings))
	for _, r := range d.Ratings {
		title, ok := titles[r.MovieID]
		if !ok {
			continue
		}

		v := rating.View{
			MovieID:    r.MovieID,
			RatingID:   r.RatingID,
			MovieTitle: title,
			UserEmail:  r.UserEmail,
			Stars:      r.Stars,
			RatingDate: r.RatingDate,
		}
		if text, ok := reviews[key{r.MovieID, r.RatingID}]; ok {
			v.ReviewText = &text
		}
		views = append(views, v)
	}

	slices.SortStableFunc(views, func(a, b rating.View) int {
		if c := b.RatingDate.Compare(a.RatingDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.MovieID, b.MovieID); c != 0 {
			return c
		}
		return cmp.Compare(a.RatingID, b.RatingID)
	})
	return views
}

func (d *Dataset) planViews() []plan.Plan {
	views := slices.Clone(d.Plans)
	if views == nil {
		views = []plan.Plan{}
	}
	slices.SortStableFunc(views, func(a, b plan.Plan) int {
		if c := cmp.Compare(a.MonthlyPrice, b.MonthlyPrice); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return views
}

func (d *Dataset) watchViews() []watch.Record {
	views := slices.Clone(d.Watches)
	if views == nil {
		views = []watch.Record{}
	}
	slices.SortStableFunc(views, func(a, b watch.Record) int {
		if c := strings.Compare(a.Email, b.Email); c != 0 {
			return c
		}
		return cmp.Compare(a.MovieID, b.MovieID)
	})
	return slices.CompactFunc(views, func(a, b watch.Record) bool { return a == b })
}
