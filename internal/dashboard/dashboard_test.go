// AngelaMos | 2026
// dashboard_test.go

package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

type staticLister[T any] struct {
	rows []T
	err  error
}

func (l staticLister[T]) List(context.Context) ([]T, error) {
	return l.rows, l.err
}

func sources() Sources {
	return Sources{
		Users: staticLister[user.View]{rows: []user.View{
			{Email: "a@x.com", UserType: user.RoleSubscriber},
			{Email: "b@x.com", UserType: user.RoleFreeUser},
			{Email: "c@x.com", UserType: user.RoleUser},
		}},
		Movies: staticLister[movie.View]{rows: []movie.View{{ID: 1, Title: "Heat"}}},
		Subscriptions: staticLister[subscription.View]{rows: []subscription.View{
			{ID: 1, Status: subscription.StatusActive, MonthlyPrice: 9.99},
			{ID: 2, Status: subscription.StatusActive, MonthlyPrice: 15.49},
			{ID: 3, Status: subscription.StatusPending, MonthlyPrice: 22.99},
		}},
		Ratings: staticLister[rating.View]{rows: []rating.View{
			{Stars: 4}, {Stars: 5}, {Stars: 3},
		}},
		Plans:   staticLister[plan.Plan]{},
		Watches: staticLister[watch.Record]{rows: []watch.Record{{Email: "a@x.com", MovieID: 1}}},
	}
}

func TestSnapshotSummary(t *testing.T) {
	snap, err := NewService(sources()).Snapshot(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, snap.Plans)
	assert.Empty(t, snap.Plans)

	sum := snap.Summary
	assert.Equal(t, 3, sum.TotalUsers)
	assert.Equal(t, 1, sum.Subscribers)
	assert.Equal(t, 1, sum.FreeUsers)
	assert.Equal(t, 3, sum.TotalSubscriptions)
	assert.Equal(t, 2, sum.ActiveSubscriptions)
	assert.InDelta(t, 25.48, sum.MonthlyRevenue, 1e-9)
	assert.InDelta(t, 4.0, sum.AverageRating, 1e-9)
	assert.Equal(t, 1, sum.TotalWatches)
}

func TestSnapshotFailsWhenAnyViewFails(t *testing.T) {
	src := sources()
	src.Ratings = staticLister[rating.View]{err: errors.New("ratings down")}

	_, err := NewService(src).Snapshot(context.Background())
	require.EqualError(t, err, "ratings down")
}
