// AngelaMos | 2026
// views_test.go

package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

func TestViewsUsers(t *testing.T) {
	snap := loadFixture(t).Views()

	require.Len(t, snap.Users, 3)
	emails := []string{snap.Users[0].Email, snap.Users[1].Email, snap.Users[2].Email}
	assert.Equal(t, []string{"bob@example.com", "carol@example.com", "alice@example.com"}, emails)

	assert.Equal(t, user.RoleSubscriber, snap.Users[0].UserType)
	assert.Empty(t, snap.Users[0].PhoneNumbers)

	carol := snap.Users[1]
	assert.Equal(t, user.RoleFreeUser, carol.UserType)
	require.NotNil(t, carol.TrialEndDate)
	assert.Equal(t, core.NewDate(2024, 4, 1), *carol.TrialEndDate)

	alice := snap.Users[2]
	assert.Equal(t, user.RoleSubscriber, alice.UserType)
	assert.Equal(t, []string{"5550001111", "5551234567"}, alice.PhoneNumbers)
}

func TestViewsMoviesAndRatings(t *testing.T) {
	snap := loadFixture(t).Views()

	require.Len(t, snap.Movies, 2)
	assert.Equal(t, "Alpha Dawn", snap.Movies[0].Title)
	assert.InDelta(t, 3.0, snap.Movies[0].AverageRating, 0.001)
	assert.Equal(t, 1, snap.Movies[0].TotalRatings)
	assert.Equal(t, "Zebra Run", snap.Movies[1].Title)
	assert.InDelta(t, 4.3, snap.Movies[1].AverageRating, 0.001)
	assert.Equal(t, 2, snap.Movies[1].TotalRatings)

	require.Len(t, snap.Ratings, 3)
	assert.Equal(t, [2]int{10, 2}, [2]int{snap.Ratings[0].MovieID, snap.Ratings[0].RatingID})
	assert.Equal(t, [2]int{11, 1}, [2]int{snap.Ratings[1].MovieID, snap.Ratings[1].RatingID})
	assert.Equal(t, [2]int{10, 1}, [2]int{snap.Ratings[2].MovieID, snap.Ratings[2].RatingID})
	assert.Equal(t, "Zebra Run", snap.Ratings[0].MovieTitle)
	require.NotNil(t, snap.Ratings[0].ReviewText)
	assert.Equal(t, `Loved the "ending"`, *snap.Ratings[0].ReviewText)
	assert.Nil(t, snap.Ratings[1].ReviewText)
}

func TestViewsSubscriptions(t *testing.T) {
	snap := loadFixture(t).Views()

	require.Len(t, snap.Subscriptions, 2)

	bob := snap.Subscriptions[0]
	assert.Equal(t, 2, bob.ID)
	assert.Equal(t, "Basic", bob.PlanName)
	assert.Equal(t, subscription.PlaceholderAddress(), bob.BillingAddress)
	assert.Equal(t, core.PlaceholderCard, bob.PaymentMethod.CardNumber)

	alice := snap.Subscriptions[1]
	assert.Equal(t, "alice@example.com", alice.UserEmail)
	assert.Equal(t, 4, alice.MaxScreens)
	assert.InDelta(t, 22.99, alice.MonthlyPrice, 0.001)
	assert.Equal(t, "Springfield", alice.BillingAddress.City)
	assert.Equal(t, subscription.PaymentMethod{
		Type:       subscription.CardType,
		CardNumber: "****-****-****-1234",
		CardHolder: "Alice Smith",
	}, alice.PaymentMethod)
}

func TestViewsPlansWatchesAndSummary(t *testing.T) {
	snap := loadFixture(t).Views()

	require.Len(t, snap.Plans, 2)
	assert.Equal(t, "Basic", snap.Plans[0].Name)

	assert.Equal(t, []watch.Record{
		{Email: "alice@example.com", MovieID: 10},
		{Email: "bob@example.com", MovieID: 10},
		{Email: "bob@example.com", MovieID: 11},
	}, snap.Watches)

	sum := snap.Summary
	assert.Equal(t, 3, sum.TotalUsers)
	assert.Equal(t, 2, sum.Subscribers)
	assert.Equal(t, 1, sum.FreeUsers)
	assert.Equal(t, 2, sum.ActiveSubscriptions)
	assert.InDelta(t, 32.98, sum.MonthlyRevenue, 0.001)
	assert.InDelta(t, 3.8, sum.AverageRating, 0.001)
	assert.Equal(t, 3, sum.TotalWatches)
}

func TestViewsOfEmptyDataset(t *testing.T) {
	snap := (&Dataset{}).Views()

	assert.NotNil(t, snap.Users)
	assert.NotNil(t, snap.Plans)
	assert.NotNil(t, snap.Watches)
	assert.Zero(t, snap.Summary.AverageRating)
}

func TestViewsAverageMatchesDecimalRounding(t *testing.T) {
	ds := &Dataset{
		Movies: []movie.Movie{{ID: 1, Title: "Tenths"}},
		Ratings: []rating.Rating{
			{MovieID: 1, RatingID: 1, UserEmail: "a@x.com", Stars: 0.1},
			{MovieID: 1, RatingID: 2, UserEmail: "b@x.com", Stars: 4.6},
		},
	}

	snap := ds.Views()

	require.Len(t, snap.Movies, 1)
	assert.Equal(t, 2.4, snap.Movies[0].AverageRating)
	assert.Equal(t, 2.4, snap.Summary.AverageRating)
}
