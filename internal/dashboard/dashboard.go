// AngelaMos | 2026
// dashboard.go

package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Sources are the projections a snapshot is assembled from.
type Sources struct {
	Users         Lister[user.View]
	Movies        Lister[movie.View]
	Subscriptions Lister[subscription.View]
	Ratings       Lister[rating.View]
	Plans         Lister[plan.Plan]
	Watches       Lister[watch.Record]
}

// Snapshot bundles every dashboard view. The views are read independently,
// so a write landing mid-load may show up in some lists and not others.
type Snapshot struct {
	Users         []user.View         `json:"users"`
	Movies        []movie.View        `json:"movies"`
	Subscriptions []subscription.View `json:"subscriptions"`
	Ratings       []rating.View       `json:"ratings"`
	Plans         []plan.Plan         `json:"plans"`
	Watches       []watch.Record      `json:"watches"`
	Summary       Summary             `json:"summary"`
}

type Summary struct {
	TotalUsers          int     `json:"totalUsers"`
	Subscribers         int     `json:"subscribers"`
	FreeUsers           int     `json:"freeUsers"`
	TotalMovies         int     `json:"totalMovies"`
	TotalSubscriptions  int     `json:"totalSubscriptions"`
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
	TotalRatings        int     `json:"totalRatings"`
	AverageRating       float64 `json:"averageRating"`
	TotalWatches        int     `json:"totalWatches"`
}

type Service struct {
	sources Sources
}

func NewService(sources Sources) *Service {
	return &Service{sources: sources}
}

// Snapshot loads all views concurrently, each on its own connection with
// no shared transaction. Any failing view fails the snapshot.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	load(g, gctx, s.sources.Users, &snap.Users)
	load(g, gctx, s.sources.Movies, &snap.Movies)
	load(g, gctx, s.sources.Subscriptions, &snap.Subscriptions)
	load(g, gctx, s.sources.Ratings, &snap.Ratings)
	load(g, gctx, s.sources.Plans, &snap.Plans)
	load(g, gctx, s.sources.Watches, &snap.Watches)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Summary = Summarize(&snap)
	return &snap, nil
}

func load[T any](g *errgroup.Group, ctx context.Context, src Lister[T], dst *[]T) {
	g.Go(func() error {
		rows, err := src.List(ctx)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = []T{}
		}
		*dst = rows
		return nil
	})
}

func Summarize(snap *Snapshot) Summary {
	sum := Summary{
		TotalUsers:         len(snap.Users),
		TotalMovies:        len(snap.Movies),
		TotalSubscriptions: len(snap.Subscriptions),
		TotalRatings:       len(snap.Ratings),
		TotalWatches:       len(snap.Watches),
	}

	for _, u := range snap.Users {
		switch u.UserType {
		case user.RoleSubscriber:
			sum.Subscribers++
		case user.RoleFreeUser:
			sum.FreeUsers++
		}
	}

	for _, sub := range snap.Subscriptions {
		if sub.Status == subscription.StatusActive {
			sum.ActiveSubscriptions++
			sum.MonthlyRevenue += sub.MonthlyPrice
		}
	}
	sum.MonthlyRevenue = float64(int64(sum.MonthlyRevenue*100+0.5)) / 100

	stars := make([]float64, 0, len(snap.Ratings))
	for _, r := range snap.Ratings {
		stars = append(stars, r.Stars)
	}
	sum.AverageRating = movie.AverageRating(stars)

	return sum
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.With(guard.Read).Get("/dashboard", h.Snapshot)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, snap)
}
