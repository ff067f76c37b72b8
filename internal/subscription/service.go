// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/metrics"
	"github.com/carterperez-dev/streamflix/internal/plan"
)

type Service struct {
	db     *core.Database
	cipher *core.CardCipher
	logger *slog.Logger
	today  func() core.Date
}

func NewService(db *core.Database, cipher *core.CardCipher, logger *slog.Logger) *Service {
	return &Service{db: db, cipher: cipher, logger: logger, today: core.Today}
}

// Create opens a subscription for an existing user. The user becomes a
// subscriber in the same transaction.
func (s *Service) Create(
	ctx context.Context,
	req CreateSubscriptionRequest,
) (resp *CreateResponse, err error) {
	ctx, done := core.TrackOperation(ctx, "subscription.create")
	defer func() { done(err) }()

	if req.StartDate == nil || req.StartDate.IsZero() {
		return nil, core.Invalidf("startDate is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	planName := strings.TrimSpace(req.PlanName)

	sub := &Subscription{
		StartDate: *req.StartDate,
		EndDate:   EndDateFor(*req.StartDate),
		Status:    InitialStatus(*req.StartDate, s.today()),
	}

	var (
		sealed []byte
		last4  string
	)
	if req.PaymentMethod != nil {
		digits, err := core.NormalizeCardNumber(req.PaymentMethod.CardNumber)
		if err != nil {
			return nil, err
		}
		if s.cipher == nil {
			return nil, fmt.Errorf("store payment method: card cipher not configured")
		}
		if sealed, err = s.cipher.Seal(digits); err != nil {
			return nil, fmt.Errorf("store payment method: %w", err)
		}
		last4 = core.CardLast4(digits)
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		if err := requireUser(ctx, tx, email); err != nil {
			return err
		}
		if err := requirePlan(ctx, tx, planName); err != nil {
			return err
		}

		if err := core.AcquireLock(ctx, tx, core.LockSubscriptionID, 0); err != nil {
			return err
		}

		id, err := repo.NextID(ctx)
		if err != nil {
			return err
		}
		sub.ID = id

		if err := repo.Create(ctx, sub); err != nil {
			return err
		}
		if err := repo.EnsureSubscriber(ctx, email); err != nil {
			return err
		}
		if err := repo.LinkOwner(ctx, email, sub.ID); err != nil {
			return err
		}
		if err := repo.LinkPlan(ctx, sub.ID, planName); err != nil {
			return err
		}

		if req.BillingAddress != nil {
			if err := repo.AddBillingAddress(ctx, email, *req.BillingAddress); err != nil {
				return err
			}
		}
		if sealed != nil {
			if err := repo.AddPaymentMethod(ctx, email, sealed, last4); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.ConflictError("subscription id already taken, retry the request")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription created",
		"sub_id", sub.ID,
		"email", email,
		"plan", planName,
		"status", sub.Status,
	)

	return &CreateResponse{
		SubID:     sub.ID,
		UserEmail: email,
		PlanName:  planName,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		Status:    sub.Status,
	}, nil
}

// Update edits start date, plan or status. The end date is never set on
// its own; it follows the start date.
func (s *Service) Update(
	ctx context.Context,
	id int,
	req UpdateSubscriptionRequest,
) (sub *Subscription, err error) {
	ctx, done := core.TrackOperation(ctx, "subscription.update")
	defer func() { done(err) }()

	if req.Status != nil && !req.Status.Valid() {
		return nil, core.Invalidf("status must be active, inactive or pending")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		var err error
		sub, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if req.StartDate != nil && !req.StartDate.IsZero() {
			sub.StartDate = *req.StartDate
			sub.EndDate = EndDateFor(sub.StartDate)
		}
		if req.Status != nil {
			sub.Status = *req.Status
		}

		if err := repo.Update(ctx, sub); err != nil {
			return err
		}

		if req.PlanName != nil {
			name := strings.TrimSpace(*req.PlanName)
			if err := requirePlan(ctx, tx, name); err != nil {
				return err
			}
			return repo.SetPlan(ctx, id, name)
		}
		return nil
	})
	if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
		return nil, core.NotFoundError("subscription")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription updated", "sub_id", id, "status", sub.Status)
	return sub, nil
}

// SweepStatuses moves subscriptions between states as their dates pass.
func (s *Service) SweepStatuses(ctx context.Context) (changed map[Status]int64, err error) {
	ctx, done := core.TrackOperation(ctx, "subscription.sweep")
	defer func() { done(err) }()

	today := s.today()
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		changed, err = NewRepository(tx).SweepStatuses(ctx, today)
		return err
	})
	if err != nil {
		return nil, err
	}

	for status, n := range changed {
		metrics.RecordSweep(string(status), n)
	}
	return changed, nil
}

// List returns every owned subscription with its plan, first billing
// address and masked first card.
func (s *Service) List(ctx context.Context) ([]View, error) {
	repo := NewRepository(s.db.DB)

	var (
		views     []View
		addresses map[string]BillingAddress
		cards     map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = repo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		addresses, err = repo.FirstAddresses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = repo.FirstCards(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range views {
		Decorate(&views[i], addresses, cards)
	}
	return views, nil
}

// Decorate attaches the billing and payment projections to a view.
func Decorate(v *View, addresses map[string]BillingAddress, cards map[string]string) {
	if addr, ok := addresses[v.UserEmail]; ok {
		v.BillingAddress = addr
	} else {
		v.BillingAddress = PlaceholderAddress()
	}
	v.PaymentMethod = MaskedPayment(cards[v.UserEmail], v.OwnerName)
}

func requireUser(ctx context.Context, q core.DBTX, email string) error {
	var exists bool
	if err := q.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return core.NotFoundError("user")
	}
	return nil
}

func requirePlan(ctx context.Context, q core.DBTX, name string) error {
	_, err := plan.NewRepository(q).Get(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return core.Invalidf("unknown plan %q", name)
	}
	return err
}
