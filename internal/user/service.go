// AngelaMos | 2026
// service.go

package user

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
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type Service struct {
	db     *core.Database
	cache  core.JSONCache
	logger *slog.Logger
}

// NewService wires the user lifecycle. cache may be nil.
func NewService(db *core.Database, cache core.JSONCache, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "user.create")
	defer func() { done(err) }()

	u := &User{
		Email:      NormalizeEmail(req.Email),
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: trimmedOrNil(req.MiddleName),
		LastName:   strings.TrimSpace(req.LastName),
		BirthDate:  req.BirthDate,
		SignUpDate: core.Today(),
	}
	if req.SignUpDate != nil && !req.SignUpDate.IsZero() {
		u.SignUpDate = *req.SignUpDate
	}

	role, err := initialRole(req, u.SignUpDate)
	if err != nil {
		return nil, err
	}

	var phones []string
	if req.PhoneNumber != nil && strings.TrimSpace(*req.PhoneNumber) != "" {
		phone, err := NormalizePhone(*req.PhoneNumber)
		if err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		for _, p := range phones {
			if err := repo.AddPhone(ctx, u.Email, p); err != nil {
				return err
			}
		}
		return repo.AddRole(ctx, u.Email, role)
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.ConflictError(fmt.Sprintf("user %s already exists", u.Email))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		"email", u.Email,
		"user_type", role.Kind,
	)

	v := NewView(u, role, phones)
	return &v, nil
}

func initialRole(req CreateUserRequest, signUp core.Date) (Role, error) {
	switch req.UserType {
	case RoleSubscriber:
		if req.TrialEndDate != nil {
			return Role{}, core.Invalidf("trialEndDate is only valid for free users")
		}
		return Subscriber(), nil
	case RoleFreeUser, "":
		trialEnd := signUp.AddDays(DefaultTrialDays)
		if req.TrialEndDate != nil && !req.TrialEndDate.IsZero() {
			trialEnd = *req.TrialEndDate
		}
		return FreeUser(trialEnd), nil
	default:
		return Role{}, core.Invalidf("userType must be free_user or subscriber")
	}
}

func (s *Service) Update(
	ctx context.Context,
	email string,
	req UpdateUserRequest,
) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "user.update")
	defer func() { done(err) }()

	email = NormalizeEmail(email)

	var phones []string
	if req.PhoneNumber.Set && req.PhoneNumber.Value != nil &&
		strings.TrimSpace(*req.PhoneNumber.Value) != "" {
		phone, err := NormalizePhone(*req.PhoneNumber.Value)
		if err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		u, err := repo.Get(ctx, email)
		if err != nil {
			return err
		}

		applyUpdate(u, req)

		if err := repo.Update(ctx, u); err != nil {
			return err
		}

		if req.PhoneNumber.Set {
			if err := repo.ReplacePhones(ctx, email, phones); err != nil {
				return err
			}
		}

		role, err := repo.GetRole(ctx, email)
		if err != nil {
			return err
		}
		current, err := repo.PhonesFor(ctx, email)
		if err != nil {
			return err
		}

		v := NewView(u, role, current)
		view = &v
		return nil
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("user")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "email", email, "phones_replaced", req.PhoneNumber.Set)
	return view, nil
}

func applyUpdate(u *User, req UpdateUserRequest) {
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.MiddleName.Set {
		u.MiddleName = trimmedOrNil(req.MiddleName.Value)
	}
	if req.BirthDate.Set {
		u.BirthDate = req.BirthDate.Value
		if u.BirthDate != nil && u.BirthDate.IsZero() {
			u.BirthDate = nil
		}
	}
}

// ChangeRole swaps the user's specialization: the old one is removed, then
// the new one is added, in one transaction.
func (s *Service) ChangeRole(
	ctx context.Context,
	email string,
	req ChangeRoleRequest,
) (view *View, err error) {
	ctx, done := core.TrackOperation(ctx, "user.change_role")
	defer func() { done(err) }()

	email = NormalizeEmail(email)

	var target Role
	switch req.UserType {
	case RoleSubscriber:
		target = Subscriber()
	case RoleUser:
		target = PlainUser()
	case RoleFreeUser:
		trialEnd := core.Today().AddDays(DefaultTrialDays)
		if req.TrialEndDate != nil && !req.TrialEndDate.IsZero() {
			trialEnd = *req.TrialEndDate
		}
		target = FreeUser(trialEnd)
	default:
		return nil, core.Invalidf("userType must be subscriber, free_user or user")
	}
	if target.Kind != RoleFreeUser && req.TrialEndDate != nil {
		return nil, core.Invalidf("trialEndDate is only valid for free users")
	}

	var removed schema.Result
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		u, err := repo.Get(ctx, email)
		if err != nil {
			return err
		}

		current, err := repo.GetRole(ctx, email)
		if err != nil {
			return err
		}

		if current.Kind != target.Kind || target.Kind == RoleFreeUser {
			removed, err = repo.RemoveRole(ctx, email, current.Kind)
			if err != nil {
				return err
			}
			if err := repo.AddRole(ctx, email, target); err != nil {
				return err
			}
		}

		phones, err := repo.PhonesFor(ctx, email)
		if err != nil {
			return err
		}

		v := NewView(u, target, phones)
		view = &v
		return nil
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("user")
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordCascade(removed)
	s.logger.Info("user role changed",
		"email", email,
		"user_type", target.Kind,
		"rows_removed", removed.Total(),
	)
	return view, nil
}

// Delete removes the user and all dependent rows. An unknown email is not
// an error; the response then reports nothing deleted.
func (s *Service) Delete(ctx context.Context, email string) (resp *DeleteResponse, err error) {
	ctx, done := core.TrackOperation(ctx, "user.delete")
	defer func() { done(err) }()

	email = NormalizeEmail(email)

	var res schema.Result
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		res, err = NewRepository(tx).DeleteCascade(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCascade(res)
	if res[schema.Ratings] > 0 && s.cache != nil {
		s.cache.Delete(ctx, core.MovieListCacheKey)
	}

	s.logger.Info("user deleted",
		"email", email,
		"rows_deleted", res.Total(),
	)

	return &DeleteResponse{
		Email:       email,
		Deleted:     res[schema.Users] > 0,
		RowsDeleted: res,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	repo := NewRepository(s.db.DB)

	var (
		views  []View
		phones map[string][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = repo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		phones, err = repo.ListPhones(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range views {
		views[i].PhoneNumbers = phones[views[i].Email]
		if views[i].PhoneNumbers == nil {
			views[i].PhoneNumbers = []string{}
		}
	}
	return views, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
