// AngelaMos | 2026
// entity.go

package user

import (
	"strings"

	"github.com/carterperez-dev/streamflix/internal/core"
)

type User struct {
	Email      string     `db:"email"`
	FirstName  string     `db:"first_name"`
	MiddleName *string    `db:"middle_name"`
	LastName   string     `db:"last_name"`
	BirthDate  *core.Date `db:"birth_date"`
	SignUpDate core.Date  `db:"sign_up_date"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type RoleKind string

const (
	RoleSubscriber RoleKind = "subscriber"
	RoleFreeUser   RoleKind = "free_user"
	RoleUser       RoleKind = "user"
)

// DefaultTrialDays is the free trial granted when no end date is given.
const DefaultTrialDays = 30

// Role is the user's specialization. TrialEndDate is set only for
// free users.
type Role struct {
	Kind         RoleKind
	TrialEndDate *core.Date
}

func Subscriber() Role {
	return Role{Kind: RoleSubscriber}
}

func FreeUser(trialEnd core.Date) Role {
	return Role{Kind: RoleFreeUser, TrialEndDate: &trialEnd}
}

func PlainUser() Role {
	return Role{Kind: RoleUser}
}

// ResolveRole applies the subscriber > free_user > user precedence to the
// specialization rows found for one email.
func ResolveRole(isSubscriber bool, trialEnd *core.Date) Role {
	switch {
	case isSubscriber:
		return Subscriber()
	case trialEnd != nil:
		return FreeUser(*trialEnd)
	default:
		return PlainUser()
	}
}

// NormalizePhone keeps the digits of a phone number and an optional
// leading plus sign.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder

	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", core.Invalidf("phone number %q contains invalid characters", raw)
		}
	}

	out := b.String()
	if n := len(strings.TrimPrefix(out, "+")); n < 3 || n > 20 {
		return "", core.Invalidf("phone number %q must have 3 to 20 digits", raw)
	}
	return out, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
