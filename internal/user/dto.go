// AngelaMos | 2026
// dto.go

package user

import (
	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type CreateUserRequest struct {
	Email        string     `json:"email"        validate:"required,email,max=255"`
	FirstName    string     `json:"firstName"    validate:"required,min=1,max=100"`
	MiddleName   *string    `json:"middleName"   validate:"omitempty,max=100"`
	LastName     string     `json:"lastName"     validate:"required,min=1,max=100"`
	BirthDate    *core.Date `json:"birthDate"`
	SignUpDate   *core.Date `json:"signUpDate"`
	UserType     RoleKind   `json:"userType"     validate:"omitempty,oneof=free_user subscriber"`
	PhoneNumber  *string    `json:"phoneNumber"  validate:"omitempty,max=32"`
	TrialEndDate *core.Date `json:"trialEndDate"`
}

// UpdateUserRequest replaces only the fields present in the payload.
// Optional fields may be sent as null to clear them.
type UpdateUserRequest struct {
	FirstName   *string                  `json:"firstName"   validate:"omitempty,min=1,max=100"`
	MiddleName  core.Optional[string]    `json:"middleName"`
	LastName    *string                  `json:"lastName"    validate:"omitempty,min=1,max=100"`
	BirthDate   core.Optional[core.Date] `json:"birthDate"`
	PhoneNumber core.Optional[string]    `json:"phoneNumber"`
}

type ChangeRoleRequest struct {
	UserType     RoleKind   `json:"userType"     validate:"required,oneof=subscriber free_user user"`
	TrialEndDate *core.Date `json:"trialEndDate"`
}

// View is the denormalized user row returned by the list endpoint.
type View struct {
	Email        string     `json:"email"                  db:"email"`
	FirstName    string     `json:"firstName"              db:"first_name"`
	MiddleName   *string    `json:"middleName"             db:"middle_name"`
	LastName     string     `json:"lastName"               db:"last_name"`
	BirthDate    *core.Date `json:"birthDate"              db:"birth_date"`
	SignUpDate   core.Date  `json:"signUpDate"             db:"sign_up_date"`
	UserType     RoleKind   `json:"userType"               db:"user_type"`
	TrialEndDate *core.Date `json:"trialEndDate,omitempty" db:"trial_end_date"`
	PhoneNumbers []string   `json:"phoneNumbers"           db:"-"`
}

type DeleteResponse struct {
	Email       string        `json:"email"`
	Deleted     bool          `json:"deleted"`
	RowsDeleted schema.Result `json:"rowsDeleted"`
}

func NewView(u *User, role Role, phones []string) View {
	if phones == nil {
		phones = []string{}
	}
	return View{
		Email:        u.Email,
		FirstName:    u.FirstName,
		MiddleName:   u.MiddleName,
		LastName:     u.LastName,
		BirthDate:    u.BirthDate,
		SignUpDate:   u.SignUpDate,
		UserType:     role.Kind,
		TrialEndDate: role.TrialEndDate,
		PhoneNumbers: phones,
	}
}
