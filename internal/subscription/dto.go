// AngelaMos | 2026
// dto.go

package subscription

import "github.com/carterperez-dev/streamflix/internal/core"

type PaymentMethodInput struct {
	CardNumber string `json:"cardNumber" validate:"required,max=32"`
}

type CreateSubscriptionRequest struct {
	UserEmail      string              `json:"userEmail"      validate:"required,email,max=255"`
	PlanName       string              `json:"planName"       validate:"required,max=50"`
	StartDate      *core.Date          `json:"startDate"      validate:"required"`
	BillingAddress *BillingAddress     `json:"billingAddress"`
	PaymentMethod  *PaymentMethodInput `json:"paymentMethod"`
}

// UpdateSubscriptionRequest edits a subscription. A new start date always
// recomputes the end date.
type UpdateSubscriptionRequest struct {
	StartDate *core.Date `json:"startDate"`
	PlanName  *string    `json:"planName"  validate:"omitempty,max=50"`
	Status    *Status    `json:"status"    validate:"omitempty,oneof=active inactive pending"`
}

type CreateResponse struct {
	SubID     int       `json:"subId"`
	UserEmail string    `json:"userEmail"`
	PlanName  string    `json:"planName"`
	StartDate core.Date `json:"startDate"`
	EndDate   core.Date `json:"endDate"`
	Status    Status    `json:"status"`
}

// View is the denormalized subscription row.
type View struct {
	ID             int            `json:"id"             db:"sub_id"`
	UserEmail      string         `json:"userEmail"      db:"email"`
	PlanName       string         `json:"planName"       db:"plan_name"`
	Status         Status         `json:"status"         db:"status"`
	StartDate      core.Date      `json:"startDate"      db:"start_date"`
	EndDate        core.Date      `json:"endDate"        db:"end_date"`
	MonthlyPrice   float64        `json:"monthlyPrice"   db:"monthly_price"`
	MaxScreens     int            `json:"maxScreens"     db:"max_screens"`
	OwnerName      string         `json:"-"              db:"owner_name"`
	BillingAddress BillingAddress `json:"billingAddress" db:"-"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"  db:"-"`
}
