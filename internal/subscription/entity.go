// AngelaMos | 2026
// entity.go

package subscription

import "github.com/carterperez-dev/streamflix/internal/core"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// Term is the length of every subscription, in years.
const Term = 1

type Subscription struct {
	ID        int       `json:"id"        db:"sub_id"`
	StartDate core.Date `json:"startDate" db:"start_date"`
	EndDate   core.Date `json:"endDate"   db:"end_date"`
	Status    Status    `json:"status"    db:"status"`
}

// EndDateFor is start plus one year. Feb 29 maps to Feb 28.
func EndDateFor(start core.Date) core.Date {
	return start.AddYears(Term)
}

// InitialStatus is pending for a future start date and active otherwise.
func InitialStatus(start, today core.Date) Status {
	if start.After(today) {
		return StatusPending
	}
	return StatusActive
}

const NotAvailable = "N/A"

type BillingAddress struct {
	Street  string `json:"street"  db:"street"   validate:"required,max=255"`
	City    string `json:"city"    db:"city"     validate:"required,max=100"`
	State   string `json:"state"   db:"state"    validate:"required,max=100"`
	ZipCode string `json:"zipCode" db:"zip_code" validate:"required,max=10"`
}

// PlaceholderAddress stands in for a subscriber without a billing address.
func PlaceholderAddress() BillingAddress {
	return BillingAddress{
		Street:  NotAvailable,
		City:    NotAvailable,
		State:   NotAvailable,
		ZipCode: "00000",
	}
}

const CardType = "Credit Card"

// PaymentMethod is the masked projection of a stored card.
type PaymentMethod struct {
	Type       string `json:"type"`
	CardNumber string `json:"cardNumber"`
	CardHolder string `json:"cardHolder"`
}

// MaskedPayment projects a stored card. An empty last4 yields the
// placeholder record.
func MaskedPayment(last4, holder string) PaymentMethod {
	if last4 == "" {
		return PaymentMethod{
			Type:       CardType,
			CardNumber: core.PlaceholderCard,
			CardHolder: NotAvailable,
		}
	}
	if holder == "" {
		holder = NotAvailable
	}
	return PaymentMethod{
		Type:       CardType,
		CardNumber: core.MaskCard(last4),
		CardHolder: holder,
	}
}
