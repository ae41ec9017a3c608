package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lead kinds accepted by the storefront forms.
const (
	LeadInquiry   = "inquiry"
	LeadFinancing = "financing"
	LeadTradeIn   = "trade_in"
	LeadContact   = "contact"
)

// Lead is a prospective-customer submission. Only the fields relevant to
// Kind are populated.
type Lead struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind" validate:"required,oneof=inquiry financing trade_in contact"`
	Name      string     `json:"name" validate:"required,max=200"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Phone     string     `json:"phone,omitempty" validate:"omitempty,phone"`
	Message   string     `json:"message,omitempty" validate:"max=5000"`
	VehicleID *int64     `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	Subject   string     `json:"subject,omitempty" validate:"max=200"`
	Financing *Financing `json:"financing,omitempty"`
	TradeIn   *TradeIn   `json:"trade_in,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Financing carries a credit pre-qualification request.
type Financing struct {
	EmploymentStatus string          `json:"employment_status" validate:"required,max=50"`
	AnnualIncome     decimal.Decimal `json:"annual_income"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	CreditRating     string          `json:"credit_rating,omitempty" validate:"omitempty,oneof=excellent good fair poor"`
}

// TradeIn describes the shopper's current vehicle.
type TradeIn struct {
	Year      int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Brand     string `json:"brand" validate:"required,max=100"`
	Model     string `json:"model" validate:"required,max=100"`
	Mileage   int    `json:"mileage" validate:"gte=0"`
	Condition string `json:"condition,omitempty" validate:"omitempty,oneof=excellent good fair poor"`
}

// Title returns the trade-in display name.
func (t *TradeIn) Title() string {
	return vehicleTitle(t.Year, t.Brand, t.Model)
}
