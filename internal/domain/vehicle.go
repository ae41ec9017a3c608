package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is a car listed in the dealership catalog.
type Vehicle struct {
	ID           int64           `json:"id"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Price        decimal.Decimal `json:"price"`
	Mileage      int             `json:"mileage"`
	BodyStyle    string          `json:"body_style"`
	Available    bool            `json:"available"`
	Images       []string        `json:"images"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	Fuel         string          `json:"fuel,omitempty"`
	Transmission string          `json:"transmission,omitempty"`
	Color        string          `json:"color,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Title returns the display name used in emails and listings, e.g.
// "2019 Toyota Camry".
func (v *Vehicle) Title() string {
	return vehicleTitle(v.Year, v.Brand, v.Model)
}

// VehicleFilter narrows a catalog listing. Nil fields are not applied.
type VehicleFilter struct {
	Brand         *string
	BodyStyle     *string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	AvailableOnly bool
	Page          int
	PerPage       int
}
