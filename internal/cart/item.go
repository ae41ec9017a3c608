package cart

import (
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

// VehicleSnapshot is the copy of a vehicle's display fields captured when it
// was added. It is not refreshed if the catalog later changes.
type VehicleSnapshot struct {
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Year      int             `json:"year"`
	Price     decimal.Decimal `json:"price"`
	Mileage   int             `json:"mileage"`
	BodyStyle string          `json:"body_style"`
	Available bool            `json:"available"`
	Images    []string        `json:"images"`
}

// Snapshot captures the display fields of v.
func Snapshot(v *domain.Vehicle) VehicleSnapshot {
	return VehicleSnapshot{
		Brand:     v.Brand,
		Model:     v.Model,
		Year:      v.Year,
		Price:     v.Price,
		Mileage:   v.Mileage,
		BodyStyle: v.BodyStyle,
		Available: v.Available,
		Images:    append([]string(nil), v.Images...),
	}
}

// LineItem is one vehicle in the cart.
type LineItem struct {
	VehicleID int64           `json:"vehicle_id"`
	Quantity  int             `json:"quantity"`
	Vehicle   VehicleSnapshot `json:"vehicle"`
}

// Subtotal returns the snapshot price times the quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Vehicle.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	li.Vehicle.Images = append([]string(nil), li.Vehicle.Images...)
	return li
}
