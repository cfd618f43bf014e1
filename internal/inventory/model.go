package inventory

import "time"

const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

const (
	SupplyMedical    = "Medical Supply"
	SupplyMedication = "Medication"
)

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Manufacturer   string    `json:"manufacturer"`
	SupplyType     string    `json:"supply_type"`
	Unit           string    `json:"unit"`
	Quantity       int       `json:"quantity"`
	ReorderLevel   int       `json:"reorder_level"`
	CostPerUnit    float64   `json:"cost_per_unit"`
	ExpirationDate time.Time `json:"expiration_date"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Input is the add-product form. Numeric fields are pointers so a missing
// value can be told apart from zero.
type Input struct {
	Name           string   `json:"name"`
	Manufacturer   string   `json:"manufacturer"`
	SupplyType     string   `json:"supply_type"`
	Unit           string   `json:"unit"`
	Quantity       *int     `json:"quantity"`
	ReorderLevel   *int     `json:"reorder_level"`
	CostPerUnit    *float64 `json:"cost_per_unit"`
	ExpirationDate string   `json:"expiration_date"`
	Status         string   `json:"status"`
}

type Patch struct {
	Name           *string  `json:"name,omitempty"`
	Manufacturer   *string  `json:"manufacturer,omitempty"`
	SupplyType     *string  `json:"supply_type,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	Quantity       *int     `json:"quantity,omitempty"`
	ReorderLevel   *int     `json:"reorder_level,omitempty"`
	CostPerUnit    *float64 `json:"cost_per_unit,omitempty"`
	ExpirationDate *string  `json:"expiration_date,omitempty"`
	Status         *string  `json:"status,omitempty"`
}

type Query struct {
	Name         string
	Manufacturer string
	SupplyType   string
}

type Summary struct {
	TotalUnits int `json:"total_units"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
	Expiring   int `json:"expiring"`
}

// RefreshReport describes one RefreshStatuses pass.
type RefreshReport struct {
	Checked  int      `json:"checked"`
	Updated  int      `json:"updated"`
	Expiring []string `json:"expiring"`
}
