// internal/models/listing.go
package models

// Listing is a business offered for sale.
type Listing struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title,omitempty"`
	SellerID              string   `json:"sellerId,omitempty"`
	Country               string   `json:"country"`
	State                 string   `json:"state"`
	City                  string   `json:"city"`
	Industry              string   `json:"industry"`
	AskingPriceLowerBound *float64 `json:"askingPriceLowerBound,omitempty"`
	AskingPriceUpperBound *float64 `json:"askingPriceUpperBound,omitempty"`
	Employees             *int     `json:"employees,omitempty"`
	MonthlyRevenue        *float64 `json:"monthlyRevenue,omitempty"`
	Description           string   `json:"description,omitempty"`
	Timeline              *float64 `json:"timeline,omitempty"` // months
	UpdatedAt             string   `json:"updatedAt,omitempty"`
}
