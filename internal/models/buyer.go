// internal/models/buyer.go
package models

// Buyer is a prospective acquirer looking for a business to buy.
type Buyer struct {
	ID                string   `json:"id"`
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Country           string   `json:"country"`
	State             string   `json:"state"`
	City              string   `json:"city"`
	Industries        []string `json:"industries"`
	BudgetRangeLower  *float64 `json:"budgetRangeLower,omitempty"`
	BudgetRangeHigher *float64 `json:"budgetRangeHigher,omitempty"`
	SizePreference    string   `json:"sizePreference,omitempty"`
	About             string   `json:"about,omitempty"`
	Timeline          *float64 `json:"timeline,omitempty"` // months
}

type SizePreference = string

const (
	SizeSmall       SizePreference = "Small"
	SizeSmallMedium SizePreference = "Small-Medium"
	SizeMedium      SizePreference = "Medium"
	SizeLarge       SizePreference = "Large"
)
