// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "dealmatch-workers/internal/models"

type Input struct {
	QueryType string `json:"queryType"`
	BuyerID   string `json:"buyerId,omitempty"`
	ListingID string `json:"listingId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeBuyerProfile   = models.QueryTypeBuyerProfile
	QueryTypeListingDetails = models.QueryTypeListingDetails
	QueryTypeActiveListings = models.QueryTypeActiveListings
	QueryTypeActiveBuyers   = models.QueryTypeActiveBuyers
)
