// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeBuyerProfile   QueryType = "buyer_profile"
	QueryTypeListingDetails QueryType = "listing_details"
	QueryTypeActiveListings QueryType = "active_listings"
	QueryTypeActiveBuyers   QueryType = "active_buyers"
)
