// internal/matching/rubric.go
package matching

import (
	"math"
	"strings"
	"unicode/utf8"

	"dealmatch-workers/internal/models"
)

// Point budget per criterion. The maximum attainable total is 100.
const (
	CountryPoints       = 3
	StatePoints         = 7
	CityPoints          = 10
	IndustryPoints      = 15
	BudgetPoints        = 30
	EmployeeSizePoints  = 7
	RevenueSizePoints   = 8
	KeywordPointsEach   = 2
	KeywordPointsMax    = 10
	TimelinePointsExact = 10

	// Threshold is the minimum total a candidate needs to be returned.
	Threshold = 75

	minKeywordLength = 4
)

type sizeBucket struct {
	employees      int
	monthlyRevenue float64
}

// sizeBuckets maps a size preference to representative figures. They are compared
// with exact equality against the listing's actual headcount and revenue.
var sizeBuckets = map[string]sizeBucket{
	models.SizeSmall:       {employees: 20, monthlyRevenue: 15000},
	models.SizeSmallMedium: {employees: 50, monthlyRevenue: 40000},
	models.SizeMedium:      {employees: 200, monthlyRevenue: 150000},
	models.SizeLarge:       {employees: math.MaxInt, monthlyRevenue: 100000000},
}

// Breakdown holds the points awarded per criterion for one buyer/listing pair.
type Breakdown struct {
	Country  int `json:"country"`
	State    int `json:"state"`
	City     int `json:"city"`
	Industry int `json:"industry"`
	Budget   int `json:"budget"`
	Size     int `json:"size"`
	Keywords int `json:"keywords"`
	Timeline int `json:"timeline"`
	Total    int `json:"total"`
}

// IsMatch reports whether the pair clears the threshold.
func (b Breakdown) IsMatch() bool {
	return b.Total >= Threshold
}

// Reasons lists the criteria that contributed points, strongest first by rubric order.
func (b Breakdown) Reasons() []string {
	var out []string
	if b.Budget > 0 {
		out = append(out, "budget overlaps asking price")
	}
	if b.Industry > 0 {
		out = append(out, "industry match")
	}
	if b.City > 0 {
		out = append(out, "same city")
	}
	if b.State > 0 {
		out = append(out, "same state")
	}
	if b.Country > 0 {
		out = append(out, "same country")
	}
	if b.Size > 0 {
		out = append(out, "size preference")
	}
	if b.Keywords > 0 {
		out = append(out, "shared keywords")
	}
	if b.Timeline > 0 {
		out = append(out, "compatible timeline")
	}
	return out
}

// Score applies the rubric to one pair. It is the only place the rubric lives; both
// match directions call it with the buyer and listing in the same argument slots.
func Score(buyer models.Buyer, listing models.Listing) Breakdown {
	var b Breakdown

	if sameText(buyer.Country, listing.Country) {
		b.Country = CountryPoints
	}
	if sameText(buyer.State, listing.State) {
		b.State = StatePoints
	}
	if sameText(buyer.City, listing.City) {
		b.City = CityPoints
	}
	if hasIndustry(buyer.Industries, listing.Industry) {
		b.Industry = IndustryPoints
	}

	b.Budget = budgetScore(buyer.BudgetRangeLower, buyer.BudgetRangeHigher,
		listing.AskingPriceLowerBound, listing.AskingPriceUpperBound)
	b.Size = sizeScore(buyer.SizePreference, listing.Employees, listing.MonthlyRevenue)
	b.Keywords = keywordScore(buyer.About, listing.Description)
	b.Timeline = timelineScore(buyer.Timeline, listing.Timeline)

	b.Total = b.Country + b.State + b.City + b.Industry + b.Budget + b.Size + b.Keywords + b.Timeline
	return b
}

func sameText(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}

func hasIndustry(industries []string, industry string) bool {
	if industry == "" {
		return false
	}
	for _, in := range industries {
		if strings.EqualFold(in, industry) {
			return true
		}
	}
	return false
}

func budgetScore(buyerLower, buyerHigher, listingLower, listingHigher *float64) int {
	if buyerLower == nil || buyerHigher == nil || listingLower == nil || listingHigher == nil {
		return 0
	}

	overlapStart := math.Max(*buyerLower, *listingLower)
	overlapEnd := math.Min(*buyerHigher, *listingHigher)
	if overlapStart > overlapEnd {
		return 0
	}

	overlapSize := overlapEnd - overlapStart
	avgRange := ((*buyerHigher - *buyerLower) + (*listingHigher - *listingLower)) / 2

	pct := 1.0
	if avgRange > 0 {
		pct = math.Min(overlapSize/avgRange, 1)
	}
	return int(math.Floor(BudgetPoints * pct))
}

// sizeScore treats zero employees or zero revenue as absent.
func sizeScore(preference string, employees *int, monthlyRevenue *float64) int {
	if preference == "" || employees == nil || *employees == 0 {
		return 0
	}
	bucket, ok := sizeBuckets[preference]
	if !ok {
		return 0
	}

	points := 0
	if *employees == bucket.employees {
		points += EmployeeSizePoints
	}
	if monthlyRevenue != nil && *monthlyRevenue != 0 && *monthlyRevenue == bucket.monthlyRevenue {
		points += RevenueSizePoints
	}
	return points
}

// keywordScore reads the buyer's about text against the listing description,
// whichever side the match was requested for.
func keywordScore(about, description string) int {
	if about == "" || description == "" {
		return 0
	}
	haystack := strings.ToLower(description)

	found := 0
	for _, token := range strings.Fields(about) {
		if utf8.RuneCountInString(token) < minKeywordLength {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(token)) {
			found++
		}
	}
	return min(found*KeywordPointsEach, KeywordPointsMax)
}

func timelineScore(buyerTimeline, listingTimeline *float64) int {
	if buyerTimeline == nil || listingTimeline == nil {
		return 0
	}
	d := math.Abs(*buyerTimeline - *listingTimeline)
	switch {
	case d == 0:
		return TimelinePointsExact
	case d <= 1:
		return 7
	case d <= 3:
		return 4
	case d <= 6:
		return 2
	default:
		return 0
	}
}
