package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/errs"
)

// SortOrder names an activity comparator
type SortOrder string

const (
	SortNone            SortOrder = ""
	SortPriceAsc        SortOrder = "price-asc"
	SortPriceDesc       SortOrder = "price-desc"
	SortRatingDesc      SortOrder = "rating-desc"
	SortNewest          SortOrder = "newest"
	SortReviewCountDesc SortOrder = "review-count-desc"
)

var sortOrders = []SortOrder{SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNewest, SortReviewCountDesc}

// ParseSortOrder accepts the named orders and "" for none
func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	if o == SortNone || slices.Contains(sortOrders, o) {
		return o, nil
	}
	return SortNone, errs.Validation("sort must be one of: price-asc, price-desc, rating-desc, newest, review-count-desc")
}

// Filter selects activities. Zero fields are inactive; active ones are ANDed.
type Filter struct {
	// CategoryIDs matches any of the listed categories; empty matches all
	CategoryIDs []string
	// PriceMin and PriceMax bound the effective price, inclusive
	PriceMin  decimal.NullDecimal
	PriceMax  decimal.NullDecimal
	MinRating float64
	// Query is matched case-insensitively against title, description, city and province
	Query string
}

// Validate checks the price bounds and rating threshold
func (f Filter) Validate() error {
	if f.PriceMin.Valid && f.PriceMin.Decimal.IsNegative() {
		return errs.Validation("price_min must be non-negative")
	}
	if f.PriceMax.Valid && f.PriceMax.Decimal.IsNegative() {
		return errs.Validation("price_max must be non-negative")
	}
	if f.PriceMin.Valid && f.PriceMax.Valid && f.PriceMin.Decimal.GreaterThan(f.PriceMax.Decimal) {
		return errs.Validation("price_min cannot be greater than price_max")
	}
	if f.MinRating < 0 {
		return errs.Validation("rating must be non-negative")
	}
	return nil
}

// Match reports whether a satisfies every active predicate
func (f Filter) Match(a apiclient.Activity) bool {
	if len(f.CategoryIDs) > 0 && !slices.Contains(f.CategoryIDs, a.CategoryID) {
		return false
	}

	p := a.EffectivePrice()
	if f.PriceMin.Valid && p.LessThan(f.PriceMin.Decimal) {
		return false
	}
	if f.PriceMax.Valid && p.GreaterThan(f.PriceMax.Decimal) {
		return false
	}

	if f.MinRating > 0 && a.Rating < f.MinRating {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return containsFold(q, a.Title, a.Description, a.City, a.Province)
	}
	return true
}

func containsFold(q string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FilterActivities returns the activities matching f, in their input order
func FilterActivities(data []apiclient.Activity, f Filter) []apiclient.Activity {
	out := make([]apiclient.Activity, 0, len(data))
	for _, a := range data {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// SortActivities returns a sorted copy. Equal elements keep their order.
func SortActivities(data []apiclient.Activity, order SortOrder) []apiclient.Activity {
	out := slices.Clone(data)
	if out == nil {
		out = []apiclient.Activity{}
	}

	switch order {
	case SortNone:
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b apiclient.Activity) int {
			return a.EffectivePrice().Cmp(b.EffectivePrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b apiclient.Activity) int {
			return b.EffectivePrice().Cmp(a.EffectivePrice())
		})
	case SortRatingDesc:
		slices.SortStableFunc(out, func(a, b apiclient.Activity) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return cmp.Compare(b.TotalReviews, a.TotalReviews)
		})
	case SortNewest:
		slices.SortStableFunc(out, func(a, b apiclient.Activity) int {
			return newestFirst(a.CreatedAt, b.CreatedAt)
		})
	case SortReviewCountDesc:
		slices.SortStableFunc(out, func(a, b apiclient.Activity) int {
			return cmp.Compare(b.TotalReviews, a.TotalReviews)
		})
	}
	return out
}

// newestFirst orders by timestamp descending with zero times last
func newestFirst(a, b apiclient.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return b.Compare(a.Time)
}

// Apply filters then sorts
func Apply(data []apiclient.Activity, f Filter, order SortOrder) []apiclient.Activity {
	return SortActivities(FilterActivities(data, f), order)
}

// PromoOrder names a promo comparator
type PromoOrder string

const (
	PromoSortNone         PromoOrder = ""
	PromoSortNewest       PromoOrder = "newest"
	PromoSortDiscountDesc PromoOrder = "discount-desc"
)

// FilterPromos keeps promos whose title, description or code contain query,
// then sorts them.
func FilterPromos(data []apiclient.Promo, query string, order PromoOrder) []apiclient.Promo {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]apiclient.Promo, 0, len(data))
	for _, p := range data {
		if q == "" || containsFold(q, p.Title, p.Description, p.PromoCode) {
			out = append(out, p)
		}
	}

	switch order {
	case PromoSortNone:
	case PromoSortNewest:
		slices.SortStableFunc(out, func(a, b apiclient.Promo) int {
			return newestFirst(a.CreatedAt, b.CreatedAt)
		})
	case PromoSortDiscountDesc:
		slices.SortStableFunc(out, func(a, b apiclient.Promo) int {
			return b.DiscountPercentage.Cmp(a.DiscountPercentage)
		})
	}
	return out
}
