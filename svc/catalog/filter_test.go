package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/errs"
)

func nd(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func at(day int) apiclient.Time {
	return apiclient.Time{Time: time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)}
}

func fixtures() []apiclient.Activity {
	return []apiclient.Activity{
		{ID: "snorkel", CategoryID: "sea", Title: "Snorkeling Gili", City: "Lombok", Province: "NTB", Price: nd(300000), PriceDiscount: nd(250000), Rating: 4.5, TotalReviews: 120, CreatedAt: at(3)},
		{ID: "rafting", CategoryID: "river", Title: "Ayung Rafting", City: "Ubud", Province: "Bali", Price: nd(400000), Rating: 4.8, TotalReviews: 40, CreatedAt: at(5)},
		{ID: "temple", CategoryID: "culture", Title: "Temple Tour", Description: "sunset at uluwatu", City: "Badung", Province: "Bali", Rating: 4.8, TotalReviews: 300},
		{ID: "dive", CategoryID: "sea", Title: "Tulamben Dive", City: "Karangasem", Province: "Bali", Price: nd(900000), PriceDiscount: nd(0), Rating: 3.9, TotalReviews: 10, CreatedAt: at(1)},
		{ID: "hike", CategoryID: "mountain", Title: "Rinjani Hike", City: "Lombok", Province: "NTB", Price: nd(1500000), Rating: 5, TotalReviews: 40, CreatedAt: at(4)},
	}
}

func idsOf(data []apiclient.Activity) string {
	ids := make([]string, 0, len(data))
	for _, a := range data {
		ids = append(ids, a.ID)
	}
	return strings.Join(ids, ",")
}

func TestFilterActivities(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"no predicates", Filter{}, "snorkel,rafting,temple,dive,hike"},
		{"category any of", Filter{CategoryIDs: []string{"sea", "river"}}, "snorkel,rafting,dive"},
		{"price range uses discount first", Filter{PriceMin: nd(250000), PriceMax: nd(400000)}, "snorkel,rafting"},
		{"zero discount is a real price", Filter{PriceMax: nd(0)}, "temple,dive"},
		{"min rating inclusive", Filter{MinRating: 4.8}, "rafting,temple,hike"},
		{"query matches city", Filter{Query: "lombok"}, "snorkel,hike"},
		{"query matches description", Filter{Query: "ULUWATU"}, "temple"},
		{"query matches province", Filter{Query: "bali"}, "rafting,temple,dive"},
		{"predicates are ANDed", Filter{CategoryIDs: []string{"sea"}, MinRating: 4, Query: "gili"}, "snorkel"},
		{"nothing matches", Filter{Query: "everest"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := fixtures()
			got := FilterActivities(data, tt.filter)
			if idsOf(got) != tt.want {
				t.Fatalf("FilterActivities() = %q, want %q", idsOf(got), tt.want)
			}
			for _, a := range got {
				if !tt.filter.Match(a) {
					t.Fatalf("%s does not satisfy the filter", a.ID)
				}
			}
			if idsOf(data) != "snorkel,rafting,temple,dive,hike" {
				t.Fatalf("input reordered: %s", idsOf(data))
			}
		})
	}
}

func TestFilterIsSubset(t *testing.T) {
	data := fixtures()
	filters := []Filter{
		{CategoryIDs: []string{"sea"}},
		{PriceMin: nd(100000)},
		{PriceMin: nd(0), PriceMax: nd(1000000), MinRating: 4},
		{Query: "a"},
	}
	for _, f := range filters {
		got := FilterActivities(data, f)
		if len(got) > len(data) {
			t.Fatalf("filtered %d > %d", len(got), len(data))
		}
		for _, a := range got {
			found := false
			for _, d := range data {
				if d.ID == a.ID {
					found = true
				}
			}
			if !found || !f.Match(a) {
				t.Fatalf("%s is not a matching element of the input", a.ID)
			}
		}
	}
}

func TestSortActivities(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  string
	}{
		{SortNone, "snorkel,rafting,temple,dive,hike"},
		{SortPriceAsc, "temple,dive,snorkel,rafting,hike"},
		{SortPriceDesc, "hike,rafting,snorkel,temple,dive"},
		{SortRatingDesc, "hike,temple,rafting,snorkel,dive"},
		{SortNewest, "rafting,hike,snorkel,dive,temple"},
		{SortReviewCountDesc, "temple,snorkel,rafting,hike,dive"},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := SortActivities(fixtures(), tt.order)
			if idsOf(got) != tt.want {
				t.Fatalf("SortActivities(%q) = %q, want %q", tt.order, idsOf(got), tt.want)
			}
		})
	}
}

func TestApplyFiltersThenSorts(t *testing.T) {
	got := Apply(fixtures(), Filter{Query: "bali"}, SortPriceAsc)
	if idsOf(got) != "temple,dive,rafting" {
		t.Fatalf("Apply() = %q", idsOf(got))
	}
}

func TestParseSortOrder(t *testing.T) {
	for _, s := range []string{"", "price-asc", "PRICE-DESC", " newest ", "rating-desc", "review-count-desc"} {
		if _, err := ParseSortOrder(s); err != nil {
			t.Errorf("ParseSortOrder(%q) unexpected error: %v", s, err)
		}
	}
	_, err := ParseSortOrder("cheapest")
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		errorMsg string
	}{
		{"empty", Filter{}, ""},
		{"range", Filter{PriceMin: nd(10), PriceMax: nd(20)}, ""},
		{"negative min", Filter{PriceMin: nd(-1)}, "price_min must be non-negative"},
		{"negative max", Filter{PriceMax: nd(-1)}, "price_max must be non-negative"},
		{"min above max", Filter{PriceMin: nd(30), PriceMax: nd(20)}, "price_min cannot be greater than price_max"},
		{"negative rating", Filter{MinRating: -1}, "rating must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			var e *errs.Error
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			e = err.(*errs.Error)
			if e.Message != tt.errorMsg {
				t.Errorf("Expected error message '%s', got '%s'", tt.errorMsg, e.Message)
			}
		})
	}
}

func TestFilterPromos(t *testing.T) {
	promos := []apiclient.Promo{
		{ID: "a", Title: "Weekend Deal", PromoCode: "WKND", DiscountPercentage: decimal.NewFromInt(10), CreatedAt: at(2)},
		{ID: "b", Title: "Ramadan", Description: "weekend only", PromoCode: "RMD", DiscountPercentage: decimal.NewFromInt(25)},
		{ID: "c", Title: "Flash", PromoCode: "FLASH50", DiscountPercentage: decimal.NewFromInt(50), CreatedAt: at(9)},
	}
	ids := func(ps []apiclient.Promo) string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return strings.Join(out, ",")
	}

	if got := ids(FilterPromos(promos, "weekend", PromoSortNone)); got != "a,b" {
		t.Fatalf("query = %q", got)
	}
	if got := ids(FilterPromos(promos, "flash50", PromoSortNone)); got != "c" {
		t.Fatalf("code query = %q", got)
	}
	if got := ids(FilterPromos(promos, "", PromoSortNewest)); got != "c,a,b" {
		t.Fatalf("newest = %q", got)
	}
	if got := ids(FilterPromos(promos, "", PromoSortDiscountDesc)); got != "c,b,a" {
		t.Fatalf("discount-desc = %q", got)
	}
}
