// Package listing derives the visible page of an ad collection: filter,
// optional sort by creation time, then a fixed-size page window. Everything
// here is a pure function of its arguments.
package listing

import (
	"slices"
	"strconv"
	"strings"

	"classifieds/internal/domain"

	"golang.org/x/text/cases"
)

// Known service subtypes offered by the filter.
const (
	ServiceManicure    = "Маникюр, педикюр"
	ServiceHairdresser = "Услуги парикмахера"
	ServiceLashesBrows = "Ресницы, брови"
	ServiceMassage     = "Массаж"
	ServiceCosmetology = "Косметология"
	ServiceEpilation   = "Эпиляция"
	ServiceMakeup      = "Макияж"
	ServiceOther       = "Другое"
)

var ServiceSubtypes = []string{
	ServiceManicure,
	ServiceHairdresser,
	ServiceLashesBrows,
	ServiceMassage,
	ServiceCosmetology,
	ServiceEpilation,
	ServiceMakeup,
	ServiceOther,
}

const (
	DefaultPageSize = 5
	DefaultMinPrice = 0
	DefaultMaxPrice = 10000
)

type SortOrder int

const (
	SortNone SortOrder = iota
	SortNewest
	SortOldest
)

// Toggle flips between newest and oldest first. An unsorted view becomes
// newest first.
func (o SortOrder) Toggle() SortOrder {
	if o == SortNewest {
		return SortOldest
	}
	return SortNewest
}

func (o SortOrder) String() string {
	switch o {
	case SortNewest:
		return "newest"
	case SortOldest:
		return "oldest"
	}
	return "none"
}

// ParseSortOrder accepts "newest", "oldest" or "" / "none".
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, true
	case "newest", "desc":
		return SortNewest, true
	case "oldest", "asc":
		return SortOldest, true
	}
	return SortNone, false
}

// Filter is the predicate part of a query. A nil price bound is unbounded;
// bounds only apply when PriceLimit is set.
type Filter struct {
	Search         string
	Category       domain.Category
	ServiceSubtype string
	PriceLimit     bool
	MinPrice       *float64
	MaxPrice       *float64
}

func bound(v float64) *float64 { return &v }

// DefaultFilter matches everything; its price window is [0, 10000] but the
// limit is off.
func DefaultFilter() Filter {
	return Filter{
		MinPrice: bound(DefaultMinPrice),
		MaxPrice: bound(DefaultMaxPrice),
	}
}

// Reset returns the default filter with the price limit switched on.
func Reset() Filter {
	f := DefaultFilter()
	f.PriceLimit = true
	return f
}

// ParseBound reads a price bound as typed by a user. An empty string is
// unbounded.
func ParseBound(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Match reports whether ad passes every active condition of f.
func (f Filter) Match(ad *domain.Ad) bool {
	if f.Search != "" {
		fold := cases.Fold()
		if !strings.Contains(fold.String(ad.Name), fold.String(f.Search)) {
			return false
		}
	}
	if f.Category != "" && ad.Type != f.Category {
		return false
	}
	if f.ServiceSubtype != "" && ad.ServiceSubtype() != f.ServiceSubtype {
		return false
	}
	if f.PriceLimit {
		if f.MinPrice != nil && ad.Price < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && ad.Price > *f.MaxPrice {
			return false
		}
	}
	return true
}

type Query struct {
	Filter   Filter
	Sort     SortOrder
	Page     int
	PageSize int
}

func DefaultQuery() Query {
	return Query{Filter: DefaultFilter(), Page: 1, PageSize: DefaultPageSize}
}

type Result struct {
	Ads        []*domain.Ad
	Total      int
	Matched    int
	Page       int
	PageSize   int
	TotalPages int
	Pages      []int
}

// Apply runs q over ads. The input slice is not modified.
func Apply(ads []*domain.Ad, q Query) Result {
	matched := make([]*domain.Ad, 0, len(ads))
	for _, ad := range ads {
		if ad != nil && q.Filter.Match(ad) {
			matched = append(matched, ad)
		}
	}

	switch q.Sort {
	case SortNewest:
		slices.SortStableFunc(matched, func(a, b *domain.Ad) int { return b.CreatedAt.Compare(a.CreatedAt) })
	case SortOldest:
		slices.SortStableFunc(matched, func(a, b *domain.Ad) int { return a.CreatedAt.Compare(b.CreatedAt) })
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := max(q.Page, 1)

	totalPages := (len(matched) + size - 1) / size
	pages := make([]int, totalPages)
	for i := range pages {
		pages[i] = i + 1
	}

	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))

	return Result{
		Ads:        matched[start:end],
		Total:      len(ads),
		Matched:    len(matched),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Pages:      pages,
	}
}
