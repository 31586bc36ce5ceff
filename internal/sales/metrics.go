// ABOUTME: Pure KPI reductions over sales: revenue, average order value, top products
// ABOUTME: Also grouped sums and value counts that feed the dashboard charts

package sales

import (
	"sort"
	"strconv"
)

// Group is a key with the summed total price of its sales.
type Group struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// Count is a key with the number of sales carrying it.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Key functions for SumBy and CountBy.
var (
	ProductKey  = func(s Sale) string { return s.Product }
	CategoryKey = func(s Sale) string { return s.Category }
	RegionKey   = func(s Sale) string { return s.Region }
	DateKey     = func(s Sale) string { return s.Date.Format("2006-01-02") }
	AgeKey      = func(s Sale) string { return strconv.Itoa(s.CustomerAge) }
	GenderKey   = func(s Sale) string { return s.CustomerGender }
)

// TotalRevenue is the sum of every sale's total price.
func TotalRevenue(sales []Sale) float64 {
	var total float64
	for _, s := range sales {
		total += s.TotalPrice
	}
	return total
}

// AverageOrderValue is the mean total price, or 0 when there are no sales.
func AverageOrderValue(sales []Sale) float64 {
	if len(sales) == 0 {
		return 0
	}
	return TotalRevenue(sales) / float64(len(sales))
}

// SumBy sums total price per key. Groups are ordered by key.
func SumBy(sales []Sale, key func(Sale) string) []Group {
	totals := make(map[string]float64)
	for _, s := range sales {
		totals[key(s)] += s.TotalPrice
	}

	groups := make([]Group, 0, len(totals))
	for k, v := range totals {
		groups = append(groups, Group{Key: k, Total: v})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// TopProducts returns the n products with the highest revenue, highest first.
// Equal totals are ordered by product name. n <= 0 returns every product.
func TopProducts(sales []Sale, n int) []Group {
	groups := SumBy(sales, ProductKey)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })
	if n > 0 && n < len(groups) {
		groups = groups[:n]
	}
	return groups
}

// SalesByCategory sums revenue per category.
func SalesByCategory(sales []Sale) []Group {
	return SumBy(sales, CategoryKey)
}

// SalesOverTime sums revenue per day in chronological order.
func SalesOverTime(sales []Sale) []Group {
	return SumBy(sales, DateKey)
}

// CountBy counts sales per key, most frequent first. Ties are ordered by key.
func CountBy(sales []Sale, key func(Sale) string) []Count {
	counts := make(map[string]int)
	for _, s := range sales {
		counts[key(s)]++
	}

	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Regions returns the distinct regions in sorted order.
func Regions(sales []Sale) []string {
	seen := make(map[string]struct{})
	for _, s := range sales {
		seen[s.Region] = struct{}{}
	}

	regions := make([]string, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// FilterRegion returns the sales made in region.
func FilterRegion(sales []Sale, region string) []Sale {
	var out []Sale
	for _, s := range sales {
		if s.Region == region {
			out = append(out, s)
		}
	}
	return out
}
