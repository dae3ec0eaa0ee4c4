package catalog

import (
	"strings"

	"github.com/padelhub/storefront/pkg/model"
)

// Filter keeps rows whose name, brand or code contains query (case-insensitive)
// and whose category equals category. An empty query matches everything and
// the category filter is off for "" and "all". Order is preserved.
func Filter(rows []Row, query, category string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	cat := model.Category(strings.ToLower(strings.TrimSpace(category)))
	allCategories := cat == "" || cat == model.CategoryAll

	if q == "" && allCategories {
		return rows
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !allCategories && r.Product.Category != cat {
			continue
		}
		if q != "" && !matches(r.Product, q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(p model.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Brand), q) ||
		strings.Contains(strings.ToLower(p.Code), q)
}
