package catalog

// DefaultPageSize is the number of rows per catalog page.
const DefaultPageSize = 50

// Page is one slice of a filtered catalog.
type Page struct {
	Rows       []Row
	Page       int
	PageSize   int
	TotalRows  int
	TotalPages int
}

// Paginate returns the requested page. The page number is clamped into
// [1, max(1, TotalPages)], so an empty list yields page 1 with no rows.
func Paginate(rows []Row, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize

	last := totalPages
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Rows:       rows[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  total,
		TotalPages: totalPages,
	}
}
