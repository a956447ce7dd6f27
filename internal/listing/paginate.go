package listing

// Page is one visible slice of a filtered collection.
type Page[T any] struct {
	Items      []T
	Number     int // 1-based, clamped into [1, TotalPages]
	TotalPages int
	TotalItems int
}

// Paginate slices items into fixed-size pages. A page outside the valid
// range is clamped, never an error; an empty collection yields page 1 of 1
// with no rows.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(items)
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: pages,
		TotalItems: total,
	}
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
