package domain

// ID is used across domain entities.
type ID int64

// Page is one page of a paginated backend listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Pagination carries paging params.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Normalize clamps paging params to sane defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset is the zero-based index of the first item of the page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// PageOf slices items into the requested page.
func PageOf[T any](items []T, p Pagination) Page[T] {
	p = p.Normalize()
	out := Page[T]{Items: []T{}, Page: p.Page, PageSize: p.PageSize, Total: len(items)}
	start := p.Offset()
	if start >= len(items) {
		return out
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	out.Items = append(out.Items, items[start:end]...)
	return out
}
