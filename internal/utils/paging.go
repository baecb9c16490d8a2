package utils

import "gorm.io/gorm"

// ListFilter is the search box plus pager every listing screen sends.
type ListFilter struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

// Defaults fills in page 1 and five rows per page.
func (f *ListFilter) Defaults() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 5
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
}

// Like wraps the search term for a LIKE clause.
func (f ListFilter) Like() string { return "%" + f.Search + "%" }

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paginate counts q, then fetches the requested page of it into a Page.
// Preloads apply to the fetch only.
func Paginate[T any](q *gorm.DB, f ListFilter, preloads ...string) (*Page[T], error) {
	f.Defaults()

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	fetch := q
	for _, p := range preloads {
		fetch = fetch.Preload(p)
	}
	items := []T{}
	if err := fetch.Offset((f.Page - 1) * f.PerPage).Limit(f.PerPage).Find(&items).Error; err != nil {
		return nil, err
	}

	pages := int(total) / f.PerPage
	if int(total)%f.PerPage > 0 {
		pages++
	}
	return &Page[T]{Items: items, Page: f.Page, PerPage: f.PerPage, Total: total, TotalPages: pages}, nil
}
