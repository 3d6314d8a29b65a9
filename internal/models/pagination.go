package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalRecords int  `json:"totalRecords"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
	Limit        int  `json:"limit"`
}

// NewPagination derives the full pagination block from page, limit and the
// total record count. TotalPages is never below 1.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return &Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
		Limit:        limit,
	}
}
