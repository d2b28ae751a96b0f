package dto

// Pagination is the envelope metadata attached to every list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes envelope metadata from an offset query. Pages are
// 1-based; totalPages is ceil(total/limit).
func NewPagination(total, limit, offset int) Pagination {
	if limit <= 0 {
		limit = 50
	}
	return Pagination{
		Total:      total,
		Page:       offset/limit + 1,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// ListParams defines the shared pagination query parameters.
type ListParams struct {
	Page  int `form:"page,default=1" binding:"omitempty,min=1"`
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

// Offset converts the 1-based page to a row offset.
func (p ListParams) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
