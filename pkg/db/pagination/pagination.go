// Package pagination carries the shared page/limit query shape and the
// page metadata echoed back on list responses.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination binds the page/limit query parameters of list endpoints.
type Pagination struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps the request to sane bounds. Every list endpoint is
// capped so no request performs an unbounded ledger scan.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}
