package types

import (
	"strings"
	"time"
)

// Filter - параметры списка: поиск, сортировка, фильтры, пагинация.
//
//	/api/job-orders?search=acme&sort=-scheduled_date&filter[status]=for proposal,successful&filter[date_from]=2024-01-01&page=2&limit=50
type Filter struct {
	Search   string            `json:"search,omitempty"`
	Sort     string            `json:"sort,omitempty"`
	Filter   map[string]string `json:"filter,omitempty"`
	Archived bool              `json:"archived"`
	Limit    uint64            `json:"limit"`
	Offset   uint64            `json:"offset"`
	Page     uint64            `json:"page"`
}

// Values разбивает значение фильтра по запятой, пустые элементы отбрасываются.
func (f Filter) Values(key string) []string {
	raw, ok := f.Filter[key]
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (f Filter) Value(key string) string {
	return strings.TrimSpace(f.Filter[key])
}

// Date разбирает значение фильтра как дату YYYY-MM-DD. Пустое значение - nil.
func (f Filter) Date(key string) (*time.Time, error) {
	raw := f.Value(key)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const DateLayout = "2006-01-02"

// Pagination - метаданные страницы в ответе списка.
type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages uint64 `json:"total_pages"`
	Page       uint64 `json:"page"`
	Limit      uint64 `json:"limit"`
}

func NewPagination(total, page, limit uint64) Pagination {
	p := Pagination{TotalCount: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}
