package service

import (
	"strings"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/internal/validation"
)

// sortField maps a public sort key onto a column.
type sortField struct {
	key    string
	column string
}

var (
	namedSortFields   = []sortField{{"id", "id"}, {"name", "name"}, {"createdAt", "created_at"}}
	productSortFields = []sortField{{"id", "id"}, {"name", "name"}, {"price", "price"}, {"createdAt", "created_at"}}
	orderSortFields   = []sortField{{"id", "id"}, {"amount", "amount"}, {"moment", "moment"}}
)

type pageRequest struct {
	page, size    int
	offset, limit int
	sort          repo.Sort
}

func parsePage(q transport.PageQuery, fields []sortField) (pageRequest, error) {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	if msgs := validation.PageQuery(q, keys...); len(msgs) > 0 {
		return pageRequest{}, apperr.Validation(msgs...)
	}

	offset, limit := util.Calculate(q.Page, q.Size)
	pr := pageRequest{
		page:   offset/limit + 1,
		size:   limit,
		offset: offset,
		limit:  limit,
		sort:   repo.Sort{Column: "id", Desc: strings.EqualFold(q.Order, "desc")},
	}
	for _, f := range fields {
		if f.key == q.Sort {
			pr.sort.Column = f.column
		}
	}
	return pr, nil
}

func newPage[T any](pr pageRequest, total int64, data []T) *transport.Page[T] {
	if data == nil {
		data = []T{}
	}
	return &transport.Page[T]{
		Data:          data,
		TotalItems:    total,
		NumberOfItems: len(data),
		CurrentPage:   pr.page,
		TotalPages:    util.TotalPages(total, pr.size),
	}
}
