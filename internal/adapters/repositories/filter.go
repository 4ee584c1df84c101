package repositories

import (
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"strings"
)

// NormalizeFilter applies listing defaults and rejects out-of-range values.
// Every adapter runs it so storage technologies agree on paging and ordering.
func NormalizeFilter(f ports.ParcelFilter) (ports.ParcelFilter, error) {
	if f.Limit == 0 {
		f.Limit = ports.DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > ports.MaxListLimit {
		return f, &domain.ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}
	if f.Offset < 0 {
		return f, &domain.ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	f.OrderBy = strings.TrimSpace(f.OrderBy)
	if f.OrderBy == "" {
		f.OrderBy = "id"
	}
	column, _ := orderKey(f.OrderBy)
	if _, ok := orderColumns[column]; !ok {
		return f, &domain.ValidationError{Field: "order_by", Reason: "unsupported sort key " + column}
	}

	return f, nil
}

func orderKey(orderBy string) (column string, desc bool) {
	if strings.HasPrefix(orderBy, "-") {
		return orderBy[1:], true
	}
	return orderBy, false
}
