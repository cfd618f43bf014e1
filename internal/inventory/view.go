package inventory

import (
	"strings"
	"time"
)

// DeriveStatus maps stock on hand against the reorder level.
func DeriveStatus(quantity, reorderLevel int) string {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < reorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// Search keeps products whose name and manufacturer contain the query text and whose
// supply type equals the selected one. Blank criteria match everything.
func Search(list []Product, q Query) []Product {
	out := make([]Product, 0, len(list))
	for _, p := range list {
		if q.Name != "" && !containsFold(p.Name, q.Name) {
			continue
		}
		if q.Manufacturer != "" && !containsFold(p.Manufacturer, q.Manufacturer) {
			continue
		}
		if st := strings.TrimSpace(q.SupplyType); st != "" && !strings.EqualFold(p.SupplyType, st) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func expiringWithin(p Product, now time.Time, window time.Duration) bool {
	return !p.ExpirationDate.IsZero() && p.ExpirationDate.Before(now.Add(window))
}

// Summarize feeds the inventory dashboard cards. Expired products count as expiring.
func Summarize(list []Product, now time.Time, window time.Duration) Summary {
	var s Summary
	for _, p := range list {
		s.TotalUnits += p.Quantity
		switch {
		case p.Quantity == 0:
			s.OutOfStock++
		case p.Quantity < p.ReorderLevel:
			s.LowStock++
		}
		if expiringWithin(p, now, window) {
			s.Expiring++
		}
	}
	return s
}
