package usecase

import "github.com/ticketcheck/backend/internal/domain"

// AggregateItems merges items sharing (size, colorCode, style) by summing
// their quantities. The first occurrence supplies the remaining fields and
// output order follows first occurrence.
func AggregateItems(items []domain.LineItem) []domain.LineItem {
	index := make(map[domain.ItemKey]int, len(items))
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if i, ok := index[key]; ok {
			out[i].Quantity = out[i].Quantity.Add(item.Quantity)
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}
