package recipe

import (
	"fmt"
	"strings"

	"github.com/kdatlt/foodgram/domain"
)

// RenderShoppingList formats the list as plain text, one "name (unit) - amount" line per item.
func RenderShoppingList(items []domain.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return b.String()
}
