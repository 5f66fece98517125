package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idilsaglam/cart/internal/model"
)

// ErrMalformed wraps any stored blob that cannot be read back as a cart.
var ErrMalformed = errors.New("cart: malformed stored cart")

// Encode renders items as compact JSON. A nil slice encodes as [].
func Encode(items []model.LineItem) (string, error) {
	if items == nil {
		items = []model.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored blob. It must be a JSON array (or null) of line
// items, each with a non-empty id.
func Decode(text string) ([]model.LineItem, error) {
	var items []model.LineItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrMalformed, i)
		}
	}
	if items == nil {
		items = []model.LineItem{}
	}
	return items, nil
}
