package catalog

import (
	"fmt"
	"sort"
	"strings"

	errx "github.com/ordena-bot/server/internal/core/error"
)

// UnitSize is the sentinel size for products without a size dimension.
const UnitSize = "unit"

// Catalog is an immutable mapping from item to size to price in the smallest
// currency unit. Keys are case-normalised on construction.
type Catalog struct {
	items map[string]map[string]int
}

// Normalize lowercases and trims a catalog key.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// New builds a catalog from the given price table. Entries with empty keys or
// negative prices are rejected so a bad source cannot silently price at zero.
func New(prices map[string]map[string]int) (*Catalog, error) {
	items := make(map[string]map[string]int, len(prices))
	for item, sizes := range prices {
		item = Normalize(item)
		if item == "" {
			return nil, fmt.Errorf("catalog: empty item name")
		}
		if len(sizes) == 0 {
			return nil, fmt.Errorf("catalog: item %q has no prices", item)
		}
		bySize := make(map[string]int, len(sizes))
		for size, price := range sizes {
			size = Normalize(size)
			if size == "" {
				size = UnitSize
			}
			if price < 0 {
				return nil, fmt.Errorf("catalog: negative price for %s/%s", item, size)
			}
			bySize[size] = price
		}
		items[item] = bySize
	}
	return &Catalog{items: items}, nil
}

// Empty reports whether the catalog has no items. An empty catalog means the
// system refuses to take orders.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.items) == 0
}

// HasItem reports whether the item exists.
func (c *Catalog) HasItem(item string) bool {
	if c == nil {
		return false
	}
	_, ok := c.items[Normalize(item)]
	return ok
}

// HasSize reports whether the item offers the size.
func (c *Catalog) HasSize(item, size string) bool {
	if c == nil {
		return false
	}
	sizes, ok := c.items[Normalize(item)]
	if !ok {
		return false
	}
	_, ok = sizes[Normalize(size)]
	return ok
}

// Price looks up the unit price for item and size. Misses are typed so the
// finalizer can distinguish a vanished item from a vanished size after a
// catalog reload.
func (c *Catalog) Price(item, size string) (int, error) {
	if c == nil {
		return 0, errx.ErrCatalogEmpty
	}
	sizes, ok := c.items[Normalize(item)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errx.ErrUnknownItem, Normalize(item))
	}
	price, ok := sizes[Normalize(size)]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", errx.ErrUnknownSize, Normalize(item), Normalize(size))
	}
	return price, nil
}

// Items returns the item names in sorted order, for prompts and greetings.
func (c *Catalog) Items() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.items))
	for item := range c.items {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Sizes returns the size names offered for an item, in sorted order.
func (c *Catalog) Sizes(item string) []string {
	if c == nil {
		return nil
	}
	sizes, ok := c.items[Normalize(item)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(sizes))
	for size := range sizes {
		out = append(out, size)
	}
	sort.Strings(out)
	return out
}

// String renders the price table one line per item/size, for prompt building.
func (c *Catalog) String() string {
	var b strings.Builder
	for _, item := range c.Items() {
		for _, size := range c.Sizes(item) {
			price := c.items[item][size]
			if size == UnitSize {
				fmt.Fprintf(&b, "%s $%d\n", item, price)
			} else {
				fmt.Fprintf(&b, "%s %s $%d\n", item, size, price)
			}
		}
	}
	return b.String()
}

// DefaultMenu is the built-in price table used when no catalog document is
// configured.
func DefaultMenu() *Catalog {
	c, err := New(map[string]map[string]int{
		"pepperoni": {"small": 20000, "medium": 25000, "large": 30000, "x-large": 35000},
		"hawaiana":  {"small": 20000, "medium": 25000, "large": 30000, "x-large": 35000},
		"bbq pollo": {"small": 22000, "medium": 27000, "large": 32000, "x-large": 37000},
		"margarita": {"small": 18000, "medium": 23000, "large": 28000, "x-large": 33000},
	})
	if err != nil {
		panic(err)
	}
	return c
}
