package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("menu item not found")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrNameRequired    = errors.New("name is required")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrUnknownCategory = errors.New("unknown category")
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is immutable reference data; the order flow copies it, never mutates it.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image,omitempty"`
}

type ListFilter struct {
	Category string
	Query    string
}

// Catalog is read-only after NewCatalog returns and safe for concurrent use.
type Catalog struct {
	categories []Category
	items      []Item
	byID       map[string]int
}

func NewCatalog(categories []Category, items []Item) (*Catalog, error) {
	catIDs := make(map[string]bool, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category[%d]: %w", i, ErrNameRequired)
		}
		if catIDs[c.ID] {
			return nil, fmt.Errorf("category[%d] %q: %w", i, c.ID, ErrDuplicateID)
		}
		catIDs[c.ID] = true
	}

	byID := make(map[string]int, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrNameRequired)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("item[%d] %q: %w", i, it.ID, ErrNegativePrice)
		}
		if !catIDs[it.Category] {
			return nil, fmt.Errorf("item[%d] %q: %w %q", i, it.ID, ErrUnknownCategory, it.Category)
		}
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("item[%d] %q: %w", i, it.ID, ErrDuplicateID)
		}
		byID[it.ID] = i
	}

	return &Catalog{
		categories: append([]Category(nil), categories...),
		items:      append([]Item(nil), items...),
		byID:       byID,
	}, nil
}

func (c *Catalog) Get(id string) (Item, error) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return c.items[i], nil
}

// List returns items matching the filter in catalog order.
func (c *Catalog) List(f ListFilter) []Item {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultCatalog is the built-in seed menu.
func DefaultCatalog() *Catalog {
	categories := []Category{
		{ID: "pizza", Name: "Pizza"},
		{ID: "burgers", Name: "Burgers"},
		{ID: "pasta", Name: "Pasta"},
		{ID: "salads", Name: "Salads"},
		{ID: "drinks", Name: "Drinks"},
		{ID: "desserts", Name: "Desserts"},
	}
	items := []Item{
		{ID: "1", Name: "Margherita Pizza", Price: price("12.99"), Category: "pizza", Image: "/images/margherita.jpg"},
		{ID: "2", Name: "Pepperoni Pizza", Price: price("14.99"), Category: "pizza", Image: "/images/pepperoni.jpg"},
		{ID: "3", Name: "Classic Burger", Price: price("10.99"), Category: "burgers", Image: "/images/burger.jpg"},
		{ID: "4", Name: "Cheese Burger", Price: price("11.99"), Category: "burgers", Image: "/images/cheeseburger.jpg"},
		{ID: "5", Name: "Spaghetti Carbonara", Price: price("13.50"), Category: "pasta", Image: "/images/carbonara.jpg"},
		{ID: "6", Name: "Penne Arrabbiata", Price: price("12.50"), Category: "pasta", Image: "/images/arrabbiata.jpg"},
		{ID: "7", Name: "Caesar Salad", Price: price("8.99"), Category: "salads", Image: "/images/caesar.jpg"},
		{ID: "8", Name: "Greek Salad", Price: price("9.49"), Category: "salads", Image: "/images/greek.jpg"},
		{ID: "9", Name: "Cappuccino", Price: price("3.50"), Category: "drinks", Image: "/images/cappuccino.jpg"},
		{ID: "10", Name: "Fresh Orange Juice", Price: price("4.25"), Category: "drinks", Image: "/images/orange-juice.jpg"},
		{ID: "11", Name: "Iced Tea", Price: price("2.99"), Category: "drinks", Image: "/images/iced-tea.jpg"},
		{ID: "12", Name: "Tiramisu", Price: price("6.99"), Category: "desserts", Image: "/images/tiramisu.jpg"},
		{ID: "13", Name: "Chocolate Lava Cake", Price: price("7.49"), Category: "desserts", Image: "/images/lava-cake.jpg"},
	}
	c, err := NewCatalog(categories, items)
	if err != nil {
		panic(fmt.Sprintf("menu: invalid default catalog: %v", err))
	}
	return c
}
