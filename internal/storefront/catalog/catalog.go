package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/techstore-demo/server/internal/storefront/model"
)

//go:embed products.yaml
var seed []byte

// Predicate selects products during Filter.
type Predicate func(model.Product) bool

// Catalog is the immutable product list. It is safe for concurrent reads.
type Catalog struct {
	products []model.Product
	byID     map[int]int
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(seed)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a YAML product table.
func Parse(data []byte) (*Catalog, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]model.Product, 0, len(f.Products))
	for i, sp := range f.Products {
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("product at index %d: price %q: %w", i, sp.Price, err)
		}
		products = append(products, model.Product{
			ID:          sp.ID,
			Name:        sp.Name,
			Price:       model.NewMoney(price),
			Category:    model.Category(sp.Category),
			Description: sp.Description,
			Image:       sp.Image,
		})
	}
	return New(products)
}

// New validates the products and freezes them in the given order.
func New(products []model.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]model.Product, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for i, p := range products {
		if p.ID < 1 {
			return nil, fmt.Errorf("product %q: id must be a positive integer", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate id", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %d: price must be non-negative", p.ID)
		}
		if !p.Category.Valid() {
			return nil, fmt.Errorf("product %d: unknown category %q", p.ID, p.Category)
		}
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c, nil
}

// FindByID looks a product up by id.
func (c *Catalog) FindByID(id int) (model.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

// All returns every product in catalog order.
func (c *Catalog) All() []model.Product {
	return c.Filter(nil)
}

// Len is the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Filter returns the products matching pred in catalog order. A nil
// predicate matches everything. The result is never nil.
func (c *Catalog) Filter(pred Predicate) []model.Product {
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if pred == nil || pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Search filters by a case-insensitive term over name or description,
// intersected with an exact category. Empty term or category match all.
func (c *Catalog) Search(term string, category model.Category) []model.Product {
	return c.Filter(Matching(term, category))
}

// Matching builds the search predicate used by Search.
func Matching(term string, category model.Category) Predicate {
	needle := strings.ToLower(term)
	return func(p model.Product) bool {
		matchesSearch := strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
		matchesCategory := category == "" || p.Category == category
		return matchesSearch && matchesCategory
	}
}
