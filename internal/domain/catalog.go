package domain

import "math/rand/v2"

// Catalog is the load-once, ordered product set. The slice order fixes row
// positions in the similarity index and stays stable for the process lifetime.
type Catalog struct {
	products []Product
	byID     map[string]int
	dim      int
}

// NewCatalog validates and creates a Catalog from products in source order.
// Ids must be unique and every embedding must be non-empty with a uniform
// dimension; violations are a DataFormatError.
func NewCatalog(products []Product) (Catalog, error) {
	byID := make(map[string]int, len(products))
	dim := 0
	for i, p := range products {
		if p.ID == "" {
			return Catalog{}, NewDataFormatError("catalog", "product at position %d has empty id", i)
		}
		if _, dup := byID[p.ID]; dup {
			return Catalog{}, NewDataFormatError("catalog", "duplicate product id %q", p.ID)
		}
		if len(p.Embedding) == 0 {
			return Catalog{}, NewDataFormatError("catalog", "product %q has no embedding", p.ID)
		}
		if dim == 0 {
			dim = len(p.Embedding)
		} else if len(p.Embedding) != dim {
			return Catalog{}, NewDataFormatError(
				"catalog", "product %q has embedding dimension %d, want %d", p.ID, len(p.Embedding), dim)
		}
		byID[p.ID] = i
	}
	return Catalog{products: products, byID: byID, dim: dim}, nil
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Products returns all products in catalog order. Callers must not mutate.
func (c *Catalog) Products() []Product { return c.products }

// IDs returns all product ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.products))
	for i, p := range c.products {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Dim returns the embedding dimension, 0 for an empty catalog.
func (c *Catalog) Dim() int { return c.dim }

// Random returns a uniformly chosen product, or ErrEmptyCatalog.
func (c *Catalog) Random() (Product, error) {
	if len(c.products) == 0 {
		return Product{}, ErrEmptyCatalog
	}
	return c.products[rand.IntN(len(c.products))], nil
}
