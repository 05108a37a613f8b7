// Package file loads the two startup documents: the product catalog with
// embeddings and the user purchase history. Both are JSON objects; key order
// in the file is preserved because it fixes catalog row order and the
// users-with-history listing order.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// catalogEntry mirrors one value of the product_embeddings document.
type catalogEntry struct {
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
}

// LoadCatalog reads the product catalog document, a JSON object mapping
// product_id -> {description, embedding}. Any malformed entry, missing
// embedding, or inconsistent embedding dimension is a DataFormatError.
func LoadCatalog(path string) (domain.Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	if err := expectDelim(dec, '{'); err != nil {
		return domain.Catalog{}, domain.NewDataFormatError(path, "expected top-level object: %v", err)
	}

	var products []domain.Product
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return domain.Catalog{}, domain.NewDataFormatError(path, "read product id: %v", err)
		}
		id, ok := tok.(string)
		if !ok {
			return domain.Catalog{}, domain.NewDataFormatError(path, "unexpected token %v", tok)
		}

		var entry catalogEntry
		if err := dec.Decode(&entry); err != nil {
			return domain.Catalog{}, domain.NewDataFormatError(path, "product %q: %v", id, err)
		}
		if len(entry.Embedding) == 0 {
			return domain.Catalog{}, domain.NewDataFormatError(path, "product %q has no embedding", id)
		}

		products = append(products, domain.Product{
			ID:          id,
			Description: entry.Description,
			Embedding:   entry.Embedding,
		})
	}

	catalog, err := domain.NewCatalog(products)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("build catalog from %s: %w", path, err)
	}
	return catalog, nil
}

// expectDelim consumes one token and checks it is the given delimiter.
func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("got %v, want %v", tok, want)
	}
	return nil
}
