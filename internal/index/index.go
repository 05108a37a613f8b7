// Package index holds the in-memory cosine similarity index: a normalized
// embedding matrix plus the id<->row bijection, built once from the catalog.
package index

import (
	"sort"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// DefaultTopK is substituted when a caller asks for a non-positive k.
const DefaultTopK = 8

// Index answers top-K similarity queries against a fixed catalog.
// Rows are L2-normalized at build time so a dot product equals cosine
// similarity. Read-only after Build, safe for concurrent use.
type Index struct {
	dim  int
	ids  []string
	rows [][]float32
	byID map[string]int
}

// Build creates an Index from the catalog. Row order follows catalog order.
// Rows with a near-zero norm stay as-is (divisor clamped, see domain.Normalize).
func Build(c *domain.Catalog) *Index {
	products := c.Products()
	ix := &Index{
		dim:  c.Dim(),
		ids:  make([]string, len(products)),
		rows: make([][]float32, len(products)),
		byID: make(map[string]int, len(products)),
	}
	for i, p := range products {
		ix.ids[i] = p.ID
		ix.rows[i] = domain.Normalize(p.Embedding)
		ix.byID[p.ID] = i
	}
	return ix
}

// Len returns the number of indexed products.
func (ix *Index) Len() int { return len(ix.ids) }

// Dim returns the embedding dimension.
func (ix *Index) Dim() int { return ix.dim }

// Query scores every row against v by dot product and returns the top k hits
// by score descending, skipping ids in exclude. Ties keep catalog row order.
// Callers wanting cosine similarity must pass a normalized v; the rows already
// are. k<=0 falls back to DefaultTopK.
func (ix *Index) Query(v []float32, k int, exclude map[string]struct{}) ([]domain.Hit, error) {
	if len(v) != ix.dim {
		return nil, domain.ErrVectorDimMismatch
	}
	if k <= 0 {
		k = DefaultTopK
	}

	candidates := make([]domain.Hit, 0, len(ix.rows))
	for i, row := range ix.rows {
		if _, skip := exclude[ix.ids[i]]; skip {
			continue
		}
		candidates = append(candidates, domain.Hit{ID: ix.ids[i], Score: domain.Dot(row, v)})
	}

	// Stable sort keeps catalog order for equal scores, so repeated queries
	// return identical rankings.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// QueryByID ranks products against the anchor's own row. The anchor is always
// excluded from its own results, so k is effectively capped at Len()-1.
// Returns domain.ErrProductNotFound for an unknown anchor.
func (ix *Index) QueryByID(anchorID string, k int) ([]domain.Hit, error) {
	row, ok := ix.byID[anchorID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return ix.Query(ix.rows[row], k, map[string]struct{}{anchorID: {}})
}
