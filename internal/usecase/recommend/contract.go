package recommend

import "github.com/IlyadI/rec-sys-project-retail/internal/domain"

// CatalogReader reads the immutable product catalog.
type CatalogReader interface {
	Get(id string) (domain.Product, bool)
	Len() int
	Random() (domain.Product, error)
}

// HistoryStore reads and mutates the per-user purchase history.
type HistoryStore interface {
	Items(userID string) []string
	Users() []string
	Clear(userID string)
}

// Searcher answers top-K similarity queries against the catalog index.
type Searcher interface {
	Query(v []float32, k int, exclude map[string]struct{}) ([]domain.Hit, error)
	QueryByID(anchorID string, k int) ([]domain.Hit, error)
}
