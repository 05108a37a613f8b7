// Package recommend composes the catalog, the similarity index, and the
// purchase history into the two query modes: user->items and item->items.
package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
	"github.com/IlyadI/rec-sys-project-retail/internal/logger"
)

// DefaultHistoryLimit caps BoughtDescriptions when the caller passes no limit.
const DefaultHistoryLimit = 20

// Service is the recommendation engine. Every method is a pure function of
// the current catalog/history state plus its inputs; the only state
// transition is ClearHistory.
type Service struct {
	catalog CatalogReader
	history HistoryStore
	index   Searcher
}

// New creates a recommendation service.
func New(catalog CatalogReader, history HistoryStore, index Searcher) *Service {
	return &Service{catalog: catalog, history: history, index: index}
}

// UsersWithHistory returns users with a non-empty purchase history, in source
// order. Pagination is the caller's concern.
func (s *Service) UsersWithHistory(_ context.Context) []string {
	return s.history.Users()
}

// UserItems returns the user's purchased product ids in purchase order.
func (s *Service) UserItems(_ context.Context, userID string) []string {
	return s.history.Items(userID)
}

// BoughtDescriptions returns descriptions of the user's purchases, in purchase
// order, capped at limit. Ids without a catalog entry or with an empty
// description are skipped. limit<=0 falls back to DefaultHistoryLimit.
func (s *Service) BoughtDescriptions(_ context.Context, userID string, limit int) []string {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make([]string, 0, limit)
	for _, pid := range s.history.Items(userID) {
		p, ok := s.catalog.Get(pid)
		if !ok || p.Description == "" {
			continue
		}
		out = append(out, p.Description)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// ClearHistory empties the user's history in memory. Idempotent.
func (s *Service) ClearHistory(_ context.Context, userID string) {
	s.history.Clear(userID)
}

// RecommendForUser returns the top-N products closest to the user's mean
// purchase embedding, excluding everything the user already bought. A user
// without a representable embedding (no history, or no purchased id resolving
// to a catalog entry, or a degenerate mean) gets an empty list, not an error.
func (s *Service) RecommendForUser(ctx context.Context, userID string, topN int) ([]domain.Recommendation, error) {
	bought := s.history.Items(userID)

	userVec, ok := s.userVector(bought)
	if !ok {
		return []domain.Recommendation{}, nil
	}

	exclude := make(map[string]struct{}, len(bought))
	for _, pid := range bought {
		exclude[pid] = struct{}{}
	}

	hits, err := s.index.Query(userVec, topN, exclude)
	if err != nil {
		return nil, fmt.Errorf("query index for user %s: %w", userID, err)
	}

	recs := s.toRecommendations(ctx, hits)
	return recs, nil
}

// SimilarProducts returns the top-N products closest to the given one
// ("frequently bought together"). The anchor never appears in its own
// results. Unknown ids return domain.ErrProductNotFound.
func (s *Service) SimilarProducts(ctx context.Context, productID string, topN int) ([]domain.Recommendation, error) {
	hits, err := s.index.QueryByID(productID, topN)
	if err != nil {
		return nil, fmt.Errorf("query index for product %s: %w", productID, err)
	}
	return s.toRecommendations(ctx, hits), nil
}

// RandomProductPage picks a uniformly random product and returns it with its
// similar products. Returns domain.ErrEmptyCatalog when there is nothing to pick.
func (s *Service) RandomProductPage(ctx context.Context, topN int) (domain.ProductPage, error) {
	p, err := s.catalog.Random()
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("pick random product: %w", err)
	}

	recs, err := s.SimilarProducts(ctx, p.ID, topN)
	if err != nil {
		return domain.ProductPage{}, err
	}

	return domain.ProductPage{Product: p, Recommendations: recs}, nil
}

// userVector builds the normalized mean embedding of the user's purchases.
// Purchased ids missing from the catalog are silently skipped. Repeats count
// with repeated weight in the mean.
func (s *Service) userVector(bought []string) ([]float32, bool) {
	vecs := make([][]float32, 0, len(bought))
	for _, pid := range bought {
		if p, ok := s.catalog.Get(pid); ok {
			vecs = append(vecs, p.Embedding)
		}
	}
	if len(vecs) == 0 {
		return nil, false
	}

	mean := domain.Mean(vecs)
	if domain.Norm(mean) < domain.NormEpsilon {
		return nil, false
	}
	return domain.Normalize(mean), true
}

// toRecommendations resolves hits against the catalog. Hits whose id has no
// catalog entry (data inconsistency) are skipped rather than erroring.
func (s *Service) toRecommendations(ctx context.Context, hits []domain.Hit) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(hits))
	for _, h := range hits {
		p, ok := s.catalog.Get(h.ID)
		if !ok {
			logger.FromContext(ctx).Warn("Indexed product missing from catalog", zap.String("product_id", h.ID))
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:   h.ID,
			Description: p.Description,
			Score:       h.Score,
		})
	}
	return recs
}
