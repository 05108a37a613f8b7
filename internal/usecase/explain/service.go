// Package explain turns (purchase history, recommended item) pairs into
// one-sentence explanations via an external text-generation provider.
// Failures degrade to empty strings per item; a recommendation response is
// never aborted because an explanation could not be generated.
package explain

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
	"github.com/IlyadI/rec-sys-project-retail/internal/logger"
)

// DefaultConcurrency bounds parallel provider calls per request.
const DefaultConcurrency = 4

// Service fans explanation generation out over the recommended items.
type Service struct {
	gen         Generator
	cache       Cache // nil disables caching
	concurrency int
}

// New creates an explanation service. gen may be nil, in which case every
// explanation is empty. cache may be nil.
func New(gen Generator, cache Cache, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{gen: gen, cache: cache, concurrency: concurrency}
}

// ExplainAll returns one explanation per recommendation, index-aligned with
// recs. Items whose generation fails get an empty string.
func (s *Service) ExplainAll(
	ctx context.Context, boughtDescriptions []string, recs []domain.Recommendation,
) []string {
	out := make([]string, len(recs))
	if s.gen == nil || len(recs) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, rec := range recs {
		g.Go(func() error {
			req := domain.ExplanationRequest{
				BoughtDescriptions: boughtDescriptions,
				ProductID:          rec.ProductID,
				Description:        rec.Description,
			}
			out[i] = s.explainOne(gctx, req)
			// Per-item failures never propagate, so the group context stays
			// alive for the remaining items.
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Service) explainOne(ctx context.Context, req domain.ExplanationRequest) string {
	if s.cache != nil {
		if expl, ok := s.cache.Get(ctx, req); ok {
			return expl
		}
	}

	expl, err := s.gen.Explain(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Warn("Explanation generation failed",
			zap.String("product_id", req.ProductID),
			zap.Error(err),
		)
		return ""
	}

	if s.cache != nil && expl != "" {
		s.cache.Set(ctx, req, expl)
	}
	return expl
}
