package explain

import (
	"context"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// Generator produces one plain-text sentence for a recommended item.
type Generator interface {
	Explain(ctx context.Context, req domain.ExplanationRequest) (string, error)
}

// Cache stores generated explanations. Both methods are best-effort.
type Cache interface {
	Get(ctx context.Context, req domain.ExplanationRequest) (string, bool)
	Set(ctx context.Context, req domain.ExplanationRequest, explanation string)
}
