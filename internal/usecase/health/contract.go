package health

import "context"

// CatalogReader exposes the catalog size for the readiness check.
type CatalogReader interface {
	Len() int
}

// CachePinger checks cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ExplanationChecker checks explanation provider availability.
type ExplanationChecker interface {
	HealthCheck(ctx context.Context) error
}
