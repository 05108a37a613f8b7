// Package chi exposes the recommendation engine over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
	explainuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/explain"
	healthuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/health"
	recommenduc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/recommend"
)

// error codes returned in JSON error bodies.
const (
	codeBadRequest      = "bad_request"
	codeProductNotFound = "product_not_found"
	codeCatalogEmpty    = "catalog_empty"
	codeInternalError   = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits bound client-supplied paging and ranking parameters.
type Limits struct {
	DefaultTopN     int
	MaxTopN         int
	DefaultPageSize int
	MaxPageSize     int
	HistoryLimit    int
}

// Server wires the use case services to HTTP routes.
type Server struct {
	recs          *recommenduc.Service
	explain       *explainuc.Service
	health        *healthuc.Service
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recs *recommenduc.Service,
	explain *explainuc.Service,
	health *healthuc.Service,
	limits Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recs:    recs,
		explain: explain,
		health:  health,
		limits:  limits,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, codeProductNotFound),
		sentinelHandler(domain.ErrEmptyCatalog, http.StatusNotFound, codeCatalogEmpty),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{userID}/recommendations", s.handleUserRecommendations)
		r.Get("/users/{userID}/purchases", s.handleUserPurchases)
		r.Delete("/users/{userID}", s.handleClearHistory)
		r.Get("/products/random", s.handleRandomProduct)
		r.Get("/products/{productID}/similar", s.handleSimilarProducts)
	})
}

// --- DTOs ---

type productJSON struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
}

type recommendationJSON struct {
	ProductID   string  `json:"product_id"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
}

type userListResponse struct {
	Users   []string `json:"users"`
	HasMore bool     `json:"has_more"`
}

type userRecommendationsResponse struct {
	UserID             string               `json:"user_id"`
	BoughtDescriptions []string             `json:"bought_descriptions"`
	Recommendations    []recommendationJSON `json:"recommendations"`
}

type userPurchasesResponse struct {
	UserID             string   `json:"user_id"`
	ProductIDs         []string `json:"product_ids"`
	BoughtDescriptions []string `json:"bought_descriptions"`
}

type randomProductResponse struct {
	Product         productJSON          `json:"product"`
	Recommendations []recommendationJSON `json:"recommendations"`
}

type similarProductsResponse struct {
	ProductID       string               `json:"product_id"`
	Recommendations []recommendationJSON `json:"recommendations"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// handleListUsers returns users with purchase history, paginated by offset/limit.
// Pagination is transport-level; the engine returns the full ordered list.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.limits.DefaultPageSize, 1, s.limits.MaxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	users := s.recs.UsersWithHistory(r.Context())

	start := min(offset, len(users))
	end := min(start+limit, len(users))

	writeJSON(w, http.StatusOK, userListResponse{
		Users:   users[start:end],
		HasMore: end < len(users),
	})
}

// handleUserRecommendations is the main endpoint: ranked recommendations for
// the user, each with a generated explanation. A user without usable history
// gets an empty list, never an error.
func (s *Server) handleUserRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	topN, err := queryInt(r, "top_n", s.limits.DefaultTopN, 1, s.limits.MaxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	boughtDescriptions := s.recs.BoughtDescriptions(ctx, userID, s.limits.HistoryLimit)

	recs, err := s.recs.RecommendForUser(ctx, userID, topN)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	explanations := s.explain.ExplainAll(ctx, boughtDescriptions, recs)

	items := make([]recommendationJSON, len(recs))
	for i, rec := range recs {
		items[i] = recommendationJSON{
			ProductID:   rec.ProductID,
			Description: rec.Description,
			Score:       rec.Score,
			Explanation: explanations[i],
		}
	}

	writeJSON(w, http.StatusOK, userRecommendationsResponse{
		UserID:             userID,
		BoughtDescriptions: boughtDescriptions,
		Recommendations:    items,
	})
}

// handleUserPurchases is a plain accessor: no ranking, purchase order.
func (s *Server) handleUserPurchases(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx := r.Context()

	writeJSON(w, http.StatusOK, userPurchasesResponse{
		UserID:             userID,
		ProductIDs:         s.recs.UserItems(ctx, userID),
		BoughtDescriptions: s.recs.BoughtDescriptions(ctx, userID, s.limits.HistoryLimit),
	})
}

// handleClearHistory empties the user's history. Idempotent, in-memory only.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.recs.ClearHistory(r.Context(), chi.URLParam(r, "userID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRandomProduct(w http.ResponseWriter, r *http.Request) {
	topN, err := queryInt(r, "top_n", s.limits.DefaultTopN, 1, s.limits.MaxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	page, err := s.recs.RandomProductPage(r.Context(), topN)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, randomProductResponse{
		Product: productJSON{
			ProductID:   page.Product.ID,
			Description: page.Product.Description,
		},
		Recommendations: toRecommendationJSON(page.Recommendations),
	})
}

func (s *Server) handleSimilarProducts(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	topN, err := queryInt(r, "top_n", s.limits.DefaultTopN, 1, s.limits.MaxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	recs, err := s.recs.SimilarProducts(r.Context(), productID, topN)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarProductsResponse{
		ProductID:       productID,
		Recommendations: toRecommendationJSON(recs),
	})
}

// --- Helpers ---

func toRecommendationJSON(recs []domain.Recommendation) []recommendationJSON {
	items := make([]recommendationJSON, len(recs))
	for i, rec := range recs {
		items[i] = recommendationJSON{
			ProductID:   rec.ProductID,
			Description: rec.Description,
			Score:       rec.Score,
		}
	}
	return items
}

// queryInt parses an integer query parameter, falling back to def when absent
// and clamping into [minVal, maxVal]. A non-numeric value is a client error.
func queryInt(r *http.Request, name string, def, minVal, maxVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	if v < minVal {
		v = minVal
	}
	if v > maxVal {
		v = maxVal
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProductNotFound,
		domain.ErrEmptyCatalog,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
