package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
	"github.com/IlyadI/rec-sys-project-retail/internal/index"
	"github.com/IlyadI/rec-sys-project-retail/internal/repository/history"
	explainuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/explain"
	healthuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/health"
	recommenduc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/recommend"
)

type echoGenerator struct{}

func (echoGenerator) Explain(_ context.Context, req domain.ExplanationRequest) (string, error) {
	return "why " + req.ProductID, nil
}

func testLimits() Limits {
	return Limits{
		DefaultTopN:     12,
		MaxTopN:         100,
		DefaultPageSize: 50,
		MaxPageSize:     200,
		HistoryLimit:    20,
	}
}

func newTestRouter(t *testing.T, products []domain.Product, purchases []domain.UserPurchases) chi.Router {
	t.Helper()

	catalog, err := domain.NewCatalog(products)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	recs := recommenduc.New(&catalog, history.New(purchases), index.Build(&catalog))
	explain := explainuc.New(echoGenerator{}, nil, 2)
	health := healthuc.New(&catalog, nil, nil)

	srv := NewServer(recs, explain, health, testLimits(), zap.NewNop())
	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func fruitProducts() []domain.Product {
	return []domain.Product{
		{ID: "P1", Description: "apple", Embedding: []float32{1, 0}},
		{ID: "P2", Description: "pear", Embedding: []float32{0.9, 0.1}},
		{ID: "P3", Description: "car", Embedding: []float32{0, 1}},
	}
}

func doRequest(t *testing.T, r chi.Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestListUsers_Pagination(t *testing.T) {
	purchases := []domain.UserPurchases{
		{UserID: "u1", ProductIDs: []string{"P1"}},
		{UserID: "u2", ProductIDs: []string{"P2"}},
		{UserID: "u3", ProductIDs: []string{"P3"}},
	}
	r := newTestRouter(t, fruitProducts(), purchases)

	rec := doRequest(t, r, http.MethodGet, "/api/users?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	page := decodeBody[userListResponse](t, rec)
	if len(page.Users) != 2 || page.Users[0] != "u1" || page.Users[1] != "u2" {
		t.Errorf("first page: got %v", page.Users)
	}
	if !page.HasMore {
		t.Error("first page: has_more should be true")
	}

	rec = doRequest(t, r, http.MethodGet, "/api/users?limit=2&offset=2")
	page = decodeBody[userListResponse](t, rec)
	if len(page.Users) != 1 || page.Users[0] != "u3" {
		t.Errorf("second page: got %v", page.Users)
	}
	if page.HasMore {
		t.Error("second page: has_more should be false")
	}

	// Offset past the end yields an empty page, not an error.
	rec = doRequest(t, r, http.MethodGet, "/api/users?offset=99")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	page = decodeBody[userListResponse](t, rec)
	if len(page.Users) != 0 || page.HasMore {
		t.Errorf("far offset: got %+v", page)
	}
}

func TestListUsers_BadLimit(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/users?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Code != codeBadRequest {
		t.Errorf("code: got %q, want %q", body.Code, codeBadRequest)
	}
}

func TestUserRecommendations(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), []domain.UserPurchases{
		{UserID: "U", ProductIDs: []string{"P1"}},
	})

	rec := doRequest(t, r, http.MethodGet, "/api/users/U/recommendations?top_n=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody[userRecommendationsResponse](t, rec)

	if body.UserID != "U" {
		t.Errorf("user_id: got %q", body.UserID)
	}
	if len(body.BoughtDescriptions) != 1 || body.BoughtDescriptions[0] != "apple" {
		t.Errorf("bought_descriptions: got %v", body.BoughtDescriptions)
	}
	if len(body.Recommendations) != 2 {
		t.Fatalf("recommendations: got %d, want 2", len(body.Recommendations))
	}
	if body.Recommendations[0].ProductID != "P2" {
		t.Errorf("first recommendation: got %s, want P2", body.Recommendations[0].ProductID)
	}
	for _, item := range body.Recommendations {
		if item.Explanation != "why "+item.ProductID {
			t.Errorf("explanation for %s: got %q", item.ProductID, item.Explanation)
		}
	}
}

func TestUserRecommendations_UnknownUser(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/users/ghost/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := decodeBody[userRecommendationsResponse](t, rec)
	if len(body.Recommendations) != 0 {
		t.Errorf("unknown user: got %v, want empty", body.Recommendations)
	}
}

func TestUserPurchases(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), []domain.UserPurchases{
		{UserID: "U", ProductIDs: []string{"P3", "P1"}},
	})

	rec := doRequest(t, r, http.MethodGet, "/api/users/U/purchases")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody[userPurchasesResponse](t, rec)
	if len(body.ProductIDs) != 2 || body.ProductIDs[0] != "P3" || body.ProductIDs[1] != "P1" {
		t.Errorf("product_ids: got %v, want purchase order [P3 P1]", body.ProductIDs)
	}
	if len(body.BoughtDescriptions) != 2 || body.BoughtDescriptions[0] != "car" {
		t.Errorf("bought_descriptions: got %v", body.BoughtDescriptions)
	}
}

func TestClearHistory(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), []domain.UserPurchases{
		{UserID: "U", ProductIDs: []string{"P1"}},
	})

	rec := doRequest(t, r, http.MethodDelete, "/api/users/U")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", rec.Code)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/users/U/purchases")
	body := decodeBody[userPurchasesResponse](t, rec)
	if len(body.ProductIDs) != 0 {
		t.Errorf("purchases after clear: got %v, want empty", body.ProductIDs)
	}

	// Clearing again is idempotent.
	if rec := doRequest(t, r, http.MethodDelete, "/api/users/U"); rec.Code != http.StatusNoContent {
		t.Errorf("second delete status: got %d, want 204", rec.Code)
	}
}

func TestSimilarProducts_HTTP(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/products/P1/similar?top_n=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody[similarProductsResponse](t, rec)
	if body.ProductID != "P1" {
		t.Errorf("product_id: got %q", body.ProductID)
	}
	if len(body.Recommendations) != 2 || body.Recommendations[0].ProductID != "P2" {
		t.Errorf("recommendations: got %+v", body.Recommendations)
	}
	for _, item := range body.Recommendations {
		if item.Explanation != "" {
			t.Errorf("similar products should not carry explanations, got %q", item.Explanation)
		}
	}
}

func TestSimilarProducts_Unknown(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/products/nope/similar")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Code != codeProductNotFound {
		t.Errorf("code: got %q, want %q", body.Code, codeProductNotFound)
	}
}

func TestRandomProduct(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/products/random?top_n=8")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody[randomProductResponse](t, rec)
	if body.Product.ProductID == "" {
		t.Fatal("expected a product")
	}
	for _, item := range body.Recommendations {
		if item.ProductID == body.Product.ProductID {
			t.Error("picked product appeared in its own recommendations")
		}
	}
}

func TestRandomProduct_EmptyCatalog(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	rec := doRequest(t, r, http.MethodGet, "/api/products/random")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Code != codeCatalogEmpty {
		t.Errorf("code: got %q, want %q", body.Code, codeCatalogEmpty)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	rec := doRequest(t, r, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	empty := newTestRouter(t, nil, nil)
	rec = doRequest(t, empty, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("empty catalog health status: got %d, want 503", rec.Code)
	}
}

func TestQueryInt_Clamping(t *testing.T) {
	r := newTestRouter(t, fruitProducts(), nil)

	// top_n above the max clamps rather than erroring.
	rec := doRequest(t, r, http.MethodGet, "/api/products/P1/similar?top_n=100000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/products/P1/similar?top_n=oops")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}
