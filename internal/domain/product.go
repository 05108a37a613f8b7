package domain

// Product is a single catalog entry. Immutable after load; the embedding is the
// raw vector from the offline pipeline, not normalized.
type Product struct {
	ID          string
	Description string
	Embedding   []float32
}

// UserPurchases pairs a user with their purchased product ids, in purchase order.
type UserPurchases struct {
	UserID     string
	ProductIDs []string
}

// Hit is a single similarity match against the index.
type Hit struct {
	ID    string
	Score float64
}

// Recommendation is a ranked catalog item returned to the service layer.
// Score is cosine similarity in [-1, 1].
type Recommendation struct {
	ProductID   string
	Description string
	Score       float64
}

// ProductPage is a product together with items frequently bought with it.
type ProductPage struct {
	Product         Product
	Recommendations []Recommendation
}

// ExplanationRequest carries what the explanation layer is allowed to see:
// the user's purchased-item descriptions and the recommended item.
type ExplanationRequest struct {
	BoughtDescriptions []string
	ProductID          string
	Description        string
}
