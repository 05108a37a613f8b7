package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// LoadPurchases reads the purchase history document, a JSON object mapping
// user_id -> [product_id, ...]. Users come back in file order so the
// users-with-history listing stays deterministic across runs.
func LoadPurchases(path string) ([]domain.UserPurchases, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open purchases: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, domain.NewDataFormatError(path, "expected top-level object: %v", err)
	}

	var out []domain.UserPurchases
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, domain.NewDataFormatError(path, "read user id: %v", err)
		}
		userID, ok := tok.(string)
		if !ok {
			return nil, domain.NewDataFormatError(path, "unexpected token %v", tok)
		}
		if _, dup := seen[userID]; dup {
			return nil, domain.NewDataFormatError(path, "duplicate user id %q", userID)
		}
		seen[userID] = struct{}{}

		var items []string
		if err := dec.Decode(&items); err != nil {
			return nil, domain.NewDataFormatError(path, "user %q: %v", userID, err)
		}

		out = append(out, domain.UserPurchases{UserID: userID, ProductIDs: items})
	}

	return out, nil
}
