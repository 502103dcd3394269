package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidToken is returned for tokens we did not issue, or issued for
// another listing.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque state behind a page token.
//
// Owner is the user whose records are being listed; After is the last
// secondary id already returned. Records are listed in secondary order, so
// After alone positions the next page.
type Cursor struct {
	Owner uint64 `json:"o"`
	After uint64 `json:"a"`
}

// Encode converts a Cursor into an unpadded URL-safe token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses a token issued for owner's listing.
// Empty token → zero cursor (first page).
func Decode(token string, owner uint64) (Cursor, error) {
	if token == "" {
		return Cursor{Owner: owner}, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	if c.Owner != owner || c.After == 0 || c.After > math.MaxInt64 {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
