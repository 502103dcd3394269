// Package matchv1 is the wire contract of match.v1.MatchService.
//
// Messages travel as JSON over gRPC (content-subtype "json"); user ids are
// decimal strings and timestamps unix milliseconds.
package matchv1

// PairRequest addresses one ordered pair.
type PairRequest struct {
	PrimaryUserID   string `json:"primary_user_id" validate:"required,numeric"`
	SecondaryUserID string `json:"secondary_user_id" validate:"required,numeric"`
}

// SyncInverseRequest addresses the forward record (primary → secondary); the
// write lands on (secondary → primary).
//
// With MirrorLikes set the server reads the forward record and sets the
// inverse flag from it, ignoring SecondaryLikesPrimary.
type SyncInverseRequest struct {
	PrimaryUserID         string `json:"primary_user_id" validate:"required,numeric"`
	SecondaryUserID       string `json:"secondary_user_id" validate:"required,numeric"`
	SecondaryLikesPrimary *bool  `json:"secondary_likes_primary,omitempty"`
	MirrorLikes           bool   `json:"mirror_likes,omitempty"`
}

type ListMatchesRequest struct {
	PrimaryUserID   string  `json:"primary_user_id" validate:"required,numeric"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           uint32  `json:"limit,omitempty" validate:"lte=100"`
}

type Reaction struct {
	UserID        string `json:"user_id"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type Profile struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type Match struct {
	PrimaryUserID         string      `json:"primary_user_id"`
	SecondaryUserID       string      `json:"secondary_user_id"`
	Likes                 []*Reaction `json:"likes"`
	Dislikes              []*Reaction `json:"dislikes"`
	PrimaryLikesSecondary bool        `json:"primary_likes_secondary"`
	SecondaryLikesPrimary bool        `json:"secondary_likes_primary"`
	IsMutual              bool        `json:"is_mutual"`
	CreatedAt             uint64      `json:"created_at"`
	UpdatedAt             uint64      `json:"updated_at"`
	Secondary             *Profile    `json:"secondary,omitempty"`
}

type MatchResponse struct {
	Match *Match `json:"match"`
}

type DeleteMatchResponse struct{}

type MutualStatusResponse struct {
	IsMutual bool `json:"is_mutual"`
}

type ListMatchesResponse struct {
	Matches             []*Match `json:"matches"`
	NextPaginationToken *string  `json:"next_pagination_token,omitempty"`
}
