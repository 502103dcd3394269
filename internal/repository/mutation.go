package repository

import (
	"fmt"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
)

// Mutation is one of the closed set of changes UpsertAndMutate can apply:
// PushLike, PullLike, PushDislike, PullDislike, SetField.
type Mutation interface {
	apply(m *db.Match, now time.Time)
	fmt.Stringer
}

// PushLike appends a like by User. A zero At is stamped with the store clock.
type PushLike struct {
	User db.UserID
	At   time.Time
}

// PullLike removes every like by User. No-op when there is none.
type PullLike struct {
	User db.UserID
}

// PushDislike appends a dislike by User.
type PushDislike struct {
	User db.UserID
	At   time.Time
}

// PullDislike removes every dislike by User.
type PullDislike struct {
	User db.UserID
}

// SetField overwrites scalar fields. Nil pointers leave the field untouched.
type SetField struct {
	SecondaryLikesPrimary *bool
}

func (p PushLike) apply(m *db.Match, now time.Time) {
	m.Likes = append(m.Likes, reaction(p.User, p.At, now))
}

func (p PullLike) apply(m *db.Match, _ time.Time) {
	m.Likes = pull(m.Likes, p.User)
}

func (p PushDislike) apply(m *db.Match, now time.Time) {
	m.Dislikes = append(m.Dislikes, reaction(p.User, p.At, now))
}

func (p PullDislike) apply(m *db.Match, _ time.Time) {
	m.Dislikes = pull(m.Dislikes, p.User)
}

func (s SetField) apply(m *db.Match, _ time.Time) {
	if s.SecondaryLikesPrimary != nil {
		m.SecondaryLikesPrimary = *s.SecondaryLikesPrimary
	}
}

func (p PushLike) String() string    { return fmt.Sprintf("push_like(%d)", p.User) }
func (p PullLike) String() string    { return fmt.Sprintf("pull_like(%d)", p.User) }
func (p PushDislike) String() string { return fmt.Sprintf("push_dislike(%d)", p.User) }
func (p PullDislike) String() string { return fmt.Sprintf("pull_dislike(%d)", p.User) }

func (s SetField) String() string {
	if s.SecondaryLikesPrimary == nil {
		return "set()"
	}
	return fmt.Sprintf("set(secondary_likes_primary=%t)", *s.SecondaryLikesPrimary)
}

func reaction(user db.UserID, at, now time.Time) db.Reaction {
	if at.IsZero() {
		at = now
	}
	return db.Reaction{User: user, At: at.UTC()}
}

func pull(list []db.Reaction, user db.UserID) []db.Reaction {
	out := make([]db.Reaction, 0, len(list))
	for _, r := range list {
		if r.User != user {
			out = append(out, r)
		}
	}
	return out
}
