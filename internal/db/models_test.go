package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryLikesSecondary_OnlyOwnEntries(t *testing.T) {
	m := NewMatch(1, 2)
	assert.False(t, m.PrimaryLikesSecondary())

	m.Likes = append(m.Likes, Reaction{User: 2, At: time.Now()})
	assert.False(t, m.PrimaryLikesSecondary(), "entry by another user")

	m.Likes = append(m.Likes, Reaction{User: 1, At: time.Now()})
	assert.True(t, m.PrimaryLikesSecondary())

	m.Dislikes = append(m.Dislikes, Reaction{User: 1, At: time.Now()})
	assert.True(t, m.PrimaryLikesSecondary(), "dislike does not clear a like")
}

func TestIsMutual(t *testing.T) {
	m := NewMatch(1, 2)
	m.SecondaryLikesPrimary = true
	assert.False(t, m.IsMutual())

	m.Likes = append(m.Likes, Reaction{User: 1, At: time.Now()})
	assert.True(t, m.IsMutual())

	m.SecondaryLikesPrimary = false
	assert.False(t, m.IsMutual())
}

func TestInverseAndClone(t *testing.T) {
	m := NewMatch(7, 9)
	p, s := m.Inverse()
	assert.Equal(t, UserID(9), p)
	assert.Equal(t, UserID(7), s)

	m.Likes = append(m.Likes, Reaction{User: 7, At: time.Now()})
	c := m.Clone()
	c.Likes[0].User = 42
	c.Likes = append(c.Likes, Reaction{User: 7})
	assert.Equal(t, UserID(7), m.Likes[0].User)
	assert.Len(t, m.Likes, 1)
}

func TestNormalize(t *testing.T) {
	m := &Match{Primary: 1, Secondary: 2}
	m.Normalize()
	assert.NotNil(t, m.Likes)
	assert.NotNil(t, m.Dislikes)
	assert.Equal(t, "12", UserID(12).String())
}
