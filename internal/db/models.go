package db

import (
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

// UserID is the opaque identity handed to us by the user-management service.
// Zero is never a valid user.
type UserID uint64

// MaxUserID is the largest id every backend can store; SQL drivers reject
// unsigned values with the high bit set.
const MaxUserID UserID = math.MaxInt64

func (id UserID) String() string { return fmt.Sprintf("%d", uint64(id)) }

// Valid reports whether id is non-zero and storable.
func (id UserID) Valid() bool { return id != 0 && id <= MaxUserID }

// User table. Owned by the account service; read here only to decorate
// match listings with a display profile.
type User struct {
	ID           UserID `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	DisplayName  string `gorm:"size:128"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Reaction is one like or dislike event. User is always the owning
// record's Primary.
type Reaction struct {
	User UserID    `json:"user"`
	At   time.Time `json:"at"`
}

// Match is one side of a relationship: what Primary did towards Secondary,
// plus an advisory flag written by the inverse side.
//
// Composite PK: (PrimaryID, SecondaryID)
//   - At most one record per ordered pair.
//   - PrimaryID leads the key, so "all records where I am primary" is a range scan.
//
// Fields:
//   - Likes / Dislikes: append-only event logs, JSON encoded.
//   - SecondaryLikesPrimary: set from the (Secondary, Primary) record via SyncInverse.
//     Never derived here; it may lag the inverse record's own Likes.
type Match struct {
	Primary               UserID                        `gorm:"column:primary_id;primaryKey;autoIncrement:false"`
	Secondary             UserID                        `gorm:"column:secondary_id;primaryKey;autoIncrement:false"`
	Likes                 datatypes.JSONSlice[Reaction] `gorm:"not null"`
	Dislikes              datatypes.JSONSlice[Reaction] `gorm:"not null"`
	SecondaryLikesPrimary bool                          `gorm:"not null"`
	CreatedAt             time.Time                     `gorm:"autoCreateTime"`
	UpdatedAt             time.Time                     `gorm:"autoUpdateTime"`
}

func (Match) TableName() string { return "matches" }

// NewMatch returns an empty, unsaved record for the pair.
func NewMatch(primary, secondary UserID) *Match {
	return &Match{
		Primary:   primary,
		Secondary: secondary,
		Likes:     datatypes.JSONSlice[Reaction]{},
		Dislikes:  datatypes.JSONSlice[Reaction]{},
	}
}

// PrimaryLikesSecondary reports whether the likes log holds an entry by Primary.
// Computed on read from the log; a dislike does not clear it.
func (m *Match) PrimaryLikesSecondary() bool {
	for _, l := range m.Likes {
		if l.User == m.Primary {
			return true
		}
	}
	return false
}

// IsMutual is true only when this record's own log and its own
// SecondaryLikesPrimary flag agree. The inverse record is not consulted.
func (m *Match) IsMutual() bool {
	return m.PrimaryLikesSecondary() && m.SecondaryLikesPrimary
}

// Inverse returns the key of the paired record.
func (m *Match) Inverse() (primary, secondary UserID) {
	return m.Secondary, m.Primary
}

// Normalize replaces nil logs (stored as JSON null) with empty slices.
func (m *Match) Normalize() {
	if m.Likes == nil {
		m.Likes = datatypes.JSONSlice[Reaction]{}
	}
	if m.Dislikes == nil {
		m.Dislikes = datatypes.JSONSlice[Reaction]{}
	}
}

// Clone returns a deep copy so callers can't alias stored slices.
func (m *Match) Clone() *Match {
	c := *m
	c.Likes = append(datatypes.JSONSlice[Reaction]{}, m.Likes...)
	c.Dislikes = append(datatypes.JSONSlice[Reaction]{}, m.Dislikes...)
	return &c
}
