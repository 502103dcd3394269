package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/logger"
)

// SeedTestData resets the database and populates it with demo users and matches.
//
// Behavior:
//  1. Clears existing data in `users` and `matches` tables.
//  2. Creates 20 users with hashed passwords.
//  3. Each user likes or dislikes ~12 others (~70% likes); every 3rd pair is
//     liked back so the demo has mutual matches.
//  4. Inverse flags are synced afterwards, so seeded mutual pairs report true.
//
// Works on MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := reset(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user := User{
			ID:           UserID(i),
			Username:     fmt.Sprintf("user%d", i),
			DisplayName:  fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	logger.Info("seeded users", "count", 20)

	records := map[[2]UserID]*Match{}
	get := func(p, s UserID) *Match {
		k := [2]UserID{p, s}
		if m, ok := records[k]; ok {
			return m
		}
		m := NewMatch(p, s)
		records[k] = m
		return m
	}

	counter := 0
	for p := 1; p <= 20; p++ {
		for j := 0; j < 12; j++ {
			s := r.Intn(20) + 1
			if s == p {
				continue
			}
			primary, secondary := UserID(p), UserID(s)
			now := time.Now().UTC().Add(-time.Duration(r.Intn(72)) * time.Hour)

			m := get(primary, secondary)
			if counter%3 == 0 || r.Intn(100) < 70 {
				m.Likes = append(m.Likes, Reaction{User: primary, At: now})
			} else {
				m.Dislikes = append(m.Dislikes, Reaction{User: primary, At: now})
			}

			if counter%3 == 0 {
				back := get(secondary, primary)
				back.Likes = append(back.Likes, Reaction{User: secondary, At: now})
			}
			counter++
		}
	}

	// sync inverse flags once every log is final
	for k, m := range records {
		if inv, ok := records[[2]UserID{k[1], k[0]}]; ok {
			m.SecondaryLikesPrimary = inv.PrimaryLikesSecondary()
		}
	}

	for _, m := range records {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
			return fmt.Errorf("failed to seed match: %w", err)
		}
	}
	logger.Info("seeded matches", "count", len(records))

	return nil
}

// SeedMinimalTestData loads a small deterministic fixture:
// user1 and user2 like each other (synced), user3 likes user1 without a reply,
// and user1 dislikes user3.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := reset(db); err != nil {
		return err
	}

	users := []User{
		{ID: 1, Username: "user1", DisplayName: "User One", Email: "u1@test.com", PasswordHash: "x", Active: true},
		{ID: 2, Username: "user2", DisplayName: "User Two", Email: "u2@test.com", PasswordHash: "x", Active: true},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x", Active: true},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	at := time.Now().UTC()
	m12 := NewMatch(1, 2)
	m12.Likes = append(m12.Likes, Reaction{User: 1, At: at})
	m12.SecondaryLikesPrimary = true

	m21 := NewMatch(2, 1)
	m21.Likes = append(m21.Likes, Reaction{User: 2, At: at})
	m21.SecondaryLikesPrimary = true

	m31 := NewMatch(3, 1)
	m31.Likes = append(m31.Likes, Reaction{User: 3, At: at})

	m13 := NewMatch(1, 3)
	m13.Dislikes = append(m13.Dislikes, Reaction{User: 1, At: at})
	m13.SecondaryLikesPrimary = true

	return db.Create([]*Match{m12, m21, m31, m13}).Error
}

func reset(db *gorm.DB) error {
	if err := db.Exec("DELETE FROM matches").Error; err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	// users are inserted with explicit ids; reset sequences so later inserts don't collide
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "postgres":
		db.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), 100)")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}
	return nil
}
