package entities

import (
	"errors"
	"time"
)

// DefaultElo is the rating assumed for any game a player has never been rated in.
const DefaultElo = 1500

// User represents a player with a credit wallet and per-game skill ratings
type User struct {
	ID                int64     `db:"id"`
	Username          string    `db:"username"`
	Credits           int64     `db:"credits"`
	Rating            int       `db:"rating"` // disciplinary score, separate from ELO
	MatchmakingLocked bool      `db:"matchmaking_locked"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`

	// Elo maps game ID to the user's rating for that game.
	// Populated from user_game_elo, absent games default to DefaultElo.
	Elo map[string]int `db:"-"`
}

// CanAfford checks if the user has sufficient credits for an amount
func (u *User) CanAfford(amount int64) bool {
	return u.Credits >= amount
}

// EloFor returns the user's ELO for a game, defaulting when unrated
func (u *User) EloFor(gameID string) int {
	if elo, ok := u.Elo[gameID]; ok {
		return elo
	}
	return DefaultElo
}

// SetElo records a new per-game rating on the in-memory entity
func (u *User) SetElo(gameID string, elo int) {
	if u.Elo == nil {
		u.Elo = make(map[string]int)
	}
	u.Elo[gameID] = elo
}

// ValidateAmount checks if an amount is valid (positive and affordable)
func (u *User) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	if !u.CanAfford(amount) {
		return ErrInsufficientFunds
	}
	return nil
}
