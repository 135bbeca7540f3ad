package entities

import "time"

// Team represents a captained roster of players. Teams carry their own per-game
// ELO and win/loss record but no wallet: stakes are always paid by the member
// players themselves.
type Team struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CaptainID int64     `db:"captain_id"`
	Wins      int       `db:"wins"`
	Losses    int       `db:"losses"`
	CreatedAt time.Time `db:"created_at"`

	// MemberIDs is populated from team_members. A match freezes its roster at
	// join time via match_participants, so later membership changes never
	// affect in-flight matches.
	MemberIDs []int64 `db:"-"`

	// Elo maps game ID to the team's rating for that game.
	Elo map[string]int `db:"-"`
}

// EloFor returns the team's ELO for a game, defaulting when unrated
func (t *Team) EloFor(gameID string) int {
	if elo, ok := t.Elo[gameID]; ok {
		return elo
	}
	return DefaultElo
}

// SetElo records a new per-game rating on the in-memory entity
func (t *Team) SetElo(gameID string, elo int) {
	if t.Elo == nil {
		t.Elo = make(map[string]int)
	}
	t.Elo[gameID] = elo
}

// HasMember checks whether a user is on the team's current roster
func (t *Team) HasMember(userID int64) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
