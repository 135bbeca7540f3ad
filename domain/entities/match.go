package entities

import (
	"regexp"
	"time"
)

// MatchStatus represents the lifecycle state of a wagered match
type MatchStatus string

const (
	MatchStatusLobby                    MatchStatus = "lobby"
	MatchStatusOpen                     MatchStatus = "open"
	MatchStatusInProgress               MatchStatus = "in_progress"
	MatchStatusCompleted                MatchStatus = "completed"
	MatchStatusDisputed                 MatchStatus = "disputed"
	MatchStatusAwaitingOpponentEvidence MatchStatus = "awaiting_opponent_evidence"
	MatchStatusAwaitingAdminReview      MatchStatus = "awaiting_admin_review"
	MatchStatusRefunded                 MatchStatus = "refunded"
)

// IsTerminal reports whether the status is a permanent record
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusRefunded
}

// IsLockInducing reports whether participants of a match in this status are
// barred from starting or joining other wagered matches
func (s MatchStatus) IsLockInducing() bool {
	switch s {
	case MatchStatusInProgress, MatchStatusDisputed,
		MatchStatusAwaitingOpponentEvidence, MatchStatusAwaitingAdminReview:
		return true
	}
	return false
}

// IsDisputePath reports whether the status belongs to the dispute sub-machine
func (s MatchStatus) IsDisputePath() bool {
	return s == MatchStatusDisputed ||
		s == MatchStatusAwaitingOpponentEvidence ||
		s == MatchStatusAwaitingAdminReview
}

// CanAutoResolve reports whether a lapsed deadline may settle the match
// without human review
func (s MatchStatus) CanAutoResolve() bool {
	return s == MatchStatusDisputed || s == MatchStatusAwaitingOpponentEvidence
}

// Side identifies one of the two opposing parties of a match
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Valid reports whether the side is one of the two known values
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// MatchPrivacy controls whether a match is joinable publicly or by invite code
type MatchPrivacy string

const (
	MatchPrivacyPublic  MatchPrivacy = "public"
	MatchPrivacyPrivate MatchPrivacy = "private"
)

// TeamSize is the per-side player count, 1 for 1v1 through 5 for 5v5
type TeamSize int

const (
	TeamSizeSolo TeamSize = 1
	TeamSizeMax  TeamSize = 5
)

// Valid reports whether the team size is within the supported range
func (ts TeamSize) Valid() bool {
	return ts >= TeamSizeSolo && ts <= TeamSizeMax
}

// PlayersPerSide returns the number of slots on each side
func (ts TeamSize) PlayersPerSide() int {
	return int(ts)
}

// Match represents a wagered match between two sides
type Match struct {
	ID              int64        `db:"id"`
	GameID          string       `db:"game_id"`
	Wager           int64        `db:"wager"` // per-player stake
	TeamSize        TeamSize     `db:"team_size"`
	Status          MatchStatus  `db:"status"`
	Privacy         MatchPrivacy `db:"privacy"`
	InviteCode      *string      `db:"invite_code"`
	Region          string       `db:"region"`
	Platform        string       `db:"platform"`
	PrizePool       int64        `db:"prize_pool"`
	WinnerSide      *Side        `db:"winner_side"`
	TeamAID         *int64       `db:"team_a_id"`
	TeamBID         *int64       `db:"team_b_id"`
	DisputeDeadline *time.Time   `db:"dispute_deadline"`
	CreatedAt       time.Time    `db:"created_at"`
	StartedAt       *time.Time   `db:"started_at"`
	SettledAt       *time.Time   `db:"settled_at"`

	// Participants and Evidence are populated from match_participants and
	// match_evidence alongside the match row.
	Participants []*MatchParticipant `db:"-"`
	Evidence     []*Evidence         `db:"-"`
}

// MatchParticipant is a user's frozen slot on one side of a match
type MatchParticipant struct {
	MatchID  int64     `db:"match_id"`
	UserID   int64     `db:"user_id"`
	Side     Side      `db:"side"`
	Ready    bool      `db:"ready"`
	JoinedAt time.Time `db:"joined_at"`
}

// Evidence is a participant's dispute submission. Rows are insert-only and
// keyed by (match, user): the first submission wins.
type Evidence struct {
	MatchID     int64     `db:"match_id"`
	UserID      int64     `db:"user_id"`
	YoutubeLink string    `db:"youtube_link"`
	Message     string    `db:"message"`
	SubmittedAt time.Time `db:"submitted_at"`
}

var youtubeLinkPattern = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube\.com/(watch\?v=|shorts/)|youtu\.be/)[A-Za-z0-9_-]{6,}`)

// IsValidYoutubeLink reports whether a link matches the accepted YouTube URL forms
func IsValidYoutubeLink(link string) bool {
	return youtubeLinkPattern.MatchString(link)
}

// SideOf returns the side a user participates on
func (m *Match) SideOf(userID int64) (Side, bool) {
	for _, p := range m.Participants {
		if p.UserID == userID {
			return p.Side, true
		}
	}
	return "", false
}

// IsParticipant reports whether a user is on either side
func (m *Match) IsParticipant(userID int64) bool {
	_, ok := m.SideOf(userID)
	return ok
}

// SidePlayers returns the user IDs on one side, in join order
func (m *Match) SidePlayers(side Side) []int64 {
	var ids []int64
	for _, p := range m.Participants {
		if p.Side == side {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// CountOnSide returns the number of filled slots on one side
func (m *Match) CountOnSide(side Side) int {
	n := 0
	for _, p := range m.Participants {
		if p.Side == side {
			n++
		}
	}
	return n
}

// SideFull reports whether a side has no open slots
func (m *Match) SideFull(side Side) bool {
	return m.CountOnSide(side) >= m.TeamSize.PlayersPerSide()
}

// IsFull reports whether both sides have no open slots
func (m *Match) IsFull() bool {
	return m.SideFull(SideA) && m.SideFull(SideB)
}

// SmallerSide returns the side with fewer filled slots, preferring A on ties
func (m *Match) SmallerSide() Side {
	if m.CountOnSide(SideB) < m.CountOnSide(SideA) {
		return SideB
	}
	return SideA
}

// AllReady reports whether every participant has marked ready
func (m *Match) AllReady() bool {
	for _, p := range m.Participants {
		if !p.Ready {
			return false
		}
	}
	return len(m.Participants) > 0
}

// EvidenceFrom returns a user's evidence submission, if any
func (m *Match) EvidenceFrom(userID int64) *Evidence {
	for _, e := range m.Evidence {
		if e.UserID == userID {
			return e
		}
	}
	return nil
}

// SideHasEvidence reports whether any participant on a side has submitted
func (m *Match) SideHasEvidence(side Side) bool {
	for _, e := range m.Evidence {
		if s, ok := m.SideOf(e.UserID); ok && s == side {
			return true
		}
	}
	return false
}

// TeamOnSide returns the associated team ID for a side, if one was registered
func (m *Match) TeamOnSide(side Side) *int64 {
	if side == SideA {
		return m.TeamAID
	}
	return m.TeamBID
}

// DeadlineLapsed reports whether the dispute deadline has passed
func (m *Match) DeadlineLapsed(now time.Time) bool {
	return m.DisputeDeadline != nil && !now.Before(*m.DisputeDeadline)
}
