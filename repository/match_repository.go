package repository

import (
	"context"
	"fmt"
	"time"

	"stakearena/database"
	"stakearena/domain/entities"
	"stakearena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements match data access
type MatchRepository struct {
	q Queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepository creates a new match repository bound to a transaction
func newMatchRepository(tx Queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

const matchColumns = `
	id, game_id, wager, team_size, status, privacy, invite_code,
	region, platform, prize_pool, winner_side, team_a_id, team_b_id,
	dispute_deadline, created_at, started_at, settled_at`

func scanMatch(row pgx.Row) (*entities.Match, error) {
	var match entities.Match
	err := row.Scan(
		&match.ID,
		&match.GameID,
		&match.Wager,
		&match.TeamSize,
		&match.Status,
		&match.Privacy,
		&match.InviteCode,
		&match.Region,
		&match.Platform,
		&match.PrizePool,
		&match.WinnerSide,
		&match.TeamAID,
		&match.TeamBID,
		&match.DisputeDeadline,
		&match.CreatedAt,
		&match.StartedAt,
		&match.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return &match, nil
}

// Create persists a new match and any pre-seeded participants
func (r *MatchRepository) Create(ctx context.Context, match *entities.Match) error {
	query := `
		INSERT INTO matches (
			game_id, wager, team_size, status, privacy, invite_code,
			region, platform, prize_pool, winner_side, team_a_id, team_b_id,
			dispute_deadline, started_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.GameID,
		match.Wager,
		match.TeamSize,
		match.Status,
		match.Privacy,
		match.InviteCode,
		match.Region,
		match.Platform,
		match.PrizePool,
		match.WinnerSide,
		match.TeamAID,
		match.TeamBID,
		match.DisputeDeadline,
		match.StartedAt,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	for _, p := range match.Participants {
		p.MatchID = match.ID
		if err := r.AddParticipant(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *MatchRepository) getBy(ctx context.Context, where string, arg any, forUpdate bool) (*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}

	match, err := scanMatch(r.q.QueryRow(ctx, query, arg))
	if match == nil || err != nil {
		return nil, err
	}

	if err := r.loadParticipants(ctx, match); err != nil {
		return nil, err
	}
	if err := r.loadEvidence(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// GetByID retrieves a match with participants and evidence
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*entities.Match, error) {
	return r.getBy(ctx, `id = $1`, id, false)
}

// GetByIDForUpdate retrieves a match and locks its row so racing mutations
// serialize per match
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error) {
	return r.getBy(ctx, `id = $1`, id, true)
}

// GetByInviteCode resolves a private lobby by its invite code
func (r *MatchRepository) GetByInviteCode(ctx context.Context, code string) (*entities.Match, error) {
	return r.getBy(ctx, `invite_code = $1`, code, true)
}

func (r *MatchRepository) loadParticipants(ctx context.Context, match *entities.Match) error {
	rows, err := r.q.Query(ctx, `
		SELECT match_id, user_id, side, ready, joined_at
		FROM match_participants
		WHERE match_id = $1
		ORDER BY joined_at, user_id
	`, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants for match %d: %w", match.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p entities.MatchParticipant
		if err := rows.Scan(&p.MatchID, &p.UserID, &p.Side, &p.Ready, &p.JoinedAt); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		match.Participants = append(match.Participants, &p)
	}
	return rows.Err()
}

func (r *MatchRepository) loadEvidence(ctx context.Context, match *entities.Match) error {
	rows, err := r.q.Query(ctx, `
		SELECT match_id, user_id, youtube_link, message, submitted_at
		FROM match_evidence
		WHERE match_id = $1
		ORDER BY submitted_at
	`, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load evidence for match %d: %w", match.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e entities.Evidence
		if err := rows.Scan(&e.MatchID, &e.UserID, &e.YoutubeLink, &e.Message, &e.SubmittedAt); err != nil {
			return fmt.Errorf("failed to scan evidence: %w", err)
		}
		match.Evidence = append(match.Evidence, &e)
	}
	return rows.Err()
}

// Update writes the match's mutable columns. The write is guarded by the
// status the match had when it was read; a lost race surfaces as
// entities.ErrInvalidTransition.
func (r *MatchRepository) Update(ctx context.Context, match *entities.Match, expectedStatus entities.MatchStatus) error {
	query := `
		UPDATE matches
		SET status = $2,
		    prize_pool = $3,
		    winner_side = $4,
		    dispute_deadline = $5,
		    started_at = $6,
		    settled_at = $7
		WHERE id = $1 AND status = $8
	`
	result, err := r.q.Exec(ctx, query,
		match.ID,
		match.Status,
		match.PrizePool,
		match.WinnerSide,
		match.DisputeDeadline,
		match.StartedAt,
		match.SettledAt,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %d no longer in status %s: %w",
			match.ID, expectedStatus, entities.ErrInvalidTransition)
	}
	return nil
}

// AddParticipant appends a user to a side
func (r *MatchRepository) AddParticipant(ctx context.Context, p *entities.MatchParticipant) error {
	query := `
		INSERT INTO match_participants (match_id, user_id, side, ready)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`
	err := r.q.QueryRow(ctx, query, p.MatchID, p.UserID, p.Side, p.Ready).Scan(&p.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add participant %d to match %d: %w", p.UserID, p.MatchID, err)
	}
	return nil
}

// SetParticipantReady idempotently marks a lobby participant ready
func (r *MatchRepository) SetParticipantReady(ctx context.Context, matchID, userID int64) error {
	query := `
		UPDATE match_participants
		SET ready = TRUE
		WHERE match_id = $1 AND user_id = $2
	`
	result, err := r.q.Exec(ctx, query, matchID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark participant %d ready in match %d: %w", userID, matchID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d in match %d: %w", userID, matchID, entities.ErrNotFound)
	}
	return nil
}

// AddEvidence inserts a dispute submission. Returns false when the user
// already has one; the first submission is never overwritten.
func (r *MatchRepository) AddEvidence(ctx context.Context, e *entities.Evidence) (bool, error) {
	query := `
		INSERT INTO match_evidence (match_id, user_id, youtube_link, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id, user_id) DO NOTHING
		RETURNING submitted_at
	`
	err := r.q.QueryRow(ctx, query, e.MatchID, e.UserID, e.YoutubeLink, e.Message).Scan(&e.SubmittedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add evidence for match %d user %d: %w", e.MatchID, e.UserID, err)
	}
	return true, nil
}

// List returns matches matching the filter, newest first
func (r *MatchRepository) List(ctx context.Context, filter interfaces.MatchFilter) ([]*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	var args []any

	addArg := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.Status != nil {
		addArg(` AND status = $%d`, *filter.Status)
	}
	if filter.GameID != nil {
		addArg(` AND game_id = $%d`, *filter.GameID)
	}
	if filter.Region != nil {
		addArg(` AND region = $%d`, *filter.Region)
	}
	if filter.MinWager != nil {
		addArg(` AND wager >= $%d`, *filter.MinWager)
	}
	if filter.MaxWager != nil {
		addArg(` AND wager <= $%d`, *filter.MaxWager)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		addArg(` LIMIT $%d`, filter.Limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches, err := collectMatches(rows)
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		if err := r.loadParticipants(ctx, match); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

// GetExpiredDisputes returns matches whose dispute deadline has lapsed and
// whose status still allows auto-resolution
func (r *MatchRepository) GetExpiredDisputes(ctx context.Context, now time.Time) ([]*entities.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE status IN ($1, $2)
		  AND dispute_deadline IS NOT NULL
		  AND dispute_deadline <= $3
		ORDER BY dispute_deadline
	`
	rows, err := r.q.Query(ctx, query,
		entities.MatchStatusDisputed, entities.MatchStatusAwaitingOpponentEvidence, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired disputes: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// GetNextDisputeDeadline returns the earliest pending dispute deadline
func (r *MatchRepository) GetNextDisputeDeadline(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT MIN(dispute_deadline)
		FROM matches
		WHERE status IN ($1, $2)
		  AND dispute_deadline IS NOT NULL
	`
	var next *time.Time
	err := r.q.QueryRow(ctx, query,
		entities.MatchStatusDisputed, entities.MatchStatusAwaitingOpponentEvidence).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to get next dispute deadline: %w", err)
	}
	return next, nil
}

// CountLockInducingByUser derives the matchmaking lock from match state.
// A dispute no longer counts against a user once they have submitted their
// own evidence for it.
func (r *MatchRepository) CountLockInducingByUser(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM matches m
		JOIN match_participants mp ON mp.match_id = m.id
		WHERE mp.user_id = $1
		  AND m.status IN ($2, $3, $4, $5)
		  AND NOT EXISTS (
		      SELECT 1 FROM match_evidence me
		      WHERE me.match_id = m.id AND me.user_id = mp.user_id
		  )
	`
	var count int
	err := r.q.QueryRow(ctx, query, userID,
		entities.MatchStatusInProgress,
		entities.MatchStatusDisputed,
		entities.MatchStatusAwaitingOpponentEvidence,
		entities.MatchStatusAwaitingAdminReview,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lock-inducing matches for user %d: %w", userID, err)
	}
	return count, nil
}

func collectMatches(rows pgx.Rows) ([]*entities.Match, error) {
	var matches []*entities.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}
