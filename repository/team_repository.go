package repository

import (
	"context"
	"fmt"

	"stakearena/database"
	"stakearena/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TeamRepository implements the TeamRepository interface
type TeamRepository struct {
	q Queryable
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{q: db.Pool}
}

// newTeamRepository creates a new team repository bound to a transaction
func newTeamRepository(tx Queryable) *TeamRepository {
	return &TeamRepository{q: tx}
}

// GetByID retrieves a team with its roster and per-game ratings
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*entities.Team, error) {
	query := `
		SELECT id, name, captain_id, wins, losses, created_at
		FROM teams
		WHERE id = $1
	`

	var team entities.Team
	err := r.q.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.CaptainID,
		&team.Wins,
		&team.Losses,
		&team.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	memberRows, err := r.q.Query(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load members for team %d: %w", id, err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var userID int64
		if err := memberRows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team.MemberIDs = append(team.MemberIDs, userID)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team members: %w", err)
	}

	eloRows, err := r.q.Query(ctx,
		`SELECT game_id, elo FROM team_game_elo WHERE team_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load elo for team %d: %w", id, err)
	}
	defer eloRows.Close()

	team.Elo = make(map[string]int)
	for eloRows.Next() {
		var gameID string
		var elo int
		if err := eloRows.Scan(&gameID, &elo); err != nil {
			return nil, fmt.Errorf("failed to scan team elo row: %w", err)
		}
		team.Elo[gameID] = elo
	}
	if err := eloRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team elo rows: %w", err)
	}

	return &team, nil
}

// Create creates a team and its initial roster
func (r *TeamRepository) Create(ctx context.Context, team *entities.Team) error {
	query := `
		INSERT INTO teams (name, captain_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, team.Name, team.CaptainID).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team %s: %w", team.Name, err)
	}

	for _, memberID := range team.MemberIDs {
		_, err := r.q.Exec(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			team.ID, memberID)
		if err != nil {
			return fmt.Errorf("failed to add member %d to team %d: %w", memberID, team.ID, err)
		}
	}
	return nil
}

// UpdateRecord writes a team's win/loss counters
func (r *TeamRepository) UpdateRecord(ctx context.Context, teamID int64, wins, losses int) error {
	query := `
		UPDATE teams
		SET wins = $1, losses = $2
		WHERE id = $3
	`
	result, err := r.q.Exec(ctx, query, wins, losses, teamID)
	if err != nil {
		return fmt.Errorf("failed to update record for team %d: %w", teamID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %d: %w", teamID, entities.ErrNotFound)
	}
	return nil
}

// UpsertElo writes a team's rating for one game
func (r *TeamRepository) UpsertElo(ctx context.Context, teamID int64, gameID string, elo int) error {
	query := `
		INSERT INTO team_game_elo (team_id, game_id, elo)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, game_id) DO UPDATE SET elo = EXCLUDED.elo, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, teamID, gameID, elo); err != nil {
		return fmt.Errorf("failed to upsert elo for team %d game %s: %w", teamID, gameID, err)
	}
	return nil
}
