package repository

import (
	"context"
	"fmt"

	"stakearena/database"
	"stakearena/domain/entities"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepository creates a new user repository bound to a transaction
func newUserRepository(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, username, credits, rating, matchmaking_locked, created_at, updated_at`

func (r *UserRepository) scanUser(ctx context.Context, row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Credits,
		&user.Rating,
		&user.MatchmakingLocked,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if err := r.loadElo(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) loadElo(ctx context.Context, user *entities.User) error {
	rows, err := r.q.Query(ctx,
		`SELECT game_id, elo FROM user_game_elo WHERE user_id = $1`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load elo for user %d: %w", user.ID, err)
	}
	defer rows.Close()

	user.Elo = make(map[string]int)
	for rows.Next() {
		var gameID string
		var elo int
		if err := rows.Scan(&gameID, &elo); err != nil {
			return fmt.Errorf("failed to scan elo row: %w", err)
		}
		user.Elo[gameID] = elo
	}
	return rows.Err()
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a user and locks the row for the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.scanUser(ctx, r.q.QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(ctx, r.q.QueryRow(ctx, query, username))
}

// Create creates a new user with the initial credit balance
func (r *UserRepository) Create(ctx context.Context, username string, initialCredits int64) (*entities.User, error) {
	query := `
		INSERT INTO users (username, credits)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	user := &entities.User{
		Username: username,
		Credits:  initialCredits,
		Elo:      make(map[string]int),
	}
	err := r.q.QueryRow(ctx, query, username, initialCredits).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	return user, nil
}

// UpdateCredits updates a user's credit balance atomically
func (r *UserRepository) UpdateCredits(ctx context.Context, userID int64, newCredits int64) error {
	query := `
		UPDATE users
		SET credits = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.q.Exec(ctx, query, newCredits, userID)
	if err != nil {
		return fmt.Errorf("failed to update credits for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	return nil
}

// UpdateRating updates a user's disciplinary rating
func (r *UserRepository) UpdateRating(ctx context.Context, userID int64, newRating int) error {
	query := `
		UPDATE users
		SET rating = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.q.Exec(ctx, query, newRating, userID)
	if err != nil {
		return fmt.Errorf("failed to update rating for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	return nil
}

// SetMatchmakingLocked writes the cached matchmaking lock flag
func (r *UserRepository) SetMatchmakingLocked(ctx context.Context, userID int64, locked bool) error {
	query := `
		UPDATE users
		SET matchmaking_locked = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.q.Exec(ctx, query, locked, userID)
	if err != nil {
		return fmt.Errorf("failed to set matchmaking lock for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	return nil
}

// UpsertElo writes a user's rating for one game
func (r *UserRepository) UpsertElo(ctx context.Context, userID int64, gameID string, elo int) error {
	query := `
		INSERT INTO user_game_elo (user_id, game_id, elo)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, game_id) DO UPDATE SET elo = EXCLUDED.elo, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, userID, gameID, elo); err != nil {
		return fmt.Errorf("failed to upsert elo for user %d game %s: %w", userID, gameID, err)
	}
	return nil
}
