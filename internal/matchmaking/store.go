package matchmaking

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/rpsarena/backend/internal/model"
)

// ErrNoDatabase is returned by store writes when the service runs without a
// configured database.
var ErrNoDatabase = errors.New("no database configured")

// Match mirrors one row of the match table.
type Match struct {
	ID         model.ID `db:"id"`
	Player1ID  model.ID `db:"player_1_id"`
	Player2ID  model.ID `db:"player_2_id"`
	GamesToWin int      `db:"games_to_win"`
}

// MatchResult mirrors one row of the match_results table.
type MatchResult struct {
	ID           model.ID `db:"id"`
	Player1Score int64    `db:"player_1_score"`
	Player2Score int64    `db:"player_2_score"`
}

// Store is the matchmaking persistence adapter.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps db, which may be nil for a database-less deployment.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// InsertMatch records a freshly created match.
func (s *Store) InsertMatch(ctx context.Context, id, player1, player2 model.ID, gamesToWin uint8) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO match (id, player_1_id, player_2_id, games_to_win)
		VALUES (:id, :player_1_id, :player_2_id, :games_to_win)
	`, &Match{
		ID:         id,
		Player1ID:  player1,
		Player2ID:  player2,
		GamesToWin: int(gamesToWin),
	})
	return err
}

// InsertMatchResult records the final score of a completed match.
func (s *Store) InsertMatchResult(ctx context.Context, id model.ID, player1Score, player2Score uint32) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO match_results (id, player_1_score, player_2_score)
		VALUES (:id, :player_1_score, :player_2_score)
	`, &MatchResult{
		ID:           id,
		Player1Score: int64(player1Score),
		Player2Score: int64(player2Score),
	})
	return err
}

// GetMatch loads one match row.
func (s *Store) GetMatch(ctx context.Context, id model.ID) (*Match, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var m Match
	if err := s.db.GetContext(ctx, &m, `
		SELECT id, player_1_id, player_2_id, games_to_win
		FROM match WHERE id = $1
	`, id); err != nil {
		return nil, err
	}
	return &m, nil
}
