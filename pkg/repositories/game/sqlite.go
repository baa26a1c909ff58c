package game

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/db/migrations"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(ctx context.Context, dbPath string, logger *logging.Logger) (*SQLiteRepository, error) {
	// Ensure the directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	// Open the database
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Apply migrations
	if _, err := migrations.NewMigrator(db, logger).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveGameResult stores a game result and its player rows in one transaction
func (r *SQLiteRepository) SaveGameResult(ctx context.Context, result *entities.GameResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO game_results (
			id, mode, game_code, started_at, completed_at, winner_name, spins, final_pot
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		result.ID, string(result.Mode), result.GameCode, result.StartedAt.UTC(), result.CompletedAt.UTC(),
		result.WinnerName, result.Spins, result.FinalPot)
	if err != nil {
		return fmt.Errorf("error inserting game result: %w", err)
	}

	for _, pr := range result.PlayerResults {
		query := `
			INSERT INTO player_results (
				game_result_id, player_name, is_ai, final_balance, result
			) VALUES (?, ?, ?, ?, ?)`

		_, err = tx.ExecContext(ctx, query,
			result.ID, pr.PlayerName, pr.IsAI, pr.FinalBalance, resultString(pr.Result))
		if err != nil {
			return fmt.Errorf("error inserting player result: %w", err)
		}
	}

	return tx.Commit()
}

// GetPlayerResults retrieves game results a player took part in, newest first
func (r *SQLiteRepository) GetPlayerResults(ctx context.Context, playerName string) ([]*entities.GameResult, error) {
	query := `
		SELECT id, mode, game_code, started_at, completed_at, winner_name, spins, final_pot
		FROM game_results
		WHERE id IN (SELECT game_result_id FROM player_results WHERE player_name = ? COLLATE NOCASE)
		ORDER BY completed_at DESC`

	return r.queryResults(ctx, query, strings.TrimSpace(playerName))
}

// GetRecentResults retrieves the most recent game results, newest first
func (r *SQLiteRepository) GetRecentResults(ctx context.Context, limit int) ([]*entities.GameResult, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	query := `
		SELECT id, mode, game_code, started_at, completed_at, winner_name, spins, final_pot
		FROM game_results
		ORDER BY completed_at DESC
		LIMIT ?`

	return r.queryResults(ctx, query, limit)
}

// queryResults runs a game_results query, then loads the player rows of
// every game it returned
func (r *SQLiteRepository) queryResults(ctx context.Context, query string, args ...interface{}) ([]*entities.GameResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*entities.GameResult{}
	resultMap := make(map[string]*entities.GameResult)

	for rows.Next() {
		var (
			result   entities.GameResult
			mode     string
			gameCode sql.NullString
		)
		err := rows.Scan(
			&result.ID, &mode, &gameCode, &result.StartedAt, &result.CompletedAt,
			&result.WinnerName, &result.Spins, &result.FinalPot,
		)
		if err != nil {
			return nil, err
		}
		result.Mode = entities.GameMode(mode)
		result.GameCode = gameCode.String
		result.PlayerResults = []*entities.PlayerResult{}

		resultMap[result.ID] = &result
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return results, nil
	}

	placeholders := make([]string, len(results))
	ids := make([]interface{}, len(results))
	for i, result := range results {
		placeholders[i] = "?"
		ids[i] = result.ID
	}

	playerQuery := `
		SELECT game_result_id, player_name, is_ai, final_balance, result
		FROM player_results
		WHERE game_result_id IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY id`

	playerRows, err := r.db.QueryContext(ctx, playerQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer playerRows.Close()

	for playerRows.Next() {
		var (
			gameID    string
			pr        entities.PlayerResult
			resultStr string
		)
		if err := playerRows.Scan(&gameID, &pr.PlayerName, &pr.IsAI, &pr.FinalBalance, &resultStr); err != nil {
			return nil, err
		}
		pr.Result = entities.StringResult(resultStr)

		if result, exists := resultMap[gameID]; exists {
			result.PlayerResults = append(result.PlayerResults, &pr)
		}
	}

	return results, playerRows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func resultString(r entities.Result) string {
	if r == nil {
		return entities.StringResultLose.String()
	}
	return r.String()
}

// now is replaced in tests
var now = time.Now
