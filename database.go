package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the local SQLite database: persisted session, settings, and
// cached leaderboard/match data so the menus stay usable while the backend
// is briefly unreachable.
type DB struct {
	conn *sql.DB
}

// LeaderboardEntry is one leaderboard row
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"playerId"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Games    int    `json:"gamesPlayed"`
}

// MatchRecord is one finished match from the local history
type MatchRecord struct {
	ID       int64
	RoomID   string
	Outcome  string
	Opponent string
	EndedAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS leaderboard_cache (
	player_id  INTEGER PRIMARY KEY,
	rank       INTEGER NOT NULL,
	username   TEXT NOT NULL,
	wins       INTEGER NOT NULL DEFAULT 0,
	losses     INTEGER NOT NULL DEFAULT 0,
	games      INTEGER NOT NULL DEFAULT 0,
	fetched_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS match_history (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id  TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	opponent TEXT NOT NULL DEFAULT '',
	ended_at TIMESTAMP NOT NULL
);
`

// OpenDB opens (and if needed creates) the local database at path.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetSetting returns a setting value, or "" when absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting stores a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveLeaderboard replaces the cached leaderboard
func (db *DB) SaveLeaderboard(entries []LeaderboardEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM leaderboard_cache`); err != nil {
		return err
	}
	now := time.Now()
	for _, e := range entries {
		_, err := tx.Exec(
			`INSERT INTO leaderboard_cache (player_id, rank, username, wins, losses, games, fetched_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.PlayerID, e.Rank, e.Username, e.Wins, e.Losses, e.Games, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Leaderboard returns the cached leaderboard ordered by rank
func (db *DB) Leaderboard() ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		`SELECT player_id, rank, username, wins, losses, games
		 FROM leaderboard_cache ORDER BY rank ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Rank, &e.Username, &e.Wins, &e.Losses, &e.Games); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddMatchResult appends a finished match to the local history
func (db *DB) AddMatchResult(roomID, outcome, opponent string) error {
	_, err := db.conn.Exec(
		`INSERT INTO match_history (room_id, outcome, opponent, ended_at) VALUES (?, ?, ?, ?)`,
		roomID, outcome, opponent, time.Now())
	return err
}

// RecentMatches returns the latest n matches, newest first
func (db *DB) RecentMatches(n int) ([]MatchRecord, error) {
	rows, err := db.conn.Query(
		`SELECT id, room_id, outcome, opponent, ended_at
		 FROM match_history ORDER BY ended_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Outcome, &m.Opponent, &m.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
