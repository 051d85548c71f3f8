package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
)

const instanceIDKey = "instance_id"

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS identity (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS diagnostic_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		prompt TEXT NOT NULL,
		response TEXT,
		provider TEXT,
		cached INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_diagnostic_user ON diagnostic_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_diagnostic_created ON diagnostic_history(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InstanceID returns the opaque identifier for this installation, creating
// and persisting it on first use. It is only ever sent to the diagnostic
// provider as an anonymization handle.
func (c *Client) InstanceID() (string, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM identity WHERE key = ?`, instanceIDKey).Scan(&value)
	if err == nil {
		return value, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to read instance id: %w", err)
	}

	value = uuid.New().String()
	_, err = c.db.Exec(
		`INSERT INTO identity (key, value, created_at) VALUES (?, ?, ?)`,
		instanceIDKey, value, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to persist instance id: %w", err)
	}

	logger.Info("Instance id created", zap.String("instance_id", value))
	return value, nil
}

func (c *Client) InsertDiagnosticRecord(record *models.DiagnosticRecord) error {
	cached := 0
	if record.Cached {
		cached = 1
	}

	_, err := c.db.Exec(
		`INSERT INTO diagnostic_history (id, user_id, prompt, response, provider, cached, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Prompt,
		record.Response,
		record.Provider,
		cached,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic record: %w", err)
	}

	return nil
}

func (c *Client) GetDiagnosticHistory(userID string, limit int) ([]models.DiagnosticRecord, error) {
	rows, err := c.db.Query(
		`SELECT id, user_id, prompt, response, provider, cached, latency_ms, created_at
		 FROM diagnostic_history
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostic history: %w", err)
	}
	defer rows.Close()

	var records []models.DiagnosticRecord
	for rows.Next() {
		var r models.DiagnosticRecord
		var cached int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.UserID, &r.Prompt, &r.Response, &r.Provider, &cached, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Cached = cached == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}
