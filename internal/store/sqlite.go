// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "SQLite Archive Implementation"
//   Timestamp: "2025-12-08T10:32:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Implemented SQLite adapter matching MongoDB interface"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Interface Implementation"
//   Quality_Check: "Full Store interface implementation with proper indexing"
// }}

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// SQLite implements the Store interface
type SQLite struct {
	db *sql.DB
}

// Ensure SQLite implements Store interface
var _ Store = (*SQLite)(nil)

// NewSQLite creates a new SQLite connection
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开 SQLite 数据库: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("无法 ping SQLite: %w", err)
	}

	s := &SQLite{db: db}

	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("无法创建表: %w", err)
	}

	log.Info("SQLite 连接成功")
	return s, nil
}

// createTables creates necessary tables and indexes
func (s *SQLite) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source_url TEXT NOT NULL UNIQUE,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			resolution_type TEXT NOT NULL,
			confidence REAL NOT NULL,
			topic TEXT NOT NULL,
			emitted_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source_url ON records(source_url)`,
		`CREATE INDEX IF NOT EXISTS idx_records_emitted_at ON records(emitted_at DESC)`,
		`CREATE TABLE IF NOT EXISTS skips (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			stage TEXT NOT NULL,
			reason TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_run_id ON skips(run_id, stage)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("执行查询失败: %w", err)
		}
	}

	return nil
}

// InsertRecord inserts an emitted record mirror
func (s *SQLite) InsertRecord(rec *ArchivedRecord) error {
	query := `INSERT OR IGNORE INTO records
		(run_id, source_url, question, answer, resolution_type, confidence, topic, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.Exec(query,
		rec.RunID,
		rec.SourceURL,
		rec.Question,
		rec.Answer,
		rec.ResolutionType,
		rec.Confidence,
		rec.Topic,
		rec.EmittedAt,
	)

	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err == nil && id > 0 {
		rec.ID = id
	}

	return nil
}

// RecentRecords returns the most recently emitted records
func (s *SQLite) RecentRecords(limit int) ([]*ArchivedRecord, error) {
	query := `SELECT id, run_id, source_url, question, answer, resolution_type,
		confidence, topic, emitted_at FROM records ORDER BY emitted_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ArchivedRecord
	for rows.Next() {
		var rec ArchivedRecord

		// The driver converts DATETIME columns to time.Time directly
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.SourceURL,
			&rec.Question,
			&rec.Answer,
			&rec.ResolutionType,
			&rec.Confidence,
			&rec.Topic,
			&rec.EmittedAt,
		); err != nil {
			return nil, err
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// CountRecords returns the number of archived records
func (s *SQLite) CountRecords() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// InsertSkip inserts a skip audit entry
func (s *SQLite) InsertSkip(entry *SkipEntry) error {
	query := `INSERT INTO skips (run_id, source_url, stage, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.Exec(query,
		entry.RunID,
		entry.SourceURL,
		entry.Stage,
		entry.Reason,
		entry.CreatedAt,
	)

	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err == nil && id > 0 {
		entry.ID = id
	}

	return nil
}

// SkipCounts returns per-stage skip counts for a run
func (s *SQLite) SkipCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT stage, COUNT(*) FROM skips WHERE run_id = ? GROUP BY stage`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		counts[stage] = count
	}

	return counts, rows.Err()
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("断开 SQLite 连接失败: %w", err)
	}

	log.Info("SQLite 连接已关闭")
	return nil
}

// Ping checks if the connection is alive
func (s *SQLite) Ping() error {
	return s.db.Ping()
}
