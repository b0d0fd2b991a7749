package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/salatiso/lifesync/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		token TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		answers TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceQuestions swaps the full question set in one transaction. The
// position column preserves the order of the source file.
func (s *Store) ReplaceQuestions(questions []model.Question) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM questions`); err != nil {
		return err
	}
	for i, q := range questions {
		payload, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question %s: %w", q.ID(), err)
		}
		_, err = tx.Exec(
			`INSERT INTO questions (id, position, kind, payload) VALUES (?, ?, ?, ?)`,
			q.ID(), i, string(q.Kind()), string(payload),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListQuestions returns all questions in import order.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT payload FROM questions ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		q, err := model.DecodeQuestion([]byte(payload))
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id string) (model.Question, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM questions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	return model.DecodeQuestion([]byte(payload))
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
