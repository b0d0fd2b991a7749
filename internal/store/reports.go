package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/salatiso/lifesync/internal/model"
)

// SaveReport persists a completed report under a fresh token with the
// given time to live.
func (s *Store) SaveReport(report model.Report, ttl time.Duration) (model.StoredReport, error) {
	token, err := generateToken()
	if err != nil {
		return model.StoredReport{}, err
	}

	answers, err := json.Marshal(report.Answers)
	if err != nil {
		return model.StoredReport{}, fmt.Errorf("marshal answers: %w", err)
	}

	now := time.Now()
	stored := model.StoredReport{
		Token:     token,
		Summary:   report.Summary,
		Answers:   report.Answers,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err = s.db.Exec(
		`INSERT INTO reports (token, summary, answers, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		stored.Token, stored.Summary, string(answers), stored.CreatedAt, stored.ExpiresAt,
	)
	if err != nil {
		return model.StoredReport{}, err
	}
	return stored, nil
}

// GetReport returns the report for the given token, or nil if not
// found or expired. Expired reports are deleted on access.
func (s *Store) GetReport(token string) (*model.StoredReport, error) {
	var (
		r       model.StoredReport
		answers string
	)
	err := s.db.QueryRow(
		`SELECT token, summary, answers, created_at, expires_at FROM reports WHERE token = ?`, token,
	).Scan(&r.Token, &r.Summary, &answers, &r.CreatedAt, &r.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(r.ExpiresAt) {
		_ = s.DeleteReport(token)
		return nil, nil
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &r, nil
}

// DeleteReport removes a report by token.
func (s *Store) DeleteReport(token string) error {
	_, err := s.db.Exec(`DELETE FROM reports WHERE token = ?`, token)
	return err
}

// PurgeExpiredReports removes all expired reports.
func (s *Store) PurgeExpiredReports() error {
	_, err := s.db.Exec(`DELETE FROM reports WHERE expires_at < ?`, time.Now())
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
