package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/salatiso/lifesync/internal/model"
)

// ExportAllReports builds an export of every stored report, including
// ones that have already expired.
func (s *Store) ExportAllReports() (model.ReportExport, error) {
	rows, err := s.db.Query(
		`SELECT token, summary, answers, created_at, expires_at FROM reports ORDER BY created_at`,
	)
	if err != nil {
		return model.ReportExport{}, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []model.StoredReport
	for rows.Next() {
		var (
			r       model.StoredReport
			answers string
		)
		if err := rows.Scan(&r.Token, &r.Summary, &answers, &r.CreatedAt, &r.ExpiresAt); err != nil {
			return model.ReportExport{}, err
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return model.ReportExport{}, fmt.Errorf("unmarshal answers for %s: %w", r.Token, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return model.ReportExport{}, err
	}

	return model.ReportExport{
		ExportedAt: time.Now(),
		Count:      len(reports),
		Reports:    reports,
	}, nil
}
