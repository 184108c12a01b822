package store

import (
	"database/sql"
	"fmt"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/google/uuid"
)

// RecordAudit appends an entry to the audit log.
func (s *Store) RecordAudit(action, inputsHash, outcome, subjectID, details string) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		SubjectID:  subjectID,
		Details:    details,
		Timestamp:  s.timestamp(),
	}
	err := s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO audit_log (id, action, inputs_hash, outcome, subject_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.SubjectID, entry.Details, formatTime(entry.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListAudit returns the most recent audit entries, newest first.
func (s *Store) ListAudit(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AuditEntry
	err := s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(
			`SELECT id, action, inputs_hash, outcome, subject_id, details, timestamp
			 FROM audit_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query audit log: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e                  models.AuditEntry
				subjectID, details sql.NullString
				ts                 string
			)
			if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &subjectID, &details, &ts); err != nil {
				return fmt.Errorf("scan audit entry: %w", err)
			}
			e.SubjectID = subjectID.String
			e.Details = details.String
			e.Timestamp = parseTime(ts)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}
