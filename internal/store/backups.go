package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/google/uuid"
)

// CreateBackup records a backup file taken for an instance.
func (s *Store) CreateBackup(b *models.ConfigBackup) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.timestamp()
	}
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO backups (id, instance_id, backup_path, created_at) VALUES (?, ?, ?, ?)`,
			b.ID, b.InstanceID, b.BackupPath, formatTime(b.CreatedAt),
		)
		if err != nil {
			return classify("insert backup", err)
		}
		return nil
	})
}

// GetBackup retrieves a backup record by ID.
func (s *Store) GetBackup(id string) (*models.ConfigBackup, error) {
	var b *models.ConfigBackup
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT id, instance_id, backup_path, created_at FROM backups WHERE id = ?`, id)
		got, err := scanBackup(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("backup %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		b = got
		return nil
	})
	return b, err
}

// BackupsFor returns an instance's backups, most recent first.
func (s *Store) BackupsFor(instanceID string) ([]models.ConfigBackup, error) {
	var out []models.ConfigBackup
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		out, err = queryBackups(tx,
			`SELECT id, instance_id, backup_path, created_at FROM backups
			 WHERE instance_id = ? ORDER BY created_at DESC, rowid DESC`, instanceID)
		return err
	})
	return out, err
}

// PruneBackups deletes all but the keep most recent backups of an instance
// and returns the removed records so their files can be deleted.
func (s *Store) PruneBackups(instanceID string, keep int) ([]models.ConfigBackup, error) {
	if keep < 0 {
		keep = 0
	}
	var removed []models.ConfigBackup
	err := s.withTx(func(tx *sql.Tx) error {
		all, err := queryBackups(tx,
			`SELECT id, instance_id, backup_path, created_at FROM backups
			 WHERE instance_id = ? ORDER BY created_at DESC, rowid DESC`, instanceID)
		if err != nil {
			return err
		}
		if len(all) <= keep {
			return nil
		}
		for _, b := range all[keep:] {
			if _, err := tx.Exec(`DELETE FROM backups WHERE id = ?`, b.ID); err != nil {
				return fmt.Errorf("delete backup: %w", err)
			}
			removed = append(removed, b)
		}
		return nil
	})
	return removed, err
}

// BackupsOlderThan returns backups created before cutoff, excluding the
// newest backup of each instance.
func (s *Store) BackupsOlderThan(cutoff time.Time) ([]models.ConfigBackup, error) {
	var out []models.ConfigBackup
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		out, err = queryBackups(tx,
			`SELECT b.id, b.instance_id, b.backup_path, b.created_at FROM backups b
			 WHERE b.created_at < ?
			 AND b.id <> (SELECT n.id FROM backups n WHERE n.instance_id = b.instance_id
			              ORDER BY n.created_at DESC, n.rowid DESC LIMIT 1)
			 ORDER BY b.created_at ASC`, formatTime(cutoff))
		return err
	})
	return out, err
}

// DeleteBackup removes a backup record.
func (s *Store) DeleteBackup(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM backups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete backup: %w", err)
		}
		return requireAffected(res, "delete backup")
	})
}

func queryBackups(tx *sql.Tx, query string, args ...any) ([]models.ConfigBackup, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	out := []models.ConfigBackup{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBackup(row rowScanner) (*models.ConfigBackup, error) {
	var (
		b         models.ConfigBackup
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.InstanceID, &b.BackupPath, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan backup: %w", err)
	}
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}
