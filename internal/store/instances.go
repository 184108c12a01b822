package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/google/uuid"
)

const instanceColumns = `id, name, client_kind, config_path, is_default, last_synced, last_modified, created_at`

// CreateInstance inserts a client instance.
func (s *Store) CreateInstance(inst *models.ClientInstance) error {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = s.timestamp()
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO instances (`+instanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, inst.Name, string(inst.ClientKind), inst.ConfigPath, inst.IsDefault,
			nullTime(inst.LastSynced), nullTime(inst.LastModified), formatTime(inst.CreatedAt),
		)
		if err != nil {
			return classify("insert instance", err)
		}
		return nil
	})
}

// UpdateInstance overwrites the stored fields of an instance.
// The enabled-server list is not written; use SetEnablement for that.
func (s *Store) UpdateInstance(inst *models.ClientInstance) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE instances SET name = ?, client_kind = ?, config_path = ?, is_default = ?,
			 last_synced = ?, last_modified = ? WHERE id = ?`,
			inst.Name, string(inst.ClientKind), inst.ConfigPath, inst.IsDefault,
			nullTime(inst.LastSynced), nullTime(inst.LastModified), inst.ID,
		)
		if err != nil {
			return classify("update instance", err)
		}
		return requireAffected(res, "update instance")
	})
}

// DeleteInstance removes an instance along with its enablements and backup rows.
func (s *Store) DeleteInstance(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM instances WHERE id = ?`, id)
		if err != nil {
			return classify("delete instance", err)
		}
		return requireAffected(res, "delete instance")
	})
}

// GetInstance retrieves an instance with its enabled servers populated.
func (s *Store) GetInstance(id string) (*models.ClientInstance, error) {
	var inst *models.ClientInstance
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+instanceColumns+` FROM instances WHERE id = ?`, id)
		got, err := scanInstance(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("instance %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		enabled, err := enabledServers(tx, id)
		if err != nil {
			return err
		}
		got.EnabledServers = enabled
		inst = got
		return nil
	})
	return inst, err
}

// ListInstances returns all instances, default first, then by name.
func (s *Store) ListInstances() ([]models.ClientInstance, error) {
	var instances []models.ClientInstance
	err := s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT ` + instanceColumns + ` FROM instances ORDER BY is_default DESC, name ASC, id ASC`)
		if err != nil {
			return fmt.Errorf("query instances: %w", err)
		}
		for rows.Next() {
			inst, err := scanInstance(rows)
			if err != nil {
				rows.Close()
				return err
			}
			instances = append(instances, *inst)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		// Secondary read for the derived enabled-server lists.
		byInstance, err := allEnablements(tx)
		if err != nil {
			return err
		}
		for i := range instances {
			instances[i].EnabledServers = byInstance[instances[i].ID]
			if instances[i].EnabledServers == nil {
				instances[i].EnabledServers = []string{}
			}
		}
		return nil
	})
	return instances, err
}

// SetDefaultInstance marks one instance as the default and clears the flag elsewhere.
func (s *Store) SetDefaultInstance(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE instances SET is_default = 0 WHERE id <> ?`, id); err != nil {
			return fmt.Errorf("clear default: %w", err)
		}
		res, err := tx.Exec(`UPDATE instances SET is_default = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("set default: %w", err)
		}
		return requireAffected(res, "set default instance")
	})
}

// MarkSynced stamps last_synced on an instance.
func (s *Store) MarkSynced(id string, at time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE instances SET last_synced = ? WHERE id = ?`, formatTime(at), id)
		if err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
		return requireAffected(res, "mark synced")
	})
}

// SetEnablement upserts the enablement of a server on an instance and
// advances the instance's last_modified stamp in the same transaction.
func (s *Store) SetEnablement(instanceID, serverID string, enabled bool) error {
	return s.withTx(func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRow(`SELECT last_modified FROM instances WHERE id = ?`, instanceID).Scan(&prev)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("instance %s: %w", instanceID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("query instance: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO instance_servers (instance_id, server_id, enabled) VALUES (?, ?, ?)
			 ON CONFLICT(instance_id, server_id) DO UPDATE SET enabled = excluded.enabled`,
			instanceID, serverID, enabled,
		)
		if err != nil {
			return classify("set enablement", err)
		}

		// The stamp must strictly advance even when the clock does not.
		stamp := s.timestamp()
		if last := parseNullTime(prev); last != nil && !stamp.After(*last) {
			stamp = last.Add(time.Microsecond)
		}
		if _, err := tx.Exec(`UPDATE instances SET last_modified = ? WHERE id = ?`, formatTime(stamp), instanceID); err != nil {
			return fmt.Errorf("stamp last_modified: %w", err)
		}
		return nil
	})
}

// EnabledServersFor returns the IDs of servers enabled on an instance.
func (s *Store) EnabledServersFor(instanceID string) ([]string, error) {
	var ids []string
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		ids, err = enabledServers(tx, instanceID)
		return err
	})
	return ids, err
}

func enabledServers(tx *sql.Tx, instanceID string) ([]string, error) {
	rows, err := tx.Query(
		`SELECT server_id FROM instance_servers WHERE instance_id = ? AND enabled = 1 ORDER BY rowid`,
		instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query enabled servers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan enabled server: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func allEnablements(tx *sql.Tx) (map[string][]string, error) {
	rows, err := tx.Query(`SELECT instance_id, server_id FROM instance_servers WHERE enabled = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query enablements: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var instanceID, serverID string
		if err := rows.Scan(&instanceID, &serverID); err != nil {
			return nil, fmt.Errorf("scan enablement: %w", err)
		}
		out[instanceID] = append(out[instanceID], serverID)
	}
	return out, rows.Err()
}

func scanInstance(row rowScanner) (*models.ClientInstance, error) {
	var (
		inst                     models.ClientInstance
		kind, createdAt          string
		lastSynced, lastModified sql.NullString
	)
	err := row.Scan(&inst.ID, &inst.Name, &kind, &inst.ConfigPath, &inst.IsDefault,
		&lastSynced, &lastModified, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan instance: %w", err)
	}
	inst.ClientKind = models.ParseClientKind(kind)
	inst.LastSynced = parseNullTime(lastSynced)
	inst.LastModified = parseNullTime(lastModified)
	inst.CreatedAt = parseTime(createdAt)
	inst.EnabledServers = []string{}
	return &inst, nil
}
