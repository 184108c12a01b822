package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/google/uuid"
)

const serverColumns = `id, name, description, command, args, env, tags, source_kind, source_url, created_at, updated_at`

// CreateServer inserts a server. Missing ID and timestamps are filled in.
func (s *Store) CreateServer(srv *models.Server) error {
	if srv.ID == "" {
		srv.ID = uuid.New().String()
	}
	now := s.timestamp()
	if srv.CreatedAt.IsZero() {
		srv.CreatedAt = now
	}
	if srv.UpdatedAt.IsZero() {
		srv.UpdatedAt = now
	}

	cols, err := encodeServer(srv)
	if err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO servers (`+serverColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			srv.ID, srv.Name, cols.description, srv.Command, cols.args, cols.env, cols.tags,
			cols.sourceKind, cols.sourceURL, formatTime(srv.CreatedAt), formatTime(srv.UpdatedAt),
		)
		if err != nil {
			return classify("insert server", err)
		}
		return nil
	})
}

// UpdateServer overwrites every mutable field of an existing server.
// UpdatedAt is written as given.
func (s *Store) UpdateServer(srv *models.Server) error {
	if srv.UpdatedAt.IsZero() {
		srv.UpdatedAt = s.timestamp()
	}
	cols, err := encodeServer(srv)
	if err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE servers SET name = ?, description = ?, command = ?, args = ?, env = ?, tags = ?,
			 source_kind = ?, source_url = ?, updated_at = ? WHERE id = ?`,
			srv.Name, cols.description, srv.Command, cols.args, cols.env, cols.tags,
			cols.sourceKind, cols.sourceURL, formatTime(srv.UpdatedAt), srv.ID,
		)
		if err != nil {
			return classify("update server", err)
		}
		return requireAffected(res, "update server")
	})
}

// DeleteServer removes a server. Its enablement rows cascade.
func (s *Store) DeleteServer(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM servers WHERE id = ?`, id)
		if err != nil {
			return classify("delete server", err)
		}
		return requireAffected(res, "delete server")
	})
}

// GetServer retrieves a server by ID.
func (s *Store) GetServer(id string) (*models.Server, error) {
	var srv *models.Server
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE id = ?`, id)
		got, err := scanServer(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("server %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		srv = got
		return nil
	})
	return srv, err
}

// ListServers returns all servers ordered by name.
func (s *Store) ListServers() ([]models.Server, error) {
	var servers []models.Server
	err := s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY name ASC, id ASC`)
		if err != nil {
			return fmt.Errorf("query servers: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			srv, err := scanServer(rows)
			if err != nil {
				return err
			}
			servers = append(servers, *srv)
		}
		return rows.Err()
	})
	return servers, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

type serverCols struct {
	description sql.NullString
	args        string
	env         string
	tags        string
	sourceKind  sql.NullString
	sourceURL   sql.NullString
}

func encodeServer(srv *models.Server) (serverCols, error) {
	var c serverCols
	args := srv.Args
	if args == nil {
		args = []string{}
	}
	env := srv.Env
	if env == nil {
		env = map[string]string{}
	}
	tags := srv.Tags
	if tags == nil {
		tags = []string{}
	}

	b, err := json.Marshal(args)
	if err != nil {
		return c, fmt.Errorf("encode args: %w", err)
	}
	c.args = string(b)
	if b, err = json.Marshal(env); err != nil {
		return c, fmt.Errorf("encode env: %w", err)
	}
	c.env = string(b)
	if b, err = json.Marshal(tags); err != nil {
		return c, fmt.Errorf("encode tags: %w", err)
	}
	c.tags = string(b)

	if srv.Description != "" {
		c.description = sql.NullString{String: srv.Description, Valid: true}
	}
	if srv.Source != nil {
		c.sourceKind = sql.NullString{String: string(srv.Source.Kind), Valid: true}
		if srv.Source.URL != "" {
			c.sourceURL = sql.NullString{String: srv.Source.URL, Valid: true}
		}
	}
	return c, nil
}

func scanServer(row rowScanner) (*models.Server, error) {
	var (
		srv                  models.Server
		c                    serverCols
		createdAt, updatedAt string
	)
	err := row.Scan(&srv.ID, &srv.Name, &c.description, &srv.Command, &c.args, &c.env, &c.tags,
		&c.sourceKind, &c.sourceURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan server: %w", err)
	}

	if err := json.Unmarshal([]byte(c.args), &srv.Args); err != nil {
		return nil, fmt.Errorf("server %s args: %w", srv.ID, ErrCorrupt)
	}
	if err := json.Unmarshal([]byte(c.env), &srv.Env); err != nil {
		return nil, fmt.Errorf("server %s env: %w", srv.ID, ErrCorrupt)
	}
	if err := json.Unmarshal([]byte(c.tags), &srv.Tags); err != nil {
		return nil, fmt.Errorf("server %s tags: %w", srv.ID, ErrCorrupt)
	}
	if srv.Args == nil {
		srv.Args = []string{}
	}
	if srv.Env == nil {
		srv.Env = map[string]string{}
	}
	if srv.Tags == nil {
		srv.Tags = []string{}
	}

	srv.Description = c.description.String
	if c.sourceKind.Valid && c.sourceKind.String != "" {
		srv.Source = &models.ServerSource{
			Kind: models.SourceKind(c.sourceKind.String),
			URL:  c.sourceURL.String,
		}
	}
	srv.CreatedAt = parseTime(createdAt)
	srv.UpdatedAt = parseTime(updatedAt)
	return &srv, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: check rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
