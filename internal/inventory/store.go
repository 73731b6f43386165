// Package inventory persists discovered machines so audits can run against
// a saved fleet instead of re-enumerating sources every time.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/noveris-inf/winact/internal/source"
)

// Computer is one saved machine. Enabled is operator-managed: syncs never
// touch it, so a machine pulled from audits stays pulled.
type Computer struct {
	ID        uuid.UUID
	Hostname  string
	DN        string
	Source    string
	Enabled   bool
	FirstSeen time.Time
	LastSeen  time.Time
}

// Store reads and writes the computer inventory.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// runMigrations applies pending schema migrations. goose drives a
// database/sql handle, so the pgx stdlib driver opens a short-lived
// connection separate from the pool.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Upsert records a machine sighting, creating the row on first contact and
// refreshing dn, source and last_seen afterwards. It reports whether the
// row is new.
func (s *Store) Upsert(ctx context.Context, c source.Computer, src string) (bool, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO computers (id, hostname, dn, source, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (hostname) DO UPDATE
			SET dn = EXCLUDED.dn, source = EXCLUDED.source, last_seen = now()
		RETURNING (xmax = 0)`,
		uuid.New(), c.Hostname, c.DN, src,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert %s: %w", c.Hostname, err)
	}
	return inserted, nil
}

// Sync reconciles the inventory with a freshly enumerated fleet. Every
// listed computer is upserted under src; with prune, rows from the same
// source that the enumeration no longer returns are deleted. It reports
// how many hosts were added and removed.
func (s *Store) Sync(ctx context.Context, src string, computers []source.Computer, prune bool) (added, removed int, err error) {
	hostnames := make([]string, 0, len(computers))
	for _, c := range computers {
		inserted, err := s.Upsert(ctx, c, src)
		if err != nil {
			return added, removed, err
		}
		if inserted {
			added++
		}
		hostnames = append(hostnames, c.Hostname)
	}

	if prune {
		tag, err := s.pool.Exec(ctx, `
			DELETE FROM computers
			WHERE source = $1 AND NOT (hostname = ANY($2))`,
			src, hostnames,
		)
		if err != nil {
			return added, removed, fmt.Errorf("failed to prune %s hosts: %w", src, err)
		}
		removed = int(tag.RowsAffected())
	}
	return added, removed, nil
}

// List returns the enabled computers ordered by hostname.
func (s *Store) List(ctx context.Context) ([]Computer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, hostname, dn, source, enabled, first_seen, last_seen
		FROM computers
		WHERE enabled
		ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("failed to list computers: %w", err)
	}
	defer rows.Close()

	var computers []Computer
	for rows.Next() {
		var c Computer
		if err := rows.Scan(&c.ID, &c.Hostname, &c.DN, &c.Source, &c.Enabled, &c.FirstSeen, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan computer row: %w", err)
		}
		computers = append(computers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read computer rows: %w", err)
	}
	return computers, nil
}

// AsSource exposes the inventory as an enumeration source for audits.
func (s *Store) AsSource() source.Source {
	return &storeSource{store: s}
}

type storeSource struct {
	store *Store
}

func (ss *storeSource) Name() string { return "inventory" }

func (ss *storeSource) Hosts(ctx context.Context) ([]string, error) {
	computers, err := ss.store.List(ctx)
	if err != nil {
		return nil, &source.EnumerationError{Source: ss.Name(), Err: err}
	}
	hosts := make([]string, 0, len(computers))
	for _, c := range computers {
		hosts = append(hosts, c.Hostname)
	}
	return hosts, nil
}
