package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current base schema version. Incompatible changes bump
// it, and users clear the queue database to adopt the new layout; additive
// changes ship as migrations instead.
const schemaVersion = 1

// ErrSchemaMismatch reports a queue database created by an incompatible release.
var ErrSchemaMismatch = errors.New("incompatible queue database schema")

func (s *Store) ensureSchema(ctx context.Context) error {
	version, initialized, err := s.storedSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return s.bootstrapSchema(ctx)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database is version %d, this build expects %d (run 'overdub queue clear' or delete the database)", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// storedSchemaVersion reports the base schema version recorded in the
// database, or initialized=false when the database is brand new.
func (s *Store) storedSchemaVersion(ctx context.Context) (version int, initialized bool, err error) {
	var present bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version')`,
	).Scan(&present)
	if err != nil {
		return 0, false, fmt.Errorf("probe schema_version table: %w", err)
	}
	if !present {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0, false, fmt.Errorf("load schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) bootstrapSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit base schema: %w", err)
	}
	return nil
}
