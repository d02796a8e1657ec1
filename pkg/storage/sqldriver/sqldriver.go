// Package sqldriver implements storage.Driver over database/sql. It is
// database-agnostic and is embedded by the sqlite and postgres drivers, which
// supply the connection and a Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/storage"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// BlobType is the column type for binary data.
	BlobType string

	// NumberedPlaceholders switches "?" placeholders to "$1", "$2", ...
	NumberedPlaceholders bool
}

var (
	SQLite   = Dialect{Name: "sqlite", BlobType: "BLOB"}
	Postgres = Dialect{Name: "postgres", BlobType: "BYTEA", NumberedPlaceholders: true}
)

// Driver provides storage operations on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// New creates the schema if needed and returns a Driver.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{DB: db, Dialect: dialect}
	if err := d.migrate(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			thumbnail TEXT NOT NULL DEFAULT '',
			image_count INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fingerprints (
			collection TEXT NOT NULL,
			seq INTEGER NOT NULL,
			image_id TEXT NOT NULL,
			colors %s NOT NULL,
			PRIMARY KEY (collection, seq)
		)`, d.Dialect.BlobType),
	}

	for _, stmt := range stmts {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating %s schema: %w", d.Dialect.Name, err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders for dialects that number them.
func (d *Driver) rebind(query string) string {
	if !d.Dialect.NumberedPlaceholders {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save replaces the collection row and all of its fingerprints in one
// transaction.
func (d *Driver) Save(ctx context.Context, snap *storage.Snapshot) error {
	if err := storage.ValidateName(snap.Meta.Name); err != nil {
		return err
	}
	name := snap.Meta.Name

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM fingerprints WHERE collection = ?`), name); err != nil {
		return fmt.Errorf("clearing fingerprints of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM collections WHERE name = ?`), name); err != nil {
		return fmt.Errorf("clearing collection %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx,
		d.rebind(`INSERT INTO collections (name, id, thumbnail, image_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		name, snap.Meta.ID.String(), snap.Meta.Thumbnail, snap.Meta.Count,
		snap.Meta.CreatedAt.UnixNano(), snap.Meta.UpdatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("inserting collection %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		d.rebind(`INSERT INTO fingerprints (collection, seq, image_id, colors) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("preparing fingerprint insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.Records {
		if _, err := stmt.ExecContext(ctx, name, i, r.ID, storage.EncodeColors(r.Fingerprint)); err != nil {
			return fmt.Errorf("inserting fingerprint %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads a collection and its fingerprints in insertion order.
func (d *Driver) Load(ctx context.Context, name string) (*storage.Snapshot, error) {
	row := d.DB.QueryRowContext(ctx,
		d.rebind(`SELECT name, id, thumbnail, image_count, created_at, updated_at FROM collections WHERE name = ?`), name)

	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %s: %w", name, err)
	}

	rows, err := d.DB.QueryContext(ctx,
		d.rebind(`SELECT image_id, colors FROM fingerprints WHERE collection = ? ORDER BY seq`), name)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints of %s: %w", name, err)
	}
	defer rows.Close()

	snap := &storage.Snapshot{Meta: meta}
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}

		fp, err := storage.DecodeColors(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding fingerprint %s: %w", id, err)
		}
		snap.Records = append(snap.Records, storage.Record{ID: id, Fingerprint: fp})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprints: %w", err)
	}

	return snap, nil
}

// List returns metadata for every collection.
func (d *Driver) List(ctx context.Context) ([]storage.Meta, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT name, id, thumbnail, image_count, created_at, updated_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var metas []storage.Meta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Delete removes a collection and its fingerprints.
func (d *Driver) Delete(ctx context.Context, name string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM collections WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.NotFoundError{Name: name}
	}

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM fingerprints WHERE collection = ?`), name); err != nil {
		return fmt.Errorf("deleting fingerprints of %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(s scanner) (storage.Meta, error) {
	var (
		meta             storage.Meta
		id               string
		created, updated int64
	)
	if err := s.Scan(&meta.Name, &id, &meta.Thumbnail, &meta.Count, &created, &updated); err != nil {
		return storage.Meta{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return storage.Meta{}, fmt.Errorf("parsing collection id %q: %w", id, err)
	}
	meta.ID = parsed
	meta.CreatedAt = time.Unix(0, created).UTC()
	meta.UpdatedAt = time.Unix(0, updated).UTC()
	return meta, nil
}
