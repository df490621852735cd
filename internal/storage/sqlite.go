package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sqliteDialect = "sqlite3"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStorage persists the pack-size set in a SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path, applies pragmas
// and runs pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// GetPackSizes returns the stored pack sizes in ascending order.
func (s *SQLiteStorage) GetPackSizes(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT size FROM pack_sizes ORDER BY size`)
	if err != nil {
		return nil, fmt.Errorf("query pack sizes: %w", err)
	}
	defer rows.Close()

	sizes := []int{}
	for rows.Next() {
		var size int
		if err := rows.Scan(&size); err != nil {
			return nil, fmt.Errorf("scan pack size: %w", err)
		}
		sizes = append(sizes, size)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pack sizes: %w", err)
	}
	return sizes, nil
}

// SetPackSizes validates the sizes and replaces the stored set atomically.
func (s *SQLiteStorage) SetPackSizes(ctx context.Context, sizes []int) error {
	normalized, err := normalizePackSizes(sizes)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pack_sizes`); err != nil {
		return fmt.Errorf("clear pack sizes: %w", err)
	}
	for _, size := range normalized {
		if _, err := tx.ExecContext(ctx, `INSERT INTO pack_sizes (size) VALUES (?)`, size); err != nil {
			return fmt.Errorf("insert pack size %d: %w", size, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pack sizes: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
