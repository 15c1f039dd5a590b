package blobstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"path"

	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteStore(dbPath string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	l.Info("sqlite blob store initialized", "path", dbPath)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(s.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

var _ BlobStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(ctx context.Context, p string) ([]byte, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("sqlite blob get", "path", p)

	query := `SELECT data
	FROM blobs
	WHERE path = ?`

	var data []byte
	err = s.db.QueryRowContext(ctx, query, p).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error("sqlite blob get failed", "path", p, "error", err)
		return nil, err
	}

	return data, nil
}

func (s *SQLiteStore) Put(ctx context.Context, p string, data []byte) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}

	s.logger.Debug("sqlite blob put", "path", p, "size", len(data))

	query := `INSERT INTO blobs (path, data, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, p, data)
	if err != nil {
		s.logger.Error("sqlite blob put failed", "path", p, "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path FROM blobs ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if ok, _ := path.Match(pattern, p); ok {
			out = append(out, p)
		}
	}

	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
