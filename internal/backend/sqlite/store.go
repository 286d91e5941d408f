// Package sqlite implements the backend store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"bizquiz/internal/backend"
)

type Store struct {
	db *sql.DB
}

var _ backend.Store = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "bizquiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA busy_timeout = 5000;`, `PRAGMA foreign_keys = ON;`} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: init schema")
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// constraintError maps SQLite constraint failures onto backend errors.
func constraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return backend.ErrConflict
	case sqlite3.ErrConstraintForeignKey:
		return backend.ErrNotFound
	default:
		return err
	}
}

func affectedOrNotFound(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return backend.ErrNotFound
	}
	return nil
}
