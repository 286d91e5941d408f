package sqlite

import (
	"context"
)

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS businesses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			types TEXT NOT NULL UNIQUE COLLATE NOCASE,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			business_id INTEGER NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			question TEXT NOT NULL,
			option_a TEXT NOT NULL DEFAULT '',
			option_b TEXT NOT NULL DEFAULT '',
			option_c TEXT NOT NULL DEFAULT '',
			option_d TEXT NOT NULL DEFAULT '',
			-- NULL means the option carries no weight.
			option_a_score INTEGER,
			option_b_score INTEGER,
			option_c_score INTEGER,
			option_d_score INTEGER,
			answer TEXT NOT NULL DEFAULT '',
			lang TEXT NOT NULL DEFAULT '',
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			fullname TEXT NOT NULL,
			age INTEGER NOT NULL,
			phone_number TEXT NOT NULL UNIQUE,
			password_hash BLOB NOT NULL,
			subscribed INTEGER NOT NULL DEFAULT 0,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_business ON questions(business_id, id);`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
