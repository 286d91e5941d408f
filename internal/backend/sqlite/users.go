package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"bizquiz/internal/backend"
	"bizquiz/internal/wire"
)

func (s *Store) CreateUser(ctx context.Context, request wire.RegisterRequest, passwordHash []byte) (wire.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (fullname, age, phone_number, password_hash, created_at_unix) VALUES (?, ?, ?, ?, ?)`,
		request.Fullname, request.Age, request.PhoneNumber, passwordHash, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return wire.User{}, constraintError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wire.User{}, err
	}
	return wire.User{
		ID:          int(id),
		PhoneNumber: request.PhoneNumber,
		Fullname:    request.Fullname,
		Age:         request.Age,
	}, nil
}

const accountColumns = `id, fullname, age, phone_number, password_hash, subscribed`

func (s *Store) FindAccount(ctx context.Context, phoneNumber string) (backend.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE phone_number = ?`, phoneNumber)
	return scanAccount(row)
}

func (s *Store) AccountByID(ctx context.Context, userID int) (backend.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE id = ?`, userID)
	return scanAccount(row)
}

func (s *Store) SetSubscribed(ctx context.Context, userID int, subscribed bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET subscribed = ? WHERE id = ?`, subscribed, userID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update subscription of user %d", userID)
	}
	return affectedOrNotFound(result)
}

func (s *Store) SaveToken(ctx context.Context, token string, userID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at_unix) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return constraintError(err)
	}
	return nil
}

func (s *Store) UserByToken(ctx context.Context, token string) (wire.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.fullname, u.age, u.phone_number, u.password_hash, u.subscribed
		 FROM tokens t JOIN users u ON u.id = t.user_id WHERE t.token = ?`, token)
	account, err := scanAccount(row)
	if errors.Is(err, backend.ErrNotFound) {
		return wire.User{}, backend.ErrUnauthorized
	}
	if err != nil {
		return wire.User{}, err
	}
	return account.User, nil
}

func scanAccount(row scanner) (backend.Account, error) {
	var account backend.Account
	err := row.Scan(
		&account.User.ID,
		&account.User.Fullname,
		&account.User.Age,
		&account.User.PhoneNumber,
		&account.PasswordHash,
		&account.Subscribed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Account{}, backend.ErrNotFound
	}
	if err != nil {
		return backend.Account{}, eris.Wrap(err, "sqlite: scan user")
	}
	return account, nil
}
