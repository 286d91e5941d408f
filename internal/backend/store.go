// Package backend serves the quiz REST API from a Store.
package backend

import (
	"context"
	"errors"

	"bizquiz/internal/wire"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Account is a stored user together with the bcrypt hash of their password.
type Account struct {
	User         wire.User
	PasswordHash []byte
	Subscribed   bool
}

type BusinessRepository interface {
	ListBusinesses(ctx context.Context) ([]wire.Business, error)
	CreateBusiness(ctx context.Context, label string) (wire.Business, error)
	DeleteBusiness(ctx context.Context, id int) error
}

type QuestionRepository interface {
	// ListQuestions returns questions in insertion order. businessID 0 lists
	// every business; an empty lang matches every language.
	ListQuestions(ctx context.Context, businessID int, lang string) ([]wire.Question, error)
	CreateQuestion(ctx context.Context, question wire.NewQuestion) (wire.Question, error)
	DeleteQuestion(ctx context.Context, id int) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, request wire.RegisterRequest, passwordHash []byte) (wire.User, error)
	FindAccount(ctx context.Context, phoneNumber string) (Account, error)
	AccountByID(ctx context.Context, userID int) (Account, error)
	SetSubscribed(ctx context.Context, userID int, subscribed bool) error
	SaveToken(ctx context.Context, token string, userID int) error
	UserByToken(ctx context.Context, token string) (wire.User, error)
}

type Store interface {
	BusinessRepository
	QuestionRepository
	UserRepository
}
