package backend

import (
	"context"
	"strings"
	"sync"

	"bizquiz/internal/wire"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu         sync.Mutex
	businesses []wire.Business
	questions  []storedQuestion
	accounts   []Account
	tokens     map[string]int
	nextID     int
}

type storedQuestion struct {
	question   wire.Question
	businessID int
}

func newMemStore() *memStore {
	return &memStore{tokens: map[string]int{}}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListBusinesses(context.Context) ([]wire.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]wire.Business{}, m.businesses...), nil
}

func (m *memStore) CreateBusiness(_ context.Context, label string) (wire.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.businesses {
		if strings.EqualFold(b.Types, label) {
			return wire.Business{}, ErrConflict
		}
	}
	business := wire.Business{ID: m.id(), Types: label}
	m.businesses = append(m.businesses, business)
	return business, nil
}

func (m *memStore) DeleteBusiness(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx, b := range m.businesses {
		if b.ID == id {
			m.businesses = append(m.businesses[:idx], m.businesses[idx+1:]...)
			kept := m.questions[:0]
			for _, q := range m.questions {
				if q.businessID != id {
					kept = append(kept, q)
				}
			}
			m.questions = kept
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) ListQuestions(_ context.Context, businessID int, lang string) ([]wire.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []wire.Question{}
	for _, q := range m.questions {
		if businessID > 0 && q.businessID != businessID {
			continue
		}
		if lang != "" && q.question.Lang != "" && q.question.Lang != lang {
			continue
		}
		out = append(out, q.question)
	}
	return out, nil
}

func (m *memStore) CreateQuestion(_ context.Context, request wire.NewQuestion) (wire.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var business *wire.Business
	for idx := range m.businesses {
		if m.businesses[idx].ID == request.BusinessID {
			b := m.businesses[idx]
			business = &b
		}
	}
	if business == nil {
		return wire.Question{}, ErrNotFound
	}
	options := [4]string{request.OptionA, request.OptionB, request.OptionC, request.OptionD}
	question := wire.QuestionFromOptions(m.id(), request.Question, options, request.Scores(), request.Answer, business, request.Lang)
	m.questions = append(m.questions, storedQuestion{question: question, businessID: request.BusinessID})
	return question, nil
}

func (m *memStore) DeleteQuestion(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx, q := range m.questions {
		if q.question.ID == id {
			m.questions = append(m.questions[:idx], m.questions[idx+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, request wire.RegisterRequest, hash []byte) (wire.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.User.PhoneNumber == request.PhoneNumber {
			return wire.User{}, ErrConflict
		}
	}
	user := wire.User{ID: m.id(), PhoneNumber: request.PhoneNumber, Fullname: request.Fullname, Age: request.Age}
	m.accounts = append(m.accounts, Account{User: user, PasswordHash: hash})
	return user, nil
}

func (m *memStore) FindAccount(_ context.Context, phone string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.User.PhoneNumber == phone {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (m *memStore) AccountByID(_ context.Context, id int) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.User.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (m *memStore) SetSubscribed(_ context.Context, id int, subscribed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx := range m.accounts {
		if m.accounts[idx].User.ID == id {
			m.accounts[idx].Subscribed = subscribed
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) SaveToken(_ context.Context, token string, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; ok {
		return ErrConflict
	}
	m.tokens[token] = userID
	return nil
}

func (m *memStore) UserByToken(_ context.Context, token string) (wire.User, error) {
	m.mu.Lock()
	userID, ok := m.tokens[token]
	m.mu.Unlock()
	if !ok {
		return wire.User{}, ErrUnauthorized
	}
	account, err := m.AccountByID(context.Background(), userID)
	if err != nil {
		return wire.User{}, ErrUnauthorized
	}
	return account.User, nil
}
