// Package credentials keeps the client's login state in a flat YAML file.
package credentials

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	KeyAccess       = "access"
	KeyUserID       = "user_id"
	KeyPhoneNumber  = "phone_number"
	KeyFullname     = "fullname"
	KeyAckPrimary   = "ack.primary"
	KeyAckSecondary = "ack.secondary"
)

// User is the profile remembered alongside the token.
type User struct {
	ID          int
	PhoneNumber string
	Fullname    string
}

// Store is a string key/value map persisted on every write. An empty path
// keeps everything in memory.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "credentials: read %s", path)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, eris.Wrapf(err, "credentials: decode %s", path)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *Store) Set(key, value string) error {
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

func (s *Store) Delete(keys ...string) error {
	return s.update(func(values map[string]string) {
		for _, key := range keys {
			delete(values, key)
		}
	})
}

// Keys lists the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Token returns the access token, or "" when logged out.
func (s *Store) Token() string {
	token, _ := s.Get(KeyAccess)
	return token
}

func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Store) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, _ := strconv.Atoi(s.values[KeyUserID])
	return User{
		ID:          id,
		PhoneNumber: s.values[KeyPhoneNumber],
		Fullname:    s.values[KeyFullname],
	}
}

// Begin records a successful login.
func (s *Store) Begin(token string, user User) error {
	if token == "" {
		return errors.New("credentials: empty access token")
	}
	return s.update(func(values map[string]string) {
		values[KeyAccess] = token
		values[KeyUserID] = strconv.Itoa(user.ID)
		values[KeyPhoneNumber] = user.PhoneNumber
		values[KeyFullname] = user.Fullname
	})
}

// End forgets the token and profile. Link acknowledgements survive a logout.
func (s *Store) End() error {
	return s.Delete(KeyAccess, KeyUserID, KeyPhoneNumber, KeyFullname)
}

func (s *Store) update(fn func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for key, value := range s.values {
		next[key] = value
	}
	fn(next)

	if err := s.persist(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *Store) persist(values map[string]string) error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return eris.Wrap(err, "credentials: encode")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return eris.Wrapf(err, "credentials: create directory for %s", s.path)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return eris.Wrapf(err, "credentials: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "credentials: replace %s", s.path)
	}
	return nil
}
