// Package session manages the single active session and the user
// records behind it.
//
// State machine: Anonymous → Authenticated → Anonymous. The session
// record lives in the flat key-value namespace (the same primitive the
// application used before the table migration); user records live in the
// users table. At most one session exists at a time, and expiry is
// checked lazily on access - there is no background timer.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/query"
	"github.com/calverley/schoolcore/internal/record"
	"github.com/calverley/schoolcore/internal/storage"
	"github.com/calverley/schoolcore/internal/table"
)

// SessionKey is the flat-store key holding the active session. It is
// whitelisted from legacy cleanup.
const SessionKey = "session"

// TTL is the absolute session lifetime from sign-in.
const TTL = 7 * 24 * time.Hour

// Role is a user's access level.
type Role string

// User roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is a record in the users table.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// Session is the active sign-in: a snapshot of the user plus an absolute
// expiry instant.
type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// Clock supplies the current instant for expiry checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store manages users and the active session.
type Store struct {
	tables *table.Store
	kv     storage.KV
	clock  Clock
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock. Tests use a manual clock.
func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the diagnostic logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a session store over the users table and the flat KV.
//
// Bootstrap: when the users table is empty, exactly one default
// administrator is seeded so a fresh installation has someone to sign
// in as.
func New(tables *table.Store, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		tables: tables,
		kv:     kv,
		clock:  systemClock{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tables.Count(table.Users) == 0 {
		_, err := s.tables.Insert(table.Users, record.Record{
			"email":       "admin@school.local",
			"displayName": "Administrator",
			"role":        string(RoleAdmin),
		})
		if err != nil {
			return nil, fmt.Errorf("seed default admin: %w", err)
		}
	}
	return s, nil
}

// SignIn looks up a user by exact email match and creates a session
// expiring TTL from now. Fails with table.NotFoundError when no user has
// that email.
//
// No credential verification is performed. That is a deliberate scope
// boundary of this core - sign-in is a placeholder for a future auth
// backend, not a password check to be added here.
func (s *Store) SignIn(email string) (*Session, error) {
	users := s.tables.Select(table.Users, query.Eq{Field: "email", Value: email})
	if len(users) == 0 {
		return nil, &table.NotFoundError{Table: table.Users, ID: email}
	}

	user, err := UserFromRecord(users[0])
	if err != nil {
		return nil, fmt.Errorf("sign in %q: %w", email, err)
	}

	sess := &Session{
		User:    user,
		Expires: s.clock.Now().Add(TTL),
	}
	if err := s.writeSession(sess); err != nil {
		return nil, fmt.Errorf("sign in %q: %w", email, err)
	}
	return sess, nil
}

// GetSession returns the active session, or nil when anonymous.
//
// An expired session is deleted on access and nil returned - the record
// self-invalidates the first time anyone looks at it past its expiry. A
// session record that fails to decode is treated the same way.
func (s *Store) GetSession() *Session {
	raw, ok, err := s.kv.Get(SessionKey)
	if err != nil {
		s.log.Warn("session read failed, treating as anonymous", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.Warn("corrupt session record, discarding", zap.Error(err))
		s.discardSession()
		return nil
	}

	if !s.clock.Now().Before(sess.Expires) {
		s.discardSession()
		return nil
	}
	return &sess
}

// SignOut deletes the session unconditionally. Signing out while
// anonymous is a no-op.
func (s *Store) SignOut() error {
	if _, err := s.kv.Delete(SessionKey); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// UpdateUser merges patch into the user record with the given id. When
// the active session belongs to that user, its embedded snapshot is
// refreshed in the same call so the two never diverge.
func (s *Store) UpdateUser(id string, patch record.Record) (*User, error) {
	rec, err := s.tables.Update(table.Users, id, patch)
	if err != nil {
		return nil, err
	}
	user, err := UserFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("update user %q: %w", id, err)
	}

	if sess := s.GetSession(); sess != nil && sess.User.ID == id {
		sess.User = user
		if err := s.writeSession(sess); err != nil {
			return nil, fmt.Errorf("update user %q: refresh session: %w", id, err)
		}
	}
	return &user, nil
}

// DeleteUser removes the user record with the given id. Fails with
// table.NotFoundError when no such user exists.
//
// Known gap: deleting a user does not invalidate an active session for
// that user. The session lives on until expiry or sign-out.
func (s *Store) DeleteUser(id string) error {
	removed, err := s.tables.Delete(table.Users, id)
	if err != nil {
		return err
	}
	if !removed {
		return &table.NotFoundError{Table: table.Users, ID: id}
	}
	return nil
}

// Users returns every user record, decoded. Broken records are skipped
// with a logged diagnostic.
func (s *Store) Users() []User {
	records := s.tables.Select(table.Users, nil)
	users := []User{}
	for _, rec := range records {
		user, err := UserFromRecord(rec)
		if err != nil {
			s.log.Warn("skipping undecodable user record",
				zap.String("id", rec.ID()),
				zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	return users
}

func (s *Store) writeSession(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.Set(SessionKey, string(data))
}

func (s *Store) discardSession() {
	if _, err := s.kv.Delete(SessionKey); err != nil {
		s.log.Warn("failed to delete stale session", zap.Error(err))
	}
}

// UserFromRecord decodes a users-table record into a User. A record
// without a string id does not decode.
func UserFromRecord(rec record.Record) (User, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, err
	}
	if user.ID == "" {
		return User{}, fmt.Errorf("user record has no id")
	}
	return user, nil
}
