package user

import (
	"fmt"
	"time"

	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AggregateType is the aggregate_type of every user event.
const AggregateType = "user"

const UserCreatedType = "USER_CREATED_EVENT"

// UserCreated carries a bcrypt hash, never the plain password.
type UserCreated struct {
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	Realname     string    `json:"realname"`
	PasswordHash string    `json:"passwordHash"`
}

func (UserCreated) EventType() string { return UserCreatedType }

// State is the user aggregate.
type State struct {
	ID           uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	Realname     string    `json:"realname"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewState(id uuid.UUID) State {
	return State{ID: id}
}

// Clone implements eventsource.State. State has no reference fields.
func (s State) Clone() State {
	return s
}

// CheckPassword reports whether password matches the stored hash.
func (s State) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil
}

// NewRegistry builds the transition table of the user aggregate.
func NewRegistry() *eventsource.Registry[State] {
	r := eventsource.NewRegistry(AggregateType, NewState)
	eventsource.On(r, func(s *State, evt eventsource.Event, p UserCreated) error {
		s.ID = p.UserID
		s.Username = p.Username
		s.Realname = p.Realname
		s.PasswordHash = p.PasswordHash
		s.CreatedAt = evt.CreatedAt
		return nil
	})
	return r
}

// CreateUser registers a user. The password must already be hashed with HashPassword
// so the handler stays deterministic.
type CreateUser struct {
	UserID       uuid.UUID
	Username     string
	Realname     string
	PasswordHash string
}

// Create returns the command function for cmd.
func Create(cmd CreateUser) eventsource.CommandFunc[State] {
	return func(State) (eventsource.Payload, error) {
		return UserCreated{
			UserID:       cmd.UserID,
			Username:     cmd.Username,
			Realname:     cmd.Realname,
			PasswordHash: cmd.PasswordHash,
		}, nil
	}
}

// HashPassword hashes password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
