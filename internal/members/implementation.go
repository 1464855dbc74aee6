// internal/members/implementation.go
package members

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"lendhall/pkg/eventstore"
)

// service implements the Service interface.
type service struct {
	eventStore  *eventstore.EventStore
	db          *sql.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new member directory instance.
func NewService(es *eventstore.EventStore, db *sql.DB) Service {
	return &service{
		eventStore:  es,
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5),
	}
}

// Register creates a new member account with the default role.
func (s *service) Register(ctx context.Context, email, name, password string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	if email == "" || name == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: email, name and a password of at least 8 characters are required", ErrInvalidCredentials)
	}

	id := uuid.New()
	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &Member{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      "member",
		CreatedAt: time.Now().UTC(),
	}

	ev, err := eventstore.New(id, "member", "MemberRegistered", MemberRegisteredEvent{
		ID:    id,
		Email: email,
		Name:  name,
		Role:  member.Role,
	})
	if err != nil {
		return nil, err
	}
	if err := s.eventStore.AppendEvents(ctx, id, "member", 0, []eventstore.Event{ev}); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	credential := &Credential{
		MemberID:     id,
		PasswordHash: passwordHash,
		Salt:         salt,
	}
	if err := s.insertMember(ctx, member, credential); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	log.Info().Str("member_id", id.String()).Msg("member registered")
	return member, nil
}

func (s *service) insertMember(ctx context.Context, member *Member, credential *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (id, email, name, role)
		VALUES ($1, $2, $3, $4)
	`, member.ID, member.Email, member.Name, member.Role)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (member_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, credential.MemberID, credential.PasswordHash, credential.Salt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Authenticate verifies a member's credentials and returns the member if
// successful.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	member, err := s.getMemberByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var credential Credential
	err = s.db.QueryRowContext(ctx, `
		SELECT member_id, password_hash, salt FROM credentials WHERE member_id = $1
	`, member.ID).Scan(&credential.MemberID, &credential.PasswordHash, &credential.Salt)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return member, nil
}

// GetMember retrieves a member by ID. The reservation service resolves
// actor roles through this.
func (s *service) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	member := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at FROM members WHERE id = $1
	`, id).Scan(&member.ID, &member.Email, &member.Name, &member.Role, &member.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

func (s *service) getMemberByEmail(ctx context.Context, email string) (*Member, error) {
	member := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at FROM members WHERE email = $1
	`, email).Scan(&member.ID, &member.Email, &member.Name, &member.Role, &member.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return member, nil
}
