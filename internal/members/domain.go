// internal/members/domain.go
package members

import (
	"time"

	"github.com/google/uuid"
)

// Member is a patron or staff account. Role is one of "member",
// "librarian" or "admin" and is what the reservation policy consumes.
type Member struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential holds a member's salted password hash. Never serialized.
type Credential struct {
	MemberID     uuid.UUID
	PasswordHash string
	Salt         string
}

// MemberRegisteredEvent is published when a member account is created.
type MemberRegisteredEvent struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}
