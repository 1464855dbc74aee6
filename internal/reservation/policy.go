// internal/reservation/policy.go
package reservation

import "github.com/google/uuid"

// Role is the closed set of actor roles the policy understands.
type Role int

const (
	RoleMember Role = iota
	RoleLibrarian
	RoleAdmin
)

// Staff reports whether the role carries librarian privileges.
func (r Role) Staff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// ParseRole maps a stored role name to its variant. Unknown names fall
// back to the least-privileged role.
func ParseRole(name string) Role {
	switch name {
	case "admin":
		return RoleAdmin
	case "librarian":
		return RoleLibrarian
	default:
		return RoleMember
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleLibrarian:
		return "librarian"
	default:
		return "member"
	}
}

// Actor identifies who is making a request and with what privileges.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Owns reports whether the actor owns the reservation.
func (a Actor) Owns(r *Reservation) bool {
	return a.ID == r.MemberID
}

// AuthorizeRead decides whether the actor may see the reservation.
// Owners see their own; staff see everything.
func AuthorizeRead(actor Actor, r *Reservation) error {
	if actor.Role.Staff() || actor.Owns(r) {
		return nil
	}
	return ErrForbidden
}

// AuthorizeTransition decides whether the actor may request the given
// state change. It gates authorization only; whether the edge is legal
// at all is the state machine's call.
func AuthorizeTransition(actor Actor, r *Reservation, target State) error {
	if actor.Role.Staff() {
		return nil
	}
	if !actor.Owns(r) {
		return ErrForbidden
	}
	// Owners hold exactly one right: withdrawing their own request
	// before it has been activated.
	if target == StateCancelled && r.State == StatePending {
		return nil
	}
	return ErrForbidden
}

// AuthorizeDelete decides whether the actor may permanently remove a
// reservation. Staff only.
func AuthorizeDelete(actor Actor) error {
	if actor.Role.Staff() {
		return nil
	}
	return ErrForbidden
}
