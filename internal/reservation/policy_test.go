package reservation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleLibrarian, ParseRole("librarian"))
	assert.Equal(t, RoleMember, ParseRole("member"))
	assert.Equal(t, RoleMember, ParseRole("something-else"), "unknown roles get least privilege")
}

func TestRoleStaff(t *testing.T) {
	assert.False(t, RoleMember.Staff())
	assert.True(t, RoleLibrarian.Staff())
	assert.True(t, RoleAdmin.Staff())
}

func TestAuthorizeTransition(t *testing.T) {
	ownerID := uuid.New()
	owner := Actor{ID: ownerID, Role: RoleMember}
	stranger := Actor{ID: uuid.New(), Role: RoleMember}
	librarian := Actor{ID: uuid.New(), Role: RoleLibrarian}

	pending := &Reservation{ID: uuid.New(), MemberID: ownerID, State: StatePending}
	active := &Reservation{ID: uuid.New(), MemberID: ownerID, State: StateActive}

	tests := []struct {
		name    string
		actor   Actor
		res     *Reservation
		target  State
		wantErr bool
	}{
		{"staff may activate", librarian, pending, StateActive, false},
		{"owner may not activate", owner, pending, StateActive, true},
		{"stranger may not activate", stranger, pending, StateActive, true},
		{"staff may complete", librarian, active, StateCompleted, false},
		{"owner may not complete", owner, active, StateCompleted, true},
		{"owner may cancel own pending", owner, pending, StateCancelled, false},
		{"owner may not cancel own active", owner, active, StateCancelled, true},
		{"staff may cancel active", librarian, active, StateCancelled, false},
		{"stranger may not cancel", stranger, pending, StateCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeTransition(tt.actor, tt.res, tt.target)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrForbidden)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthorizeRead(t *testing.T) {
	ownerID := uuid.New()
	res := &Reservation{MemberID: ownerID, State: StatePending}

	assert.NoError(t, AuthorizeRead(Actor{ID: ownerID, Role: RoleMember}, res))
	assert.NoError(t, AuthorizeRead(Actor{ID: uuid.New(), Role: RoleAdmin}, res))
	assert.ErrorIs(t, AuthorizeRead(Actor{ID: uuid.New(), Role: RoleMember}, res), ErrForbidden)
}

func TestAuthorizeDelete(t *testing.T) {
	assert.NoError(t, AuthorizeDelete(Actor{Role: RoleLibrarian}))
	assert.NoError(t, AuthorizeDelete(Actor{Role: RoleAdmin}))
	assert.ErrorIs(t, AuthorizeDelete(Actor{Role: RoleMember}), ErrForbidden)
}
