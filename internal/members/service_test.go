package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterValidatesInput(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Register(context.Background(), "", "Ada", "long enough password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), "ada@example.com", "Ada", "short")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRateLimits(t *testing.T) {
	svc := NewService(nil, nil)

	// the limiter allows a burst of five; invalid input keeps the calls
	// from ever touching storage
	for i := 0; i < 5; i++ {
		_, err := svc.Register(context.Background(), "", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := svc.Register(context.Background(), "", "", "")
	assert.ErrorIs(t, err, ErrRateLimited)
}
