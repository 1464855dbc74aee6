// internal/clients/members_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"lendhall/internal/members"
	"lendhall/internal/reservation"
)

// MembersClient resolves actor identities and roles against the member
// directory. Resolved actors are cached: roles change rarely and every
// reservation operation needs one lookup.
type MembersClient struct {
	baseURL string
	client  *http.Client
	cache   *lru.Cache[uuid.UUID, reservation.Actor]
}

const roleCacheSize = 1024

func NewMembersClient(baseURL string) (*MembersClient, error) {
	cache, err := lru.New[uuid.UUID, reservation.Actor](roleCacheSize)
	if err != nil {
		return nil, err
	}
	return &MembersClient{
		baseURL: baseURL,
		client:  http.DefaultClient,
		cache:   cache,
	}, nil
}

// Resolve implements reservation.RoleResolver.
func (c *MembersClient) Resolve(ctx context.Context, memberID uuid.UUID) (reservation.Actor, error) {
	if actor, ok := c.cache.Get(memberID); ok {
		return actor, nil
	}

	member, err := c.getMember(ctx, memberID)
	if err != nil {
		return reservation.Actor{}, err
	}

	actor := reservation.Actor{
		ID:   member.ID,
		Role: reservation.ParseRole(member.Role),
	}
	c.cache.Add(memberID, actor)
	return actor, nil
}

func (c *MembersClient) getMember(ctx context.Context, id uuid.UUID) (*members.Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/members/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("member %s: %w", id, reservation.ErrForbidden)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var member members.Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, err
	}
	return &member, nil
}
