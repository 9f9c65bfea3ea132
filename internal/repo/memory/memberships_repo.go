package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/boardhub/internal/domain/membership"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
)

type UserChecker interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

type OrganisationChecker interface {
	OrganisationExists(ctx context.Context, id string) (bool, error)
}

// MembershipsRepo is the in-memory membership ledger: at most one role per
// (user, organisation) pair, listed per user in insertion order.
type MembershipsRepo struct {
	mu     sync.RWMutex
	users  UserChecker
	orgs   OrganisationChecker
	byUser map[string][]membership.Membership
}

func NewMembershipsRepo(users UserChecker, orgs OrganisationChecker) *MembershipsRepo {
	return &MembershipsRepo{
		users:  users,
		orgs:   orgs,
		byUser: make(map[string][]membership.Membership),
	}
}

// Upsert inserts the membership or replaces the role of an existing one.
// Replacing keeps the original ledger position so MembershipsOf stays stable.
func (r *MembershipsRepo) Upsert(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error) {
	if ok, err := r.users.UserExists(ctx, userID); err != nil {
		return membership.Membership{}, err
	} else if !ok {
		return membership.Membership{}, user.ErrNotFound
	}

	if ok, err := r.orgs.OrganisationExists(ctx, orgID); err != nil {
		return membership.Membership{}, err
	} else if !ok {
		return membership.Membership{}, org.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return membership.Membership{}, err
	}

	list := r.byUser[userID]

	for i, m := range list {
		if m.OrganisationID == orgID {
			// the whole role value is swapped under the lock; readers never
			// observe a half-updated role
			list[i].Role = rl
			return list[i], nil
		}
	}

	m := membership.Membership{
		UserID:         userID,
		OrganisationID: orgID,
		Role:           rl,
		CreatedAt:      time.Now().UTC(),
	}

	r.byUser[userID] = append(list, m)

	return m, nil
}

// RoleOf reports the caller's role in an organisation. ok=false means "not a
// member", which is different from a member whose role grants nothing.
func (r *MembershipsRepo) RoleOf(ctx context.Context, userID, orgID string) (role.Role, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.byUser[userID] {
		if m.OrganisationID == orgID {
			return m.Role, true, nil
		}
	}

	return nil, false, nil
}

func (r *MembershipsRepo) MembershipsOf(ctx context.Context, userID string) ([]membership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byUser[userID]
	out := make([]membership.Membership, len(list))
	copy(out, list)

	return out, nil
}
