package authz

import (
	"context"
	"errors"

	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
)

var ErrForbidden = errors.New("forbidden")

// RoleResolver is the slice of the membership ledger the guard needs.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID, orgID string) (role.Role, bool, error)
}

// Guard sits between the handlers and the stores: every organisation-scoped
// operation resolves the caller's membership here before any store access.
type Guard struct {
	roles RoleResolver
}

func New(roles RoleResolver) *Guard {
	return &Guard{roles: roles}
}

// Authorize checks that the caller holds at least the needed capability in
// the target organisation. Non-members are denied outright, which also keeps
// the existence of foreign organisations hidden. The resolved capabilities
// are returned so callers can apply MaskNotFound afterwards.
func (g *Guard) Authorize(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error) {
	if callerID == "" {
		return role.Capabilities{}, ErrForbidden
	}

	r, ok, err := g.roles.RoleOf(ctx, callerID, orgID)
	if err != nil {
		return role.Capabilities{}, err
	}

	if !ok {
		return role.Capabilities{}, ErrForbidden
	}

	caps, err := role.CapabilitiesOf(r)
	if err != nil {
		return role.Capabilities{}, err
	}

	if !caps.Has(need) {
		return caps, ErrForbidden
	}

	return caps, nil
}

// MaskNotFound re-reports a store NotFound as Forbidden when the caller
// cannot read the scope, so probing for ids never reveals whether a resource
// exists. Other errors pass through unchanged.
func MaskNotFound(err error, caps role.Capabilities) error {
	if errors.Is(err, org.ErrNotFound) && !caps.CanRead {
		return ErrForbidden
	}

	return err
}
