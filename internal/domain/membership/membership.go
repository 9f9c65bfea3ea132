package membership

import (
	"time"

	"github.com/geocoder89/boardhub/internal/domain/role"
)

// Membership binds one user to one organisation with exactly one role.
// The (UserID, OrganisationID) pair is unique; upserting replaces the role
// value atomically.
type Membership struct {
	UserID         string    `json:"userId"`
	OrganisationID string    `json:"organisationId"`
	Role           role.Role `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}
