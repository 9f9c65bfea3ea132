package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/domain/membership"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Consumer-side interfaces: each handler declares only the slice of the
// stores it touches, so tests fake exactly that slice.

type UserStore interface {
	Create(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type OrgStore interface {
	CreateOrganisation(ctx context.Context, name, timezone string) (org.Organisation, error)
	UpdateOrganisation(ctx context.Context, orgID string, in org.OrganisationInput) (org.Organisation, error)
	GetOrganisation(ctx context.Context, orgID string) (org.Organisation, error)
	DeleteOrganisation(ctx context.Context, orgID string) error
	PutBoard(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error)
	GetBoard(ctx context.Context, orgID, boardID string) (org.Board, error)
	DeleteBoard(ctx context.Context, orgID, boardID string) error
	PutTicket(ctx context.Context, orgID, boardID string, ticketID *string, in org.TicketInput) (org.Ticket, error)
	GetTicket(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error)
	DeleteTicket(ctx context.Context, orgID, ticketID string) (org.Ticket, error)
}

type MembershipStore interface {
	Upsert(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error)
	MembershipsOf(ctx context.Context, userID string) ([]membership.Membership, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error)
}

type Auditor interface {
	Record(ctx context.Context, action audit.Action, actorID, orgID, entityID string)
}

// reqCtx derives a bounded context from the incoming request so client
// disconnects propagate into the stores.
func reqCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
