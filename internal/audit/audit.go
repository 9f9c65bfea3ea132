package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAction  = errors.New("audit: invalid action")
	ErrInvalidPayload = errors.New("audit: invalid payload")
)

type Action string

const (
	ActionUserCreated        Action = "user.created"
	ActionOrgCreated         Action = "organisation.created"
	ActionOrgUpdated         Action = "organisation.updated"
	ActionBoardPut           Action = "board.put"
	ActionBoardDeleted       Action = "board.deleted"
	ActionTicketPut          Action = "ticket.put"
	ActionTicketDeleted      Action = "ticket.deleted"
	ActionMembershipUpserted Action = "membership.upserted"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionUserCreated,
		ActionOrgCreated,
		ActionOrgUpdated,
		ActionBoardPut,
		ActionBoardDeleted,
		ActionTicketPut,
		ActionTicketDeleted,
		ActionMembershipUpserted:
		return true
	}

	return false
}

// an Event is one recorded mutation. Events are enqueued by the API process
// and drained by the worker; the queue only ever carries the encoded form.
type Event struct {
	ID             string    `json:"id"`
	Action         Action    `json:"action"`
	ActorID        string    `json:"actorId"`
	OrganisationID string    `json:"organisationId,omitempty"`
	EntityID       string    `json:"entityId,omitempty"`
	At             time.Time `json:"at"`
}

func NewEvent(action Action, actorID, orgID, entityID string) (Event, error) {
	if !action.IsValid() {
		return Event{}, ErrInvalidAction
	}

	return Event{
		ID:             uuid.NewString(),
		Action:         action,
		ActorID:        actorID,
		OrganisationID: orgID,
		EntityID:       entityID,
		At:             time.Now().UTC(),
	}, nil
}
