package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/google/uuid"
)

// OrgsRepo is the in-memory organisation -> board -> ticket store. One lock
// guards the whole tree so cross-scope checks, merges and cascades stay
// atomic; mutations are computed first and only published after a context
// check, so an aborted call leaves nothing behind.
type OrgsRepo struct {
	mu      sync.RWMutex
	orgs    map[string]*orgRecord
	boards  map[string]string    // boardID -> owning orgID
	tickets map[string]ticketKey // ticketID -> owning (orgID, boardID)
}

type ticketKey struct {
	orgID   string
	boardID string
}

type orgRecord struct {
	org        org.Organisation // Boards left nil; assembled on read
	boardOrder []string
	boards     map[string]*boardRecord
}

type boardRecord struct {
	board       org.Board // Tickets left nil; assembled on read
	ticketOrder []string
	tickets     map[string]org.Ticket
}

func NewOrgsRepo() *OrgsRepo {
	return &OrgsRepo{
		orgs:    make(map[string]*orgRecord),
		boards:  make(map[string]string),
		tickets: make(map[string]ticketKey),
	}
}

func (r *OrgsRepo) CreateOrganisation(ctx context.Context, name, timezone string) (org.Organisation, error) {
	if name == "" {
		return org.Organisation{}, fmt.Errorf("%w: name is required", org.ErrValidation)
	}

	if err := org.ValidateTimezone(timezone); err != nil {
		return org.Organisation{}, err
	}

	now := time.Now().UTC()

	o := org.Organisation{
		ID:        uuid.NewString(),
		Name:      name,
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return org.Organisation{}, err
	}

	r.orgs[o.ID] = &orgRecord{
		org:    o,
		boards: make(map[string]*boardRecord),
	}

	o.Boards = []org.Board{}

	return o, nil
}

func (r *OrgsRepo) UpdateOrganisation(ctx context.Context, orgID string, in org.OrganisationInput) (org.Organisation, error) {
	if in.Timezone != nil {
		if err := org.ValidateTimezone(*in.Timezone); err != nil {
			return org.Organisation{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.Organisation{}, org.ErrNotFound
	}

	// merge over a copy, publish only if the call is still live
	merged := rec.org

	if in.Name != nil {
		merged.Name = *in.Name
	}

	if in.Timezone != nil {
		merged.Timezone = *in.Timezone
	}

	merged.UpdatedAt = bump(merged.UpdatedAt)

	if err := ctx.Err(); err != nil {
		return org.Organisation{}, err
	}

	rec.org = merged

	return r.assembleOrg(rec), nil
}

func (r *OrgsRepo) GetOrganisation(ctx context.Context, orgID string) (org.Organisation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.Organisation{}, org.ErrNotFound
	}

	return r.assembleOrg(rec), nil
}

// DeleteOrganisation removes an organisation and everything under it. Used
// to roll back a creation whose bootstrap membership could not be written.
func (r *OrgsRepo) DeleteOrganisation(ctx context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.ErrNotFound
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for boardID, brec := range rec.boards {
		for id := range brec.tickets {
			delete(r.tickets, id)
		}
		delete(r.boards, boardID)
	}

	delete(r.orgs, orgID)

	return nil
}

func (r *OrgsRepo) OrganisationExists(ctx context.Context, orgID string) (bool, error) {
	r.mu.RLock()
	_, ok := r.orgs[orgID]
	r.mu.RUnlock()

	return ok, nil
}

// PutBoard creates a board when boardID is nil and merges the input over the
// existing board when it is set. A boardID owned by another organisation
// fails with ErrScopeMismatch, never a silent takeover.
func (r *OrgsRepo) PutBoard(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.Board{}, org.ErrNotFound
	}

	if boardID == nil {
		if in.Name == nil {
			return org.Board{}, fmt.Errorf("%w: name is required", org.ErrValidation)
		}

		now := time.Now().UTC()

		b := org.Board{
			ID:        uuid.NewString(),
			Name:      *in.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := ctx.Err(); err != nil {
			return org.Board{}, err
		}

		rec.boards[b.ID] = &boardRecord{board: b, tickets: make(map[string]org.Ticket)}
		rec.boardOrder = append(rec.boardOrder, b.ID)
		r.boards[b.ID] = orgID

		b.Tickets = []org.Ticket{}

		return b, nil
	}

	brec, ok := rec.boards[*boardID]
	if !ok {
		if owner, exists := r.boards[*boardID]; exists && owner != orgID {
			return org.Board{}, org.ErrScopeMismatch
		}
		return org.Board{}, org.ErrNotFound
	}

	merged := brec.board

	if in.Name != nil {
		merged.Name = *in.Name
	}

	merged.UpdatedAt = bump(merged.UpdatedAt)

	if err := ctx.Err(); err != nil {
		return org.Board{}, err
	}

	brec.board = merged

	return assembleBoard(brec), nil
}

func (r *OrgsRepo) GetBoard(ctx context.Context, orgID, boardID string) (org.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.Board{}, org.ErrNotFound
	}

	brec, ok := rec.boards[boardID]
	if !ok {
		// scoped lookup: a board under another organisation is absent here
		return org.Board{}, org.ErrNotFound
	}

	return assembleBoard(brec), nil
}

// DeleteBoard removes a board and cascades to its tickets so no orphans remain.
func (r *OrgsRepo) DeleteBoard(ctx context.Context, orgID, boardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.ErrNotFound
	}

	brec, ok := rec.boards[boardID]
	if !ok {
		if owner, exists := r.boards[boardID]; exists && owner != orgID {
			return org.ErrScopeMismatch
		}
		return org.ErrNotFound
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for id := range brec.tickets {
		delete(r.tickets, id)
	}

	delete(rec.boards, boardID)
	delete(r.boards, boardID)
	rec.boardOrder = removeID(rec.boardOrder, boardID)

	return nil
}

// PutTicket upserts a ticket under (orgID, boardID). Visible defaults to true
// on create and is only touched on update when the input carries it.
func (r *OrgsRepo) PutTicket(ctx context.Context, orgID, boardID string, ticketID *string, in org.TicketInput) (org.Ticket, error) {
	if in.Status != nil {
		if err := org.ValidateStatus(*in.Status); err != nil {
			return org.Ticket{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orgs[orgID]
	if !ok {
		return org.Ticket{}, org.ErrNotFound
	}

	brec, ok := rec.boards[boardID]
	if !ok {
		if owner, exists := r.boards[boardID]; exists && owner != orgID {
			return org.Ticket{}, org.ErrScopeMismatch
		}
		return org.Ticket{}, org.ErrNotFound
	}

	if ticketID == nil {
		if in.Name == nil {
			return org.Ticket{}, fmt.Errorf("%w: name is required", org.ErrValidation)
		}

		now := time.Now().UTC()

		t := org.Ticket{
			ID:        uuid.NewString(),
			Name:      *in.Name,
			Status:    org.StatusTodo,
			Visible:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if in.Description != nil {
			t.Description = *in.Description
		}

		if in.Status != nil {
			t.Status = org.TicketStatus(*in.Status)
		}

		if in.Visible != nil {
			t.Visible = *in.Visible
		}

		if err := ctx.Err(); err != nil {
			return org.Ticket{}, err
		}

		brec.tickets[t.ID] = t
		brec.ticketOrder = append(brec.ticketOrder, t.ID)
		r.tickets[t.ID] = ticketKey{orgID: orgID, boardID: boardID}

		return t, nil
	}

	t, ok := brec.tickets[*ticketID]
	if !ok {
		if key, exists := r.tickets[*ticketID]; exists && (key.orgID != orgID || key.boardID != boardID) {
			return org.Ticket{}, org.ErrScopeMismatch
		}
		return org.Ticket{}, org.ErrNotFound
	}

	if in.Name != nil {
		t.Name = *in.Name
	}

	if in.Description != nil {
		t.Description = *in.Description
	}

	if in.Status != nil {
		t.Status = org.TicketStatus(*in.Status)
	}

	if in.Visible != nil {
		t.Visible = *in.Visible
	}

	t.UpdatedAt = bump(t.UpdatedAt)

	if err := ctx.Err(); err != nil {
		return org.Ticket{}, err
	}

	brec.tickets[*ticketID] = t

	return t, nil
}

// GetTicket resolves a ticket by organisation scope alone; callers do not
// need to know which board it lives on.
func (r *OrgsRepo) GetTicket(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.tickets[ticketID]
	if !ok || key.orgID != orgID {
		return org.TicketWithBoard{}, org.ErrNotFound
	}

	brec := r.orgs[key.orgID].boards[key.boardID]

	return org.TicketWithBoard{
		Ticket: brec.tickets[ticketID],
		Board:  org.BoardRef{ID: brec.board.ID, Name: brec.board.Name},
	}, nil
}

func (r *OrgsRepo) DeleteTicket(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.tickets[ticketID]
	if !ok || key.orgID != orgID {
		return org.Ticket{}, org.ErrNotFound
	}

	brec := r.orgs[key.orgID].boards[key.boardID]
	t := brec.tickets[ticketID]

	if err := ctx.Err(); err != nil {
		return org.Ticket{}, err
	}

	delete(brec.tickets, ticketID)
	delete(r.tickets, ticketID)
	brec.ticketOrder = removeID(brec.ticketOrder, ticketID)

	return t, nil
}

// assembleOrg builds a detached copy with boards and tickets in creation order.
func (r *OrgsRepo) assembleOrg(rec *orgRecord) org.Organisation {
	o := rec.org
	o.Boards = make([]org.Board, 0, len(rec.boardOrder))

	for _, id := range rec.boardOrder {
		o.Boards = append(o.Boards, assembleBoard(rec.boards[id]))
	}

	return o
}

func assembleBoard(brec *boardRecord) org.Board {
	b := brec.board
	b.Tickets = make([]org.Ticket, 0, len(brec.ticketOrder))

	for _, id := range brec.ticketOrder {
		b.Tickets = append(b.Tickets, brec.tickets[id])
	}

	return b
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}

// bump stamps a new updatedAt that is strictly later than the previous one,
// even if the clock has not ticked between two calls.
func bump(prev time.Time) time.Time {
	now := time.Now().UTC()

	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}

	return now
}
