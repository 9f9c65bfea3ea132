package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrgsRepo is the postgres organisation -> board -> ticket store. Every
// mutation runs in its own transaction so scope checks and the write commit
// or roll back together (all-or-nothing per call); child tables carry the
// owning organisation id so lookups are always composite-keyed.
type OrgsRepo struct {
	pool *pgxpool.Pool
}

func NewOrgsRepo(pool *pgxpool.Pool) *OrgsRepo {
	return &OrgsRepo{pool: pool}
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
		Boards:    []org.Board{},
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO organisations(id, name, timezone, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5)`,
		o.ID, o.Name, o.Timezone, o.CreatedAt, o.UpdatedAt)

	if err != nil {
		return org.Organisation{}, err
	}

	return o, nil
}

func (r *OrgsRepo) UpdateOrganisation(ctx context.Context, orgID string, in org.OrganisationInput) (org.Organisation, error) {
	if in.Timezone != nil {
		if err := org.ValidateTimezone(*in.Timezone); err != nil {
			return org.Organisation{}, err
		}
	}

	var o org.Organisation

	err := r.pool.QueryRow(ctx,
		`UPDATE organisations
		 SET name = COALESCE($2, name),
		     timezone = COALESCE($3, timezone),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, name, timezone, created_at, updated_at`,
		orgID, in.Name, in.Timezone).
		Scan(&o.ID, &o.Name, &o.Timezone, &o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.Organisation{}, org.ErrNotFound
		}
		return org.Organisation{}, err
	}

	o.Boards, err = r.boardsOf(ctx, orgID)
	if err != nil {
		return org.Organisation{}, err
	}

	return o, nil
}

func (r *OrgsRepo) GetOrganisation(ctx context.Context, orgID string) (org.Organisation, error) {
	var o org.Organisation

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, timezone, created_at, updated_at FROM organisations WHERE id = $1`, orgID).
		Scan(&o.ID, &o.Name, &o.Timezone, &o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.Organisation{}, org.ErrNotFound
		}
		return org.Organisation{}, err
	}

	o.Boards, err = r.boardsOf(ctx, orgID)
	if err != nil {
		return org.Organisation{}, err
	}

	return o, nil
}

// DeleteOrganisation removes an organisation; boards, tickets and memberships
// follow via ON DELETE CASCADE. Used to roll back a creation whose bootstrap
// membership could not be written.
func (r *OrgsRepo) DeleteOrganisation(ctx context.Context, orgID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organisations WHERE id = $1`, orgID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return org.ErrNotFound
	}

	return nil
}

func (r *OrgsRepo) OrganisationExists(ctx context.Context, orgID string) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM organisations WHERE id = $1)`, orgID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *OrgsRepo) PutBoard(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return org.Board{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if ok, err := orgExistsTx(ctx, tx, orgID); err != nil {
		return org.Board{}, err
	} else if !ok {
		return org.Board{}, org.ErrNotFound
	}

	var b org.Board

	if boardID == nil {
		if in.Name == nil {
			return org.Board{}, fmt.Errorf("%w: name is required", org.ErrValidation)
		}

		now := time.Now().UTC()

		b = org.Board{
			ID:        uuid.NewString(),
			Name:      *in.Name,
			CreatedAt: now,
			UpdatedAt: now,
			Tickets:   []org.Ticket{},
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO boards(id, organisation_id, name, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5)`,
			b.ID, orgID, b.Name, b.CreatedAt, b.UpdatedAt)

		if err != nil {
			return org.Board{}, err
		}

		if err := tx.Commit(ctx); err != nil {
			return org.Board{}, err
		}

		return b, nil
	}

	if err := checkBoardScope(ctx, tx, *boardID, orgID); err != nil {
		return org.Board{}, err
	}

	err = tx.QueryRow(ctx,
		`UPDATE boards
		 SET name = COALESCE($3, name),
		     updated_at = NOW()
		 WHERE id = $1 AND organisation_id = $2
		 RETURNING id, name, created_at, updated_at`,
		*boardID, orgID, in.Name).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return org.Board{}, err
	}

	b.Tickets, err = ticketsOfBoardTx(ctx, tx, *boardID)
	if err != nil {
		return org.Board{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return org.Board{}, err
	}

	return b, nil
}

func (r *OrgsRepo) GetBoard(ctx context.Context, orgID, boardID string) (org.Board, error) {
	var b org.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM boards WHERE id = $1 AND organisation_id = $2`, boardID, orgID).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.Board{}, org.ErrNotFound
		}
		return org.Board{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, status, visible, created_at, updated_at
		 FROM tickets WHERE board_id = $1
		 ORDER BY created_at ASC, id ASC`, boardID)

	if err != nil {
		return org.Board{}, err
	}

	defer rows.Close()

	b.Tickets = make([]org.Ticket, 0)

	for rows.Next() {
		var t org.Ticket

		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return org.Board{}, err
		}

		b.Tickets = append(b.Tickets, t)
	}

	if err := rows.Err(); err != nil {
		return org.Board{}, err
	}

	return b, nil
}

// DeleteBoard removes the board; the tickets FK cascades so no orphans remain.
func (r *OrgsRepo) DeleteBoard(ctx context.Context, orgID, boardID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkBoardScope(ctx, tx, boardID, orgID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM boards WHERE id = $1 AND organisation_id = $2`, boardID, orgID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *OrgsRepo) PutTicket(ctx context.Context, orgID, boardID string, ticketID *string, in org.TicketInput) (org.Ticket, error) {
	if in.Status != nil {
		if err := org.ValidateStatus(*in.Status); err != nil {
			return org.Ticket{}, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return org.Ticket{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkBoardScope(ctx, tx, boardID, orgID); err != nil {
		return org.Ticket{}, err
	}

	var t org.Ticket

	if ticketID == nil {
		if in.Name == nil {
			return org.Ticket{}, fmt.Errorf("%w: name is required", org.ErrValidation)
		}

		now := time.Now().UTC()

		t = org.Ticket{
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

		_, err = tx.Exec(ctx,
			`INSERT INTO tickets(id, board_id, organisation_id, name, description, status, visible, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, boardID, orgID, t.Name, t.Description, t.Status, t.Visible, t.CreatedAt, t.UpdatedAt)

		if err != nil {
			return org.Ticket{}, err
		}

		if err := tx.Commit(ctx); err != nil {
			return org.Ticket{}, err
		}

		return t, nil
	}

	var ownerBoard, ownerOrg string

	err = tx.QueryRow(ctx, `SELECT board_id, organisation_id FROM tickets WHERE id = $1`, *ticketID).
		Scan(&ownerBoard, &ownerOrg)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.Ticket{}, org.ErrNotFound
		}
		return org.Ticket{}, err
	}

	if ownerBoard != boardID || ownerOrg != orgID {
		return org.Ticket{}, org.ErrScopeMismatch
	}

	err = tx.QueryRow(ctx,
		`UPDATE tickets
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     status = COALESCE($4, status),
		     visible = COALESCE($5, visible),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, name, description, status, visible, created_at, updated_at`,
		*ticketID, in.Name, in.Description, in.Status, in.Visible).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return org.Ticket{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return org.Ticket{}, err
	}

	return t, nil
}

func (r *OrgsRepo) GetTicket(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error) {
	var t org.TicketWithBoard

	err := r.pool.QueryRow(ctx,
		`SELECT t.id, t.name, t.description, t.status, t.visible, t.created_at, t.updated_at, b.id, b.name
		 FROM tickets t
		 JOIN boards b ON b.id = t.board_id
		 WHERE t.id = $1 AND t.organisation_id = $2`, ticketID, orgID).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt, &t.Board.ID, &t.Board.Name)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.TicketWithBoard{}, org.ErrNotFound
		}
		return org.TicketWithBoard{}, err
	}

	return t, nil
}

func (r *OrgsRepo) DeleteTicket(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
	var t org.Ticket

	err := r.pool.QueryRow(ctx,
		`DELETE FROM tickets
		 WHERE id = $1 AND organisation_id = $2
		 RETURNING id, name, description, status, visible, created_at, updated_at`,
		ticketID, orgID).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.Ticket{}, org.ErrNotFound
		}
		return org.Ticket{}, err
	}

	return t, nil
}

// boardsOf loads all boards of an organisation with their tickets, both in
// creation order.
func (r *OrgsRepo) boardsOf(ctx context.Context, orgID string) ([]org.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM boards WHERE organisation_id = $1
		 ORDER BY created_at ASC, id ASC`, orgID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	boards := make([]org.Board, 0)
	index := make(map[string]int)

	for rows.Next() {
		var b org.Board

		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}

		b.Tickets = make([]org.Ticket, 0)
		index[b.ID] = len(boards)
		boards = append(boards, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := r.pool.Query(ctx,
		`SELECT id, board_id, name, description, status, visible, created_at, updated_at
		 FROM tickets WHERE organisation_id = $1
		 ORDER BY created_at ASC, id ASC`, orgID)

	if err != nil {
		return nil, err
	}

	defer trows.Close()

	for trows.Next() {
		var t org.Ticket
		var boardID string

		if err := trows.Scan(&t.ID, &boardID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}

		if i, ok := index[boardID]; ok {
			boards[i].Tickets = append(boards[i].Tickets, t)
		}
	}

	if err := trows.Err(); err != nil {
		return nil, err
	}

	return boards, nil
}

func orgExistsTx(ctx context.Context, tx pgx.Tx, orgID string) (bool, error) {
	var exists bool

	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM organisations WHERE id = $1)`, orgID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// checkBoardScope distinguishes "no such board" from "board under another
// organisation" so upserts cannot silently cross tenants.
func checkBoardScope(ctx context.Context, tx pgx.Tx, boardID, orgID string) error {
	var owner string

	err := tx.QueryRow(ctx, `SELECT organisation_id FROM boards WHERE id = $1`, boardID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org.ErrNotFound
		}
		return err
	}

	if owner != orgID {
		return org.ErrScopeMismatch
	}

	return nil
}

func ticketsOfBoardTx(ctx context.Context, tx pgx.Tx, boardID string) ([]org.Ticket, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, name, description, status, visible, created_at, updated_at
		 FROM tickets WHERE board_id = $1
		 ORDER BY created_at ASC, id ASC`, boardID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]org.Ticket, 0)

	for rows.Next() {
		var t org.Ticket

		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.Visible, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
