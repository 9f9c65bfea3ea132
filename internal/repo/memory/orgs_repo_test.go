package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/boardhub/internal/domain/org"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func newOrg(t *testing.T, r *OrgsRepo) org.Organisation {
	t.Helper()

	o, err := r.CreateOrganisation(context.Background(), "example", "Pacific/Auckland")
	if err != nil {
		t.Fatalf("create organisation: %v", err)
	}

	return o
}

func newBoard(t *testing.T, r *OrgsRepo, orgID, name string) org.Board {
	t.Helper()

	b, err := r.PutBoard(context.Background(), orgID, nil, org.BoardInput{Name: strptr(name)})
	if err != nil {
		t.Fatalf("put board: %v", err)
	}

	return b
}

func TestCreateOrganisation(t *testing.T) {
	r := NewOrgsRepo()

	o := newOrg(t, r)

	if o.ID == "" {
		t.Fatal("expected a generated id")
	}

	if !o.CreatedAt.Equal(o.UpdatedAt) {
		t.Fatalf("createdAt %v != updatedAt %v on creation", o.CreatedAt, o.UpdatedAt)
	}

	if len(o.Boards) != 0 || o.Boards == nil {
		t.Fatalf("expected empty boards collection, got %v", o.Boards)
	}
}

func TestCreateOrganisationUnknownTimezone(t *testing.T) {
	r := NewOrgsRepo()

	_, err := r.CreateOrganisation(context.Background(), "example", "Mars/Olympus")
	if !errors.Is(err, org.ErrValidation) {
		t.Fatalf("got err %v, want ErrValidation", err)
	}
}

func TestUpdateOrganisationPartialMerge(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)

	updated, err := r.UpdateOrganisation(context.Background(), o.ID, org.OrganisationInput{Name: strptr("example update")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "example update" {
		t.Fatalf("got name %q, want %q", updated.Name, "example update")
	}

	if updated.Timezone != "Pacific/Auckland" {
		t.Fatalf("timezone changed to %q on a name-only update", updated.Timezone)
	}

	if !updated.UpdatedAt.After(o.UpdatedAt) {
		t.Fatalf("updatedAt did not advance: %v -> %v", o.UpdatedAt, updated.UpdatedAt)
	}
}

func TestPutBoardCreateAndUpdate(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)

	created := newBoard(t, r, o.ID, "example board")

	if created.ID == "" {
		t.Fatal("expected generated board id")
	}

	if created.Tickets == nil || len(created.Tickets) != 0 {
		t.Fatalf("expected empty tickets collection, got %v", created.Tickets)
	}

	updated, err := r.PutBoard(context.Background(), o.ID, &created.ID, org.BoardInput{Name: strptr("Sample board")})
	if err != nil {
		t.Fatalf("update board: %v", err)
	}

	if updated.Name != "Sample board" {
		t.Fatalf("got %q, want Sample board", updated.Name)
	}

	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatal("updatedAt must strictly advance on upsert")
	}

	got, err := r.GetOrganisation(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get organisation: %v", err)
	}

	if len(got.Boards) != 1 || got.Boards[0].ID != created.ID || got.Boards[0].Name != "Sample board" {
		t.Fatalf("organisation boards out of sync: %+v", got.Boards)
	}
}

func TestPutBoardFreshIDs(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)

	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		b := newBoard(t, r, o.ID, "b")
		if seen[b.ID] {
			t.Fatalf("board id %s issued twice", b.ID)
		}
		seen[b.ID] = true
	}
}

func TestPutBoardScopeErrors(t *testing.T) {
	r := NewOrgsRepo()
	o1 := newOrg(t, r)
	o2 := newOrg(t, r)
	b := newBoard(t, r, o1.ID, "example board")

	tests := []struct {
		name    string
		orgID   string
		boardID string
		wantErr error
	}{
		{name: "wrong_parent", orgID: o2.ID, boardID: b.ID, wantErr: org.ErrScopeMismatch},
		{name: "missing_board", orgID: o1.ID, boardID: "nope", wantErr: org.ErrNotFound},
		{name: "missing_org", orgID: "nope", boardID: b.ID, wantErr: org.ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := r.PutBoard(context.Background(), tt.orgID, &tt.boardID, org.BoardInput{Name: strptr("x")})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBoardNoCrossTenantLeakage(t *testing.T) {
	r := NewOrgsRepo()
	o1 := newOrg(t, r)
	o2 := newOrg(t, r)
	b := newBoard(t, r, o1.ID, "example board")

	_, err := r.GetBoard(context.Background(), o2.ID, b.ID)
	if !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("board leaked across organisations: err=%v", err)
	}

	if _, err := r.GetBoard(context.Background(), o1.ID, b.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestPutTicketLifecycle(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "example board")

	created, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{
		Name:        strptr("first ticket"),
		Description: strptr("implement UI for example"),
		Status:      strptr("TODO"),
		Visible:     boolptr(true),
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	if !created.Visible || created.Status != org.StatusTodo {
		t.Fatalf("unexpected created ticket: %+v", created)
	}

	// update without description: it must survive the merge untouched
	updated, err := r.PutTicket(context.Background(), o.ID, b.ID, &created.ID, org.TicketInput{
		Name:    strptr("1st Ticket"),
		Status:  strptr("TODO"),
		Visible: boolptr(false),
	})
	if err != nil {
		t.Fatalf("update ticket: %v", err)
	}

	if updated.Name != "1st Ticket" || updated.Visible {
		t.Fatalf("update not applied: %+v", updated)
	}

	if updated.Description != "implement UI for example" {
		t.Fatalf("omitted description was clobbered: %q", updated.Description)
	}

	got, err := r.GetTicket(context.Background(), o.ID, created.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}

	if got.Board.Name != "example board" {
		t.Fatalf("ticket query missing parent board name: %+v", got.Board)
	}
}

func TestPutTicketRepeatedUpsertAdvancesUpdatedAt(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "example board")

	in := org.TicketInput{Name: strptr("t"), Status: strptr("TODO")}

	created, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	prev := created

	for i := 0; i < 3; i++ {
		next, err := r.PutTicket(context.Background(), o.ID, b.ID, &created.ID, in)
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}

		if next.Name != prev.Name || next.Status != prev.Status || next.Visible != prev.Visible {
			t.Fatalf("identical input changed observable fields: %+v -> %+v", prev, next)
		}

		if !next.UpdatedAt.After(prev.UpdatedAt) {
			t.Fatalf("updatedAt did not strictly increase: %v -> %v", prev.UpdatedAt, next.UpdatedAt)
		}

		prev = next
	}
}

func TestPutTicketDefaultsAndValidation(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "example board")

	created, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{Name: strptr("bare")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !created.Visible {
		t.Fatal("visible must default to true when omitted")
	}

	if created.Status != org.StatusTodo {
		t.Fatalf("status must default to TODO, got %q", created.Status)
	}

	_, err = r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{
		Name:   strptr("bad"),
		Status: strptr("BOGUS"),
	})
	if !errors.Is(err, org.ErrValidation) {
		t.Fatalf("got err %v, want ErrValidation for unknown status", err)
	}
}

func TestDeleteTicketIsTerminal(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "example board")

	created, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{Name: strptr("t")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := r.DeleteTicket(context.Background(), o.ID, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if deleted.ID != created.ID {
		t.Fatalf("delete returned %q, want %q", deleted.ID, created.ID)
	}

	if _, err := r.GetTicket(context.Background(), o.ID, created.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("deleted ticket still resolvable: err=%v", err)
	}

	if _, err := r.DeleteTicket(context.Background(), o.ID, created.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("second delete got err %v, want ErrNotFound", err)
	}
}

func TestDeleteBoardCascadesTickets(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "example board")

	tk, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{Name: strptr("t")})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	if err := r.DeleteBoard(context.Background(), o.ID, b.ID); err != nil {
		t.Fatalf("delete board: %v", err)
	}

	if _, err := r.GetTicket(context.Background(), o.ID, tk.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("orphan ticket survived cascade: err=%v", err)
	}

	if _, err := r.GetBoard(context.Background(), o.ID, b.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("board still present after delete: err=%v", err)
	}
}

func TestPutAbortedByContextLeavesNoWrite(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "before")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.PutBoard(ctx, o.ID, &b.ID, org.BoardInput{Name: strptr("after")}); err == nil {
		t.Fatal("expected a context error")
	}

	got, err := r.GetBoard(context.Background(), o.ID, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Name != "before" {
		t.Fatalf("aborted put left a partial write: %q", got.Name)
	}
}

func TestBoardsListedInCreationOrder(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)

	first := newBoard(t, r, o.ID, "a")
	second := newBoard(t, r, o.ID, "b")

	// updating the first board must not reorder the listing
	if _, err := r.PutBoard(context.Background(), o.ID, &first.ID, org.BoardInput{Name: strptr("a2")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := r.GetOrganisation(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get organisation: %v", err)
	}

	if len(got.Boards) != 2 || got.Boards[0].ID != first.ID || got.Boards[1].ID != second.ID {
		t.Fatalf("boards not in creation order: %+v", got.Boards)
	}
}

func TestDeleteOrganisationRemovesWholeTree(t *testing.T) {
	r := NewOrgsRepo()
	o := newOrg(t, r)
	b := newBoard(t, r, o.ID, "a")

	tk, err := r.PutTicket(context.Background(), o.ID, b.ID, nil, org.TicketInput{Name: strptr("first ticket")})
	if err != nil {
		t.Fatalf("put ticket: %v", err)
	}

	if err := r.DeleteOrganisation(context.Background(), o.ID); err != nil {
		t.Fatalf("delete organisation: %v", err)
	}

	if _, err := r.GetOrganisation(context.Background(), o.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("organisation still resolvable: %v", err)
	}

	if _, err := r.GetTicket(context.Background(), o.ID, tk.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("ticket survived its organisation: %v", err)
	}

	// the ownership indexes must be scrubbed too: the old board id under a
	// fresh organisation is absent, not a scope conflict
	other := newOrg(t, r)

	if _, err := r.PutBoard(context.Background(), other.ID, &b.ID, org.BoardInput{Name: strptr("x")}); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("got err %v, want ErrNotFound", err)
	}

	if err := r.DeleteOrganisation(context.Background(), o.ID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("second delete: got err %v, want ErrNotFound", err)
	}
}
