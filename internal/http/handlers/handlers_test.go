package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/authz"
	"github.com/geocoder89/boardhub/internal/domain/membership"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/geocoder89/boardhub/internal/http/handlers"
	"github.com/geocoder89/boardhub/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake store implementations of the handler-side interfaces

type fakeUserStore struct {
	createFn     func(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, passwordHash)
	}

	return user.User{}, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, nil
}

type fakeOrgStore struct {
	createOrgFn    func(ctx context.Context, name, timezone string) (org.Organisation, error)
	updateOrgFn    func(ctx context.Context, orgID string, in org.OrganisationInput) (org.Organisation, error)
	getOrgFn       func(ctx context.Context, orgID string) (org.Organisation, error)
	deleteOrgFn    func(ctx context.Context, orgID string) error
	putBoardFn     func(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error)
	getBoardFn     func(ctx context.Context, orgID, boardID string) (org.Board, error)
	deleteBoardFn  func(ctx context.Context, orgID, boardID string) error
	putTicketFn    func(ctx context.Context, orgID, boardID string, ticketID *string, in org.TicketInput) (org.Ticket, error)
	getTicketFn    func(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error)
	deleteTicketFn func(ctx context.Context, orgID, ticketID string) (org.Ticket, error)
}

func (f *fakeOrgStore) CreateOrganisation(ctx context.Context, name, timezone string) (org.Organisation, error) {
	if f.createOrgFn != nil {
		return f.createOrgFn(ctx, name, timezone)
	}

	return org.Organisation{}, nil
}

func (f *fakeOrgStore) UpdateOrganisation(ctx context.Context, orgID string, in org.OrganisationInput) (org.Organisation, error) {
	if f.updateOrgFn != nil {
		return f.updateOrgFn(ctx, orgID, in)
	}

	return org.Organisation{}, nil
}

func (f *fakeOrgStore) GetOrganisation(ctx context.Context, orgID string) (org.Organisation, error) {
	if f.getOrgFn != nil {
		return f.getOrgFn(ctx, orgID)
	}

	return org.Organisation{}, nil
}

func (f *fakeOrgStore) DeleteOrganisation(ctx context.Context, orgID string) error {
	if f.deleteOrgFn != nil {
		return f.deleteOrgFn(ctx, orgID)
	}

	return nil
}

func (f *fakeOrgStore) PutBoard(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
	if f.putBoardFn != nil {
		return f.putBoardFn(ctx, orgID, boardID, in)
	}

	return org.Board{}, nil
}

func (f *fakeOrgStore) GetBoard(ctx context.Context, orgID, boardID string) (org.Board, error) {
	if f.getBoardFn != nil {
		return f.getBoardFn(ctx, orgID, boardID)
	}

	return org.Board{}, nil
}

func (f *fakeOrgStore) DeleteBoard(ctx context.Context, orgID, boardID string) error {
	if f.deleteBoardFn != nil {
		return f.deleteBoardFn(ctx, orgID, boardID)
	}

	return nil
}

func (f *fakeOrgStore) PutTicket(ctx context.Context, orgID, boardID string, ticketID *string, in org.TicketInput) (org.Ticket, error) {
	if f.putTicketFn != nil {
		return f.putTicketFn(ctx, orgID, boardID, ticketID, in)
	}

	return org.Ticket{}, nil
}

func (f *fakeOrgStore) GetTicket(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error) {
	if f.getTicketFn != nil {
		return f.getTicketFn(ctx, orgID, ticketID)
	}

	return org.TicketWithBoard{}, nil
}

func (f *fakeOrgStore) DeleteTicket(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
	if f.deleteTicketFn != nil {
		return f.deleteTicketFn(ctx, orgID, ticketID)
	}

	return org.Ticket{}, nil
}

type fakeMembershipStore struct {
	upsertFn        func(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error)
	membershipsOfFn func(ctx context.Context, userID string) ([]membership.Membership, error)
}

func (f *fakeMembershipStore) Upsert(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, userID, orgID, rl)
	}

	return membership.Membership{UserID: userID, OrganisationID: orgID, Role: rl}, nil
}

func (f *fakeMembershipStore) MembershipsOf(ctx context.Context, userID string) ([]membership.Membership, error) {
	if f.membershipsOfFn != nil {
		return f.membershipsOfFn(ctx, userID)
	}

	return nil, nil
}

type fakeGuard struct {
	authorizeFn func(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error)
}

func (f *fakeGuard) Authorize(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error) {
	if f.authorizeFn != nil {
		return f.authorizeFn(ctx, callerID, orgID, need)
	}

	return role.Capabilities{CanRead: true, CanWrite: true, CanAdminister: true}, nil
}

type fakeAuditor struct {
	recorded []audit.Action
}

func (f *fakeAuditor) Record(ctx context.Context, action audit.Action, actorID, orgID, entityID string) {
	f.recorded = append(f.recorded, action)
}

func denyAll(f *fakeGuard) {
	f.authorizeFn = func(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error) {
		return role.Capabilities{}, authz.ErrForbidden
	}
}

// small helper which mounts one handler behind a fixed caller identity

func setupRouter(method, path string, callerID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		if callerID != "" {
			c.Set("auth.userID", callerID)
		}
		h(c)
	})

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	if body == "" {
		buf = bytes.NewBuffer(nil)
	} else {
		buf = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

// --- putBoard

func TestPutBoardHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		guardSetup     func(*fakeGuard)
		repoSetup      func(*fakeOrgStore)
		wantStatusCode int
	}{
		{
			name: "create_success",
			body: `{"input": {"name": "example board"}}`,
			repoSetup: func(f *fakeOrgStore) {
				f.putBoardFn = func(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
					if boardID != nil {
						t.Fatalf("expected nil boardID on create, got %v", *boardID)
					}

					return org.Board{
						ID:        "b1",
						Name:      *in.Name,
						CreatedAt: now,
						UpdatedAt: now,
						Tickets:   []org.Ticket{},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "forbidden_for_non_member",
			body:           `{"input": {"name": "example board"}}`,
			guardSetup:     denyAll,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "wrong_parent_is_conflict",
			body: `{"boardId": "b-other", "input": {"name": "x"}}`,
			repoSetup: func(f *fakeOrgStore) {
				f.putBoardFn = func(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
					return org.Board{}, org.ErrScopeMismatch
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "missing_board_is_not_found",
			body: `{"boardId": "b-missing", "input": {"name": "x"}}`,
			repoSetup: func(f *fakeOrgStore) {
				f.putBoardFn = func(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
					return org.Board{}, org.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_body",
			body:           `{not json`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeOrgStore{}
			guard := &fakeGuard{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			if tt.guardSetup != nil {
				tt.guardSetup(guard)
			}

			h := handlers.NewBoardsHandler(repo, guard, &fakeAuditor{})
			r := setupRouter(http.MethodPut, "/organisations/:orgId/boards", "u1", h.Put)

			w := doJSON(t, r, http.MethodPut, "/organisations/o1/boards", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- ticket query: absent results are null, not errors

func TestGetTicketHandler(t *testing.T) {
	repo := &fakeOrgStore{
		getTicketFn: func(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error) {
			return org.TicketWithBoard{}, org.ErrNotFound
		},
	}

	h := handlers.NewTicketsHandler(repo, &fakeGuard{}, &fakeAuditor{})
	r := setupRouter(http.MethodGet, "/organisations/:orgId/tickets/:ticketId", "u1", h.Get)

	w := doJSON(t, r, http.MethodGet, "/organisations/o1/tickets/t-missing", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}

	if string(out["ticket"]) != "null" {
		t.Fatalf("expected ticket=null, got %s", out["ticket"])
	}
}

func TestGetTicketHandlerIncludesBoard(t *testing.T) {
	repo := &fakeOrgStore{
		getTicketFn: func(ctx context.Context, orgID, ticketID string) (org.TicketWithBoard, error) {
			return org.TicketWithBoard{
				Ticket: org.Ticket{ID: ticketID, Name: "Foo", Status: org.StatusTodo, Visible: true},
				Board:  org.BoardRef{ID: "b1", Name: "Sample board"},
			}, nil
		},
	}

	h := handlers.NewTicketsHandler(repo, &fakeGuard{}, &fakeAuditor{})
	r := setupRouter(http.MethodGet, "/organisations/:orgId/tickets/:ticketId", "u1", h.Get)

	w := doJSON(t, r, http.MethodGet, "/organisations/o1/tickets/t1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Ticket struct {
			Board struct {
				Name string `json:"name"`
			} `json:"board"`
		} `json:"ticket"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}

	if out.Ticket.Board.Name != "Sample board" {
		t.Fatalf("expected board name in ticket payload, got %q", out.Ticket.Board.Name)
	}
}

// --- deleteTicket

func TestDeleteTicketHandler(t *testing.T) {
	tests := []struct {
		name           string
		guardSetup     func(*fakeGuard)
		repoSetup      func(*fakeOrgStore)
		wantStatusCode int
	}{
		{
			name: "returns_removed_record",
			repoSetup: func(f *fakeOrgStore) {
				f.deleteTicketFn = func(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
					return org.Ticket{ID: ticketID, Name: "gone", Status: org.StatusDone, Visible: true}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "second_delete_is_not_found",
			repoSetup: func(f *fakeOrgStore) {
				f.deleteTicketFn = func(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
					return org.Ticket{}, org.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "reader_cannot_delete",
			guardSetup:     denyAll,
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeOrgStore{}
			guard := &fakeGuard{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			if tt.guardSetup != nil {
				tt.guardSetup(guard)
			}

			auditor := &fakeAuditor{}
			h := handlers.NewTicketsHandler(repo, guard, auditor)
			r := setupRouter(http.MethodDelete, "/organisations/:orgId/tickets/:ticketId", "u1", h.Delete)

			w := doJSON(t, r, http.MethodDelete, "/organisations/o1/tickets/t1", "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK && len(auditor.recorded) != 1 {
				t.Fatalf("expected one audit event, got %d", len(auditor.recorded))
			}
		})
	}
}

// --- createUser

func TestCreateUserHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"user": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}}`,
			repoSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error) {
					if passwordHash != "" {
						t.Fatalf("createUser must not set credentials")
					}

					return user.User{
						ID:        "u-new",
						Email:     req.Email,
						FirstName: req.FirstName,
						LastName:  req.LastName,
						CreatedAt: now,
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "email_taken",
			body: `{"user": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}}`,
			repoSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "missing_email",
			body:           `{"user": {"firstName": "Ada", "lastName": "Lovelace"}}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserStore{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewUsersHandler(repo, &fakeAuditor{})
			r := setupRouter(http.MethodPost, "/users", "u1", h.Create)

			w := doJSON(t, r, http.MethodPost, "/users", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- createOrganisation makes the caller an admin member

func TestCreateOrganisationHandler(t *testing.T) {
	var grantedTo string
	var granted role.Role

	orgs := &fakeOrgStore{
		createOrgFn: func(ctx context.Context, name, timezone string) (org.Organisation, error) {
			return org.Organisation{ID: "o1", Name: name, Timezone: timezone, Boards: []org.Board{}}, nil
		},
	}

	memberships := &fakeMembershipStore{
		upsertFn: func(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error) {
			grantedTo = userID
			granted = rl
			return membership.Membership{UserID: userID, OrganisationID: orgID, Role: rl}, nil
		},
	}

	h := handlers.NewOrgsHandler(orgs, memberships, &fakeGuard{}, &fakeAuditor{})
	r := setupRouter(http.MethodPost, "/organisations", "u1", h.Create)

	w := doJSON(t, r, http.MethodPost, "/organisations", `{"name": "ACME", "timezone": "Pacific/Auckland"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}

	if grantedTo != "u1" {
		t.Fatalf("expected caller membership, got %q", grantedTo)
	}

	caps, err := role.CapabilitiesOf(granted)
	if err != nil {
		t.Fatalf("CapabilitiesOf error: %v", err)
	}

	if !caps.CanAdminister {
		t.Fatalf("creator must be granted an administering role, got %+v", caps)
	}
}

// a failed bootstrap membership must not leave the organisation behind

func TestCreateOrganisationRollsBackWithoutMembership(t *testing.T) {
	orgs := memory.NewOrgsRepo()
	memberships := memory.NewMembershipsRepo(memory.NewUsersRepo(), orgs)

	// delegate to the real store so the rollback is observable end to end,
	// capturing the generated id on the way through
	var createdID string

	store := &fakeOrgStore{
		createOrgFn: func(ctx context.Context, name, timezone string) (org.Organisation, error) {
			o, err := orgs.CreateOrganisation(ctx, name, timezone)
			createdID = o.ID
			return o, err
		},
		deleteOrgFn: func(ctx context.Context, orgID string) error {
			return orgs.DeleteOrganisation(ctx, orgID)
		},
	}

	h := handlers.NewOrgsHandler(store, memberships, &fakeGuard{}, &fakeAuditor{})
	r := setupRouter(http.MethodPost, "/organisations", "ghost-user", h.Create)

	w := doJSON(t, r, http.MethodPost, "/organisations", `{"name": "ACME", "timezone": "Pacific/Auckland"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}

	if createdID == "" {
		t.Fatal("organisation was never created")
	}

	if _, err := orgs.GetOrganisation(context.Background(), createdID); !errors.Is(err, org.ErrNotFound) {
		t.Fatalf("organisation %s survived its failed bootstrap: %v", createdID, err)
	}
}

// --- upsertMembership

func TestUpsertMembershipHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		guardSetup     func(*fakeGuard)
		repoSetup      func(*fakeMembershipStore)
		wantStatusCode int
	}{
		{
			name:           "grant_user_role",
			body:           `{"userId": "u2", "role": {"id": "r1", "__typename": "UserRole", "admin": false, "write": true}}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown_role_kind",
			body:           `{"userId": "u2", "role": {"id": "r1", "__typename": "SuperRole"}}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "non_admin_denied",
			body:           `{"userId": "u2", "role": {"id": "r1", "__typename": "AdminRole", "admin": true}}`,
			guardSetup:     denyAll,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "unknown_user",
			body: `{"userId": "ghost", "role": {"id": "r1", "__typename": "AdminRole", "admin": true}}`,
			repoSetup: func(f *fakeMembershipStore) {
				f.upsertFn = func(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error) {
					return membership.Membership{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeMembershipStore{}
			guard := &fakeGuard{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			if tt.guardSetup != nil {
				tt.guardSetup(guard)
			}

			h := handlers.NewMembershipsHandler(repo, guard, &fakeAuditor{})
			r := setupRouter(http.MethodPut, "/organisations/:orgId/memberships", "admin-1", h.Upsert)

			w := doJSON(t, r, http.MethodPut, "/organisations/o1/memberships", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- me

func TestMeHandler(t *testing.T) {
	users := &fakeUserStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, Email: "me@example.com", FirstName: "Me", LastName: "Myself"}, nil
		},
	}

	memberships := &fakeMembershipStore{
		membershipsOfFn: func(ctx context.Context, userID string) ([]membership.Membership, error) {
			return []membership.Membership{
				{UserID: userID, OrganisationID: "o1", Role: role.AdminRole{ID: "r1", Admin: true}},
				{UserID: userID, OrganisationID: "o2", Role: role.UserRole{ID: "r2", Write: true}},
			}, nil
		},
	}

	orgs := &fakeOrgStore{
		getOrgFn: func(ctx context.Context, orgID string) (org.Organisation, error) {
			return org.Organisation{ID: orgID, Name: "Org " + orgID, Timezone: "UTC", Boards: []org.Board{}}, nil
		},
	}

	h := handlers.NewMeHandler(users, memberships, orgs)
	r := setupRouter(http.MethodGet, "/me", "u1", h.Me)

	w := doJSON(t, r, http.MethodGet, "/me", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Me struct {
			Email       string `json:"email"`
			Memberships []struct {
				Role struct {
					Typename string `json:"__typename"`
				} `json:"role"`
				Organisation struct {
					ID string `json:"id"`
				} `json:"organisation"`
			} `json:"memberships"`
		} `json:"me"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}

	if out.Me.Email != "me@example.com" {
		t.Fatalf("unexpected email %q", out.Me.Email)
	}

	if len(out.Me.Memberships) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(out.Me.Memberships))
	}

	if out.Me.Memberships[0].Role.Typename != "AdminRole" || out.Me.Memberships[1].Role.Typename != "UserRole" {
		t.Fatalf("membership order or discriminator wrong: %+v", out.Me.Memberships)
	}

	if out.Me.Memberships[1].Organisation.ID != "o2" {
		t.Fatalf("expected organisation o2 second, got %q", out.Me.Memberships[1].Organisation.ID)
	}

	if !bytes.Contains(w.Body.Bytes(), []byte(`"write":true`)) {
		t.Fatalf("UserRole payload must carry write flag: %s", w.Body.String())
	}
}

// --- a role without read rights must not learn whether a resource exists

func TestMutationsHideExistenceFromWriteOnlyRole(t *testing.T) {
	writeOnly := &fakeGuard{
		authorizeFn: func(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error) {
			return role.Capabilities{CanWrite: true}, nil
		},
	}

	repo := &fakeOrgStore{
		putBoardFn: func(ctx context.Context, orgID string, boardID *string, in org.BoardInput) (org.Board, error) {
			return org.Board{}, org.ErrNotFound
		},
		deleteTicketFn: func(ctx context.Context, orgID, ticketID string) (org.Ticket, error) {
			return org.Ticket{}, org.ErrNotFound
		},
	}

	boards := handlers.NewBoardsHandler(repo, writeOnly, &fakeAuditor{})
	r := setupRouter(http.MethodPut, "/organisations/:orgId/boards", "u1", boards.Put)

	w := doJSON(t, r, http.MethodPut, "/organisations/o1/boards", `{"boardId": "b-guess", "input": {"name": "x"}}`)

	if w.Code != http.StatusForbidden {
		t.Fatalf("putBoard leaked absence: got status %d, want 403, body=%s", w.Code, w.Body.String())
	}

	tickets := handlers.NewTicketsHandler(repo, writeOnly, &fakeAuditor{})
	r = setupRouter(http.MethodDelete, "/organisations/:orgId/tickets/:ticketId", "u1", tickets.Delete)

	w = doJSON(t, r, http.MethodDelete, "/organisations/o1/tickets/t-guess", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("deleteTicket leaked absence: got status %d, want 403, body=%s", w.Code, w.Body.String())
	}
}

// --- anonymous callers never reach the stores

func TestGetOrganisationAnonymous(t *testing.T) {
	guard := &fakeGuard{
		authorizeFn: func(ctx context.Context, callerID, orgID string, need role.Capability) (role.Capabilities, error) {
			if callerID != "" {
				t.Fatalf("expected empty caller, got %q", callerID)
			}
			return role.Capabilities{}, authz.ErrForbidden
		},
	}

	h := handlers.NewOrgsHandler(&fakeOrgStore{}, &fakeMembershipStore{}, guard, &fakeAuditor{})
	r := setupRouter(http.MethodGet, "/organisations/:orgId", "", h.Get)

	w := doJSON(t, r, http.MethodGet, "/organisations/o1", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403, body=%s", w.Code, w.Body.String())
	}
}
