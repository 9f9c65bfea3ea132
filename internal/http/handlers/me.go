package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	users       UserStore
	memberships MembershipStore
	orgs        OrgStore
}

func NewMeHandler(users UserStore, memberships MembershipStore, orgs OrgStore) *MeHandler {
	return &MeHandler{users: users, memberships: memberships, orgs: orgs}
}

type meMembership struct {
	Role         role.Role        `json:"role"`
	Organisation org.Organisation `json:"organisation"`
}

type meResponse struct {
	user.User
	Memberships []meMembership `json:"memberships"`
}

// Me returns the caller's own record plus every membership in the order the
// ledger recorded them.
func (h *MeHandler) Me(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, callerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"me": nil})
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ms, err := h.memberships.MembershipsOf(cctx, callerID)
	if err != nil {
		RespondInternal(ctx, "Could not load memberships")
		return
	}

	out := meResponse{User: u, Memberships: make([]meMembership, 0, len(ms))}

	for _, m := range ms {
		o, err := h.orgs.GetOrganisation(cctx, m.OrganisationID)
		if err != nil {
			if errors.Is(err, org.ErrNotFound) {
				continue
			}
			RespondInternal(ctx, "Could not load memberships")
			return
		}

		out.Memberships = append(out.Memberships, meMembership{Role: m.Role, Organisation: o})
	}

	ctx.JSON(http.StatusOK, gin.H{"me": out})
}
