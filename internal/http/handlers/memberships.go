package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type MembershipsHandler struct {
	memberships MembershipStore
	guard       Authorizer
	audit       Auditor
}

func NewMembershipsHandler(memberships MembershipStore, guard Authorizer, auditor Auditor) *MembershipsHandler {
	return &MembershipsHandler{memberships: memberships, guard: guard, audit: auditor}
}

type upsertMembershipRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Role   json.RawMessage `json:"role" binding:"required"`
}

// Upsert grants or replaces a member's role. Only administrators of the
// organisation may call it; the role payload is the discriminated wire form.
func (h *MembershipsHandler) Upsert(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.guard.Authorize(cctx, callerID, orgID, role.CapAdminister); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	var req upsertMembershipRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rl, err := role.Decode(req.Role)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	m, err := h.memberships.Upsert(cctx, req.UserID, orgID, rl)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionMembershipUpserted, callerID, orgID, req.UserID)

	ctx.JSON(http.StatusOK, gin.H{"membership": m})
}
