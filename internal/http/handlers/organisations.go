package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/authz"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type OrgsHandler struct {
	orgs        OrgStore
	memberships MembershipStore
	guard       Authorizer
	audit       Auditor
}

func NewOrgsHandler(orgs OrgStore, memberships MembershipStore, guard Authorizer, auditor Auditor) *OrgsHandler {
	return &OrgsHandler{orgs: orgs, memberships: memberships, guard: guard, audit: auditor}
}

type createOrganisationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Timezone string `json:"timezone" binding:"required"`
}

type updateOrganisationRequest struct {
	OrganisationInput org.OrganisationInput `json:"organisationInput" binding:"required"`
}

// Create provisions an organisation and makes the caller its first admin.
func (h *OrgsHandler) Create(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req createOrganisationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.orgs.CreateOrganisation(cctx, req.Name, req.Timezone)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if _, err := h.memberships.Upsert(cctx, callerID, o.ID, role.NewAdmin(true)); err != nil {
		// the organisation must not outlive a failed bootstrap membership,
		// otherwise it would persist with zero members and no administrator
		h.rollbackOrganisation(ctx, o.ID)
		RespondDomainError(ctx, err)
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionOrgCreated, callerID, o.ID, o.ID)

	ctx.JSON(http.StatusCreated, gin.H{"organisation": o})
}

// rollbackOrganisation deletes an organisation left behind by a failed
// bootstrap. It runs on a detached context so a cancelled request cannot
// abort the cleanup as well.
func (h *OrgsHandler) rollbackOrganisation(ctx *gin.Context, orgID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 3*time.Second)
	defer cancel()

	if err := h.orgs.DeleteOrganisation(dctx, orgID); err != nil {
		slog.ErrorContext(dctx, "organisation rollback failed", "org_id", orgID, "err", err)
	}
}

func (h *OrgsHandler) Update(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	caps, err := h.guard.Authorize(cctx, callerID, orgID, role.CapAdminister)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	var req updateOrganisationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	o, err := h.orgs.UpdateOrganisation(cctx, orgID, req.OrganisationInput)
	if err != nil {
		RespondDomainError(ctx, authz.MaskNotFound(err, caps))
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionOrgUpdated, callerID, orgID, orgID)

	ctx.JSON(http.StatusOK, gin.H{"organisation": o})
}

func (h *OrgsHandler) Get(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.guard.Authorize(cctx, callerID, orgID, role.CapRead); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	o, err := h.orgs.GetOrganisation(cctx, orgID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"organisation": nil})
			return
		}
		RespondInternal(ctx, "Could not load organisation")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"organisation": o})
}
