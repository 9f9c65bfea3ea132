package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/authz"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TicketsHandler struct {
	orgs  OrgStore
	guard Authorizer
	audit Auditor
}

func NewTicketsHandler(orgs OrgStore, guard Authorizer, auditor Auditor) *TicketsHandler {
	return &TicketsHandler{orgs: orgs, guard: guard, audit: auditor}
}

type putTicketRequest struct {
	TicketID *string         `json:"ticketId"`
	Input    org.TicketInput `json:"input" binding:"required"`
}

func (h *TicketsHandler) Put(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")
	boardID := ctx.Param("boardId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	caps, err := h.guard.Authorize(cctx, callerID, orgID, role.CapWrite)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	var req putTicketRequest

	if !BindJSON(ctx, &req) {
		return
	}

	t, err := h.orgs.PutTicket(cctx, orgID, boardID, req.TicketID, req.Input)
	if err != nil {
		RespondDomainError(ctx, authz.MaskNotFound(err, caps))
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionTicketPut, callerID, orgID, t.ID)

	ctx.JSON(http.StatusOK, gin.H{"ticket": t})
}

func (h *TicketsHandler) Get(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")
	ticketID := ctx.Param("ticketId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.guard.Authorize(cctx, callerID, orgID, role.CapRead); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	t, err := h.orgs.GetTicket(cctx, orgID, ticketID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"ticket": nil})
			return
		}
		RespondInternal(ctx, "Could not load ticket")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ticket": t})
}

// Delete is terminal: the removed record is returned once and the id answers
// NotFound afterwards.
func (h *TicketsHandler) Delete(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")
	ticketID := ctx.Param("ticketId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	caps, err := h.guard.Authorize(cctx, callerID, orgID, role.CapWrite)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	t, err := h.orgs.DeleteTicket(cctx, orgID, ticketID)
	if err != nil {
		RespondDomainError(ctx, authz.MaskNotFound(err, caps))
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionTicketDeleted, callerID, orgID, ticketID)

	ctx.JSON(http.StatusOK, gin.H{"ticket": t})
}
