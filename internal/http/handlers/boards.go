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

type BoardsHandler struct {
	orgs  OrgStore
	guard Authorizer
	audit Auditor
}

func NewBoardsHandler(orgs OrgStore, guard Authorizer, auditor Auditor) *BoardsHandler {
	return &BoardsHandler{orgs: orgs, guard: guard, audit: auditor}
}

type putBoardRequest struct {
	BoardID *string        `json:"boardId"`
	Input   org.BoardInput `json:"input" binding:"required"`
}

// Put creates a board when boardId is absent and partially updates it when
// present. Re-sending the same payload is idempotent apart from updatedAt.
func (h *BoardsHandler) Put(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	caps, err := h.guard.Authorize(cctx, callerID, orgID, role.CapWrite)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	var req putBoardRequest

	if !BindJSON(ctx, &req) {
		return
	}

	b, err := h.orgs.PutBoard(cctx, orgID, req.BoardID, req.Input)
	if err != nil {
		RespondDomainError(ctx, authz.MaskNotFound(err, caps))
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionBoardPut, callerID, orgID, b.ID)

	ctx.JSON(http.StatusOK, gin.H{"board": b})
}

func (h *BoardsHandler) Get(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	orgID := ctx.Param("orgId")
	boardID := ctx.Param("boardId")

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.guard.Authorize(cctx, callerID, orgID, role.CapRead); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	b, err := h.orgs.GetBoard(cctx, orgID, boardID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"board": nil})
			return
		}
		RespondInternal(ctx, "Could not load board")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"board": b})
}

func (h *BoardsHandler) Delete(ctx *gin.Context) {
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

	if err := h.orgs.DeleteBoard(cctx, orgID, boardID); err != nil {
		RespondDomainError(ctx, authz.MaskNotFound(err, caps))
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.ActionBoardDeleted, callerID, orgID, boardID)

	ctx.Status(http.StatusNoContent)
}
