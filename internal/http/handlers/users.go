package handlers

import (
	"net/http"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	users UserStore
	audit Auditor
}

func NewUsersHandler(users UserStore, auditor Auditor) *UsersHandler {
	return &UsersHandler{users: users, audit: auditor}
}

type createUserRequest struct {
	User user.CreateUserRequest `json:"user" binding:"required"`
}

// Create registers a user record without credentials. Login only becomes
// possible once the auth surface issues a password for the account.
func (h *UsersHandler) Create(ctx *gin.Context) {
	var req createUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := reqCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.User, "")

	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	h.audit.Record(ctx.Request.Context(), audit.ActionUserCreated, callerID, "", u.ID)

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}
