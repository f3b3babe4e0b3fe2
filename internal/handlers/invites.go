package handlers

import (
	"net/http"

	"team-tasks/backend/internal/middleware"
	"team-tasks/backend/internal/monitoring"
	"team-tasks/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type InviteHandler struct {
	inviteService services.InviteService
	metrics       *monitoring.Collector
}

func NewInviteHandler(inviteService services.InviteService, metrics *monitoring.Collector) *InviteHandler {
	return &InviteHandler{inviteService: inviteService, metrics: metrics}
}

// Issue creates an invite token. Admin only (enforced by the service
// against current state, not just the route group).
func (h *InviteHandler) Issue(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		TeamID  *string `json:"team_id"`
		Purpose string  `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var teamID *uuid.UUID
	if req.TeamID != nil {
		parsed, err := uuid.FromString(*req.TeamID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team_id format"})
			return
		}
		teamID = &parsed
	}

	token, err := h.inviteService.IssueInvite(c.Request.Context(), actor.ID, teamID, req.Purpose)
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.RecordInviteIssued()
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Redeem registers a new account using an invite token. Public route.
func (h *InviteHandler) Redeem(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Name     string `json:"name" binding:"required,min=1,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.inviteService.RedeemInvite(c.Request.Context(), req.Token, services.RegistrationRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.RecordInviteRedeemed()
	c.JSON(http.StatusCreated, gin.H{
		"user": result.User,
		"team": result.Team,
	})
}

func (h *InviteHandler) Revoke(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token := c.Param("token")
	if !h.inviteService.RevokeInvite(token, actor.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invite revoked"})
}

func (h *InviteHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	invites := h.inviteService.ListInvites(actor.ID)
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}
