package handlers

import (
	"net/http"

	"team-tasks/backend/internal/middleware"
	"team-tasks/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type UserHandler struct {
	teamService services.TeamService
	membership  services.MembershipService
}

func NewUserHandler(teamService services.TeamService, membership services.MembershipService) *UserHandler {
	return &UserHandler{teamService: teamService, membership: membership}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, actor)
}

// GetReachableUsers lists the user ids the actor may assign tasks to.
func (h *UserHandler) GetReachableUsers(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ids, err := h.membership.UsersReachableBy(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_ids": ids})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id format"})
		return
	}

	if err := h.teamService.DeleteUser(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
