package handlers

import (
	"net/http"

	"team-tasks/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	registerService services.RegisterService
}

func NewRegisterHandler(registerService services.RegisterService) *RegisterHandler {
	return &RegisterHandler{registerService: registerService}
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.registerService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response := gin.H{"user": result.User}
	if result.Team != nil {
		response["team"] = result.Team
	}
	c.JSON(http.StatusCreated, response)
}
