package handler

import (
	"net/http"

	"loadboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ProfileHandler struct {
	profiles service.ProfileService
	log      zerolog.Logger
}

func NewProfileHandler(profiles service.ProfileService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.profiles.GetProfile(c.Request.Context(), authUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	user, err := h.profiles.UpdateProfile(c.Request.Context(), authUserID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *ProfileHandler) RegisterProfileRoutes(rg *gin.RouterGroup, jwtAuthMW gin.HandlerFunc) {
	profile := rg.Group("/profile", jwtAuthMW)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}
