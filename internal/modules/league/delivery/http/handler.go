package handler

import (
	"net/http"

	"anoa.com/fitquest/internal/modules/league/dto"
	league "anoa.com/fitquest/internal/modules/league/service"
	"anoa.com/fitquest/pkg/response"
	"anoa.com/fitquest/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LeagueHandler struct {
	service league.LeagueService
}

func NewLeagueHandler(service league.LeagueService) *LeagueHandler {
	return &LeagueHandler{service: service}
}

func (h *LeagueHandler) Join(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.JoinLeagueRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}
	}

	state, err := h.service.Join(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (h *LeagueHandler) GetMyLeague(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	state, err := h.service.GetState(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (h *LeagueHandler) RecomputeStandings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	resp, err := h.service.RecomputeStandings(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
