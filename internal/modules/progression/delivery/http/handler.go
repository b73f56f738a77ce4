package handler

import (
	"net/http"

	"anoa.com/fitquest/internal/modules/progression/dto"
	progression "anoa.com/fitquest/internal/modules/progression/service"
	"anoa.com/fitquest/internal/realtime"
	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/response"
	"anoa.com/fitquest/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ProgressionHandler struct {
	service     progression.ProgressionService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewProgressionHandler(service progression.ProgressionService, redisClient *redis.Client) *ProgressionHandler {
	return &ProgressionHandler{
		service:     service,
		redisClient: redisClient,
		upgrader:    realtime.NewUpgrader(),
	}
}

func (h *ProgressionHandler) InitStats(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.InitStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.InitStats(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *ProgressionHandler) GetMyProgression(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.GetProgression(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProgressionHandler) AwardXP(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.AwardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.AwardXP(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProgressionHandler) ValidateStreak(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ValidateStreak(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProgressionHandler) CheckAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.CheckAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProgressionHandler) CompleteWorkout(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CompleteWorkoutRequest
	// an empty body is a plain workout
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}
	}

	resp, err := h.service.CompleteWorkout(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if resp.Queued {
		c.JSON(http.StatusAccepted, gin.H{"data": resp})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// HandleWebSocket streams the caller's progression snapshots.
func (h *ProgressionHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Logger.Warn("websocket_upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	channel := realtime.UserProgressionChannel(userID.String())
	if err := realtime.Forward(c.Request.Context(), conn, h.redisClient, channel); err != nil {
		logger.Logger.Warn("websocket_stream_ended",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}
