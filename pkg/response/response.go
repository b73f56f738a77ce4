package response

import (
	"errors"
	"net/http"

	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/pkg/apperror"
	"anoa.com/fitquest/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated athlete id.
const UserIDKey = "user_id"

// SetUserID stores the authenticated athlete id on the request context.
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(UserIDKey, id)
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	switch id := v.(type) {
	case uuid.UUID:
		if id != uuid.Nil {
			return id, nil
		}
	case string:
		if userID, err := uuid.Parse(id); err == nil {
			return userID, nil
		}
	}
	return uuid.Nil, apperror.ErrUnauthorized
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	var validationErr *progression.ValidationError
	if errors.As(err, &validationErr) ||
		errors.Is(err, progression.ErrInvalidTier) ||
		errors.Is(err, progression.ErrInvalidXPSource) ||
		errors.Is(err, progression.ErrInvalidTimestamp) {
		code = http.StatusBadRequest
	}

	// Log internal errors
	if code == http.StatusInternalServerError {
		logger.Logger.Error("internal_error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
