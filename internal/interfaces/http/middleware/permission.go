package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/logger"
	"github.com/checkmaster/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorKey holds the authenticated *identity.User on the gin context
const ActorKey = "actor"

// ActorLoader resolves the account behind a validated token
type ActorLoader interface {
	CurrentUser(ctx context.Context, userID uuid.UUID) (*identity.User, error)
}

// LoadActor loads the current account after JWT authentication. Permission decisions are
// taken by identity.Evaluate in the services; this only makes the actor available. A token
// of a deleted account is rejected here.
func LoadActor(loader ActorLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(GetJWTUserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeTokenInvalid, "Invalid token", GetRequestID(c)))
			return
		}

		actor, err := loader.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					dto.NewErrorResponse(shared.CodeUnauthorized, "Account no longer exists", GetRequestID(c)))
				return
			}
			logger.GetGinLogger(c).Error("Failed to load authenticated user", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the account loaded by LoadActor, or nil
func GetActor(c *gin.Context) *identity.User {
	if v, ok := c.Get(ActorKey); ok {
		if u, ok := v.(*identity.User); ok {
			return u
		}
	}
	return nil
}
