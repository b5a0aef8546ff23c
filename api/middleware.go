package api

import (
	"errors"
	"net/http"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sessionCookie = "sid"
	tokenHeader   = "token"
	userKey       = "user"
)

// correlationID reuses the caller's x-correlation-id or makes one up.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// errorLogger logs the errors handlers attached to the context.
func errorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		ctx := c.Request.Context()
		fields := logrus.Fields{
			"module": "api",
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}
		if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
			fields["correlation_id"] = cid
		}
		if userID, ok := utils.GetUserIdFromContext(ctx); ok {
			fields["user_id"] = userID
		}
		if username, ok := utils.GetUsernameFromContext(ctx); ok {
			fields["username"] = username
		}
		if role, ok := utils.GetRoleFromContext(ctx); ok {
			fields["role"] = role
		}
		for _, e := range c.Errors {
			logger.WithFields(fields).WithField("funcName", e.Meta).Error(e.Error())
		}
	}
}

func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}
	return c.GetHeader(tokenHeader)
}

// loadSession resolves the session token to a user. Unknown or expired tokens
// leave the request anonymous; requireAuth decides whether that is allowed.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		userID, err := s.sessions.Get(ctx, token)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				config.LogError(config.GetLogger(), "middleware.go", "loadSession", "Get session", nil, err)
			}
			c.Next()
			return
		}
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				config.LogError(config.GetLogger(), "middleware.go", "loadSession", "GetUser", userID, err)
			}
			c.Next()
			return
		}

		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetUserIdInContext(ctx, string(user.ID))
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetRoleInContext(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Set(userKey, user)
		c.Next()
	}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// crossOriginResource lets other origins embed uploaded images.
func crossOriginResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		c.Next()
	}
}
