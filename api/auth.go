package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const invalidLogin = "Invalid username or password"

func (s *Server) login(c *gin.Context) {
	var input loginInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(input.Username))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": invalidLogin})
		return
	}
	if err != nil {
		respondError(c, "login", err)
		return
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": invalidLogin})
		return
	}

	if !s.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) register(c *gin.Context) {
	var input models.NewUser
	if !bindJSON(c, &input) {
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module":   "api",
		"username": user.Username,
	}).Info("user registered")

	if !s.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, user)
}

// startSession issues a token for user, sets the cookie and header, and strips
// the password hash from user.
func (s *Server) startSession(c *gin.Context, user *models.User) bool {
	token, err := s.sessions.Create(c.Request.Context(), user.ID, s.opts.SessionTTL)
	if err != nil {
		respondError(c, "startSession", err)
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.opts.SessionTTL.Seconds()), "/", "", s.opts.CookieSecure, true)
	c.Header(tokenHeader, token)
	user.PrepareGive()
	return true
}

func (s *Server) logout(c *gin.Context) {
	token, ok := utils.GetTokenFromContext(c.Request.Context())
	if !ok {
		token = sessionToken(c)
	}
	if token != "" {
		if err := s.sessions.Destroy(c.Request.Context(), token); err != nil && !errors.Is(err, models.ErrNotFound) {
			respondError(c, "logout", err)
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.CookieSecure, true)
	c.Status(http.StatusOK)
}

func (s *Server) me(c *gin.Context) {
	user := currentUser(c).Clone()
	user.PrepareGive()
	c.JSON(http.StatusOK, user)
}
