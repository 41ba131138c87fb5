package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tomblanch118/DAB/internal/auth"
	"github.com/tomblanch118/DAB/internal/types"
)

// POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaAuth, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if !s.authService.Enabled() {
		respondError(c, types.AreaAuth, http.StatusNotFound, "Login is disabled", "no game master password configured")
		return
	}

	token, expires, err := s.authService.Login(req.Password, c.ClientIP())
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(c, types.AreaAuth, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		respondError(c, types.AreaAuth, http.StatusInternalServerError, "Login failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expires,
	})
}
