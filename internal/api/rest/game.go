package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tomblanch118/DAB/internal/game"
	"github.com/tomblanch118/DAB/internal/rounds"
	"github.com/tomblanch118/DAB/internal/types"
	"go.uber.org/zap"
)

// GET /api/v1/game/status
func (s *Server) getGameStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.Game().Status())
}

// POST /api/v1/game/command
func (s *Server) executeGameCommand(c *gin.Context) {
	var req game.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaGame, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := s.lm.Game().ExecuteCommand(c.Request.Context(), req); err != nil {
		s.logger.Warn("Game command failed",
			zap.String("command", string(req.Command)),
			zap.Error(err))

		status := commandErrorStatus(err)
		respondError(c, types.AreaGame, status, "Command execution failed", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Command accepted",
		"command": req.Command,
		"status":  s.lm.Game().Status(),
	})
}

func commandErrorStatus(err error) int {
	switch {
	case errors.Is(err, rounds.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyArmed), errors.Is(err, game.ErrNotArmed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
