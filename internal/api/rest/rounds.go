package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/rounds"
	"github.com/tomblanch118/DAB/internal/types"
)

type roundResponse struct {
	rounds.Round
	ExpectedCode string         `json:"expected_code"`
	DefuseKey    string         `json:"defuse_key"`
	Sequence     []defuse.Color `json:"sequence"`
}

func newRoundResponse(r rounds.Round) roundResponse {
	seq := r.Sequence()
	return roundResponse{
		Round:        r,
		ExpectedCode: fmt.Sprintf("0x%02X", r.Expected()),
		DefuseKey:    string(r.DefuseKey()),
		Sequence:     seq[:],
	}
}

// GET /api/v1/rounds
func (s *Server) listRounds(c *gin.Context) {
	names, err := s.lm.Rounds().List()
	if err != nil {
		respondError(c, types.AreaRound, http.StatusInternalServerError, "Failed to list rounds", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds": names,
		"count":  len(names),
	})
}

// GET /api/v1/rounds/:name
func (s *Server) getRound(c *gin.Context) {
	round, err := s.lm.Rounds().Load(c.Param("name"))
	if errors.Is(err, rounds.ErrNotFound) {
		respondError(c, types.AreaRound, http.StatusNotFound, "Round not found", c.Param("name"))
		return
	}
	if err != nil {
		respondError(c, types.AreaRound, http.StatusBadRequest, "Round could not be loaded", err.Error())
		return
	}

	c.JSON(http.StatusOK, newRoundResponse(round))
}

// GET /api/v1/results?limit=n
func (s *Server) listResults(c *gin.Context) {
	store := s.lm.Results()
	if store == nil {
		respondError(c, types.AreaResults, http.StatusServiceUnavailable, "Result storage is not configured", nil)
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, types.AreaResults, http.StatusBadRequest, "Invalid limit", v)
			return
		}
		limit = n
	}

	results, err := store.ListResults(c.Request.Context(), limit)
	if err != nil {
		respondError(c, types.AreaResults, http.StatusInternalServerError, "Failed to list results", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
