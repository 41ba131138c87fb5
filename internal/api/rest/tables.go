package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/types"
)

// GET /api/v1/tables
func (s *Server) getTables(c *gin.Context) {
	c.JSON(http.StatusOK, defuse.Snapshot())
}

// GET /api/v1/tables/:table
func (s *Server) getTable(c *gin.Context) {
	t := defuse.Snapshot()

	switch c.Param("table") {
	case "beeps":
		c.JSON(http.StatusOK, t.Beeps)
	case "masks":
		c.JSON(http.StatusOK, t.Masks)
	case "ops":
		c.JSON(http.StatusOK, t.Ops)
	case "keypad":
		c.JSON(http.StatusOK, t.Keypad)
	default:
		respondError(c, types.AreaTable, http.StatusNotFound, "Unknown table", c.Param("table"))
	}
}
