package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stratalpha/internal/marketdata"
)

// MacroHandler serves the macro indicator snapshot used by the dashboard's
// conditions panel.
type MacroHandler struct {
	panelPath string
}

// NewMacroHandler creates a new MacroHandler reading from the configured
// macro panel CSV.
func NewMacroHandler(panelPath string) *MacroHandler {
	return &MacroHandler{panelPath: panelPath}
}

// GetMacro handles GET /api/v1/macro. The panel is re-read per request; it
// is a small file that operators may swap out while the server runs.
func (h *MacroHandler) GetMacro(c *gin.Context) {
	rows, err := marketdata.LoadMacroCSV(h.panelPath)
	if err != nil {
		respondWithError(c, err)
		return
	}
	snapshot, err := marketdata.Snapshot(rows)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
