package controller

import (
	"fmt"
	"map_survey_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	Export *service.ExportService
}

func NewExportController(export *service.ExportService) *ExportController {
	return &ExportController{Export: export}
}

// Responses godoc
// @Summary Download a participant's responses as JSON lines
// @Tags export
// @Produce plain
// @Param prolificID path string true "participant id"
// @Param dataset path string true "dataset id"
// @Success 200 {string} string "NDJSON body"
// @Failure 404 {object} util.ErrorResponse
// @Router /export_responses/{prolificID}/{dataset} [get]
func (ec *ExportController) Responses(c *gin.Context) {
	pid := c.Param("prolificID")
	ds := c.Param("dataset")

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.jsonl", pid, ds))

	if err := ec.Export.StreamResponses(c.Request.Context(), pid, ds, c.Writer); err != nil {
		// Reset the download headers; nothing was written yet on the
		// not-found path.
		c.Header("Content-Disposition", "")
		respondError(c, err)
	}
}
