package controller

import (
	"errors"
	"map_survey_backend/internal/service"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmissionController struct {
	Submissions *service.SubmissionService
}

func NewSubmissionController(submissions *service.SubmissionService) *SubmissionController {
	return &SubmissionController{Submissions: submissions}
}

type runGradingRequest struct {
	ProlificID string `json:"prolificID" binding:"required"`
	Dataset    string `json:"dataset" binding:"required"`
}

type submitDatasetRequest struct {
	ProlificID string `json:"prolificID" binding:"required"`
	Dataset    string `json:"dataset" binding:"required"`
	Value      string `json:"value"`
}

// RunGrading godoc
// @Summary Finalize a dataset and run grading
// @Description Runs the grader or pairwise comparison for the dataset, writes the submission marker and returns the message shown to the participant. Repeated calls are rejected.
// @Tags submission
// @Accept json
// @Produce json
// @Param body body runGradingRequest true "submission payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /run-python [post]
func (sc *SubmissionController) RunGrading(c *gin.Context) {
	var req runGradingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID and dataset are required")
		return
	}

	output, err := sc.Submissions.Submit(c.Request.Context(), req.ProlificID, req.Dataset)
	if err != nil {
		if errors.Is(err, util.ErrAlreadySubmitted) || errors.Is(err, util.ErrDatasetNotFound) {
			respondError(c, err)
			return
		}
		// Collaborator and store failures carry their stage in the message;
		// the marker was not written so the client may retry.
		logger.Log.Error("dataset submission failed",
			zap.String("pid", req.ProlificID), zap.String("dataset", req.Dataset), zap.Error(err))
		util.InternalServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "output": output})
}

// SubmitDataset godoc
// @Summary Write a submission marker directly
// @Description Finalizes a dataset without grading, for datasets outside the graded flow.
// @Tags submission
// @Accept json
// @Produce json
// @Param body body submitDatasetRequest true "marker payload"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Router /submit_dataset [post]
func (sc *SubmissionController) SubmitDataset(c *gin.Context) {
	var req submitDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID and dataset are required")
		return
	}

	if err := sc.Submissions.SetMarkerValue(c.Request.Context(), req.ProlificID, req.Dataset, req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
