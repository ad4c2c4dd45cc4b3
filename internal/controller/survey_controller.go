package controller

import (
	"map_survey_backend/internal/service"
	"map_survey_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SurveyController struct {
	Survey *service.SurveyService
}

func NewSurveyController(survey *service.SurveyService) *SurveyController {
	return &SurveyController{Survey: survey}
}

// ListDatasets godoc
// @Summary List all datasets
// @Tags survey
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /datasets [get]
func (sc *SurveyController) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": sc.Survey.Registry.Infos()})
}

// DatasetCount godoc
// @Summary Number of questions in a dataset
// @Tags survey
// @Produce json
// @Param dataset path string true "dataset id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Router /dataset_count/{dataset} [get]
func (sc *SurveyController) DatasetCount(c *gin.Context) {
	total, err := sc.Survey.QuestionCount(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// NextQuestion godoc
// @Summary Next unanswered question for a participant
// @Description Returns the first question in the dataset without a stored response, or done when the dataset is complete.
// @Tags survey
// @Produce json
// @Param prolificID query string true "participant id"
// @Param dataset query string true "dataset id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /get_questions [get]
func (sc *SurveyController) NextQuestion(c *gin.Context) {
	pid := c.Query("prolificID")
	ds := c.Query("dataset")
	if pid == "" || ds == "" {
		util.BadRequest(c, "prolificID and dataset are required")
		return
	}

	index, question, done, err := sc.Survey.NextQuestion(c.Request.Context(), pid, ds)
	if err != nil {
		respondError(c, err)
		return
	}
	if done {
		c.JSON(http.StatusOK, gin.H{"done": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"done":          false,
		"questionIndex": index,
		"question":      question,
	})
}

// SubmitQuestion godoc
// @Summary Store a participant's answer
// @Tags survey
// @Accept json
// @Produce json
// @Param body body service.SubmitQuestionRequest true "answer payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /submit_question [post]
func (sc *SurveyController) SubmitQuestion(c *gin.Context) {
	var req service.SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID and dataset are required")
		return
	}

	if err := sc.Survey.SubmitAnswer(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Responses godoc
// @Summary A participant's stored answers in a dataset
// @Tags survey
// @Produce json
// @Param prolificID path string true "participant id"
// @Param dataset query string true "dataset id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Router /qresponses/{prolificID} [get]
func (sc *SurveyController) Responses(c *gin.Context) {
	ds := c.Query("dataset")
	if ds == "" {
		util.BadRequest(c, "dataset is required")
		return
	}

	responses, err := sc.Survey.ListResponses(c.Request.Context(), c.Param("prolificID"), ds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// EditResponse godoc
// @Summary Edit a stored answer
// @Description Only the owning participant may edit; evaluation and adjudication fields are preserved.
// @Tags survey
// @Accept json
// @Produce json
// @Param prolificID path string true "participant id"
// @Param body body service.EditResponseRequest true "edit payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /edit_qresponse/{prolificID} [post]
func (sc *SurveyController) EditResponse(c *gin.Context) {
	var req service.EditResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "dataset and uid are required")
		return
	}

	if err := sc.Survey.EditResponse(c.Request.Context(), c.Param("prolificID"), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// QuestionByUID godoc
// @Summary Fetch one question by uid
// @Tags survey
// @Produce json
// @Param dataset query string true "dataset id"
// @Param uid query string true "question uid"
// @Success 200 {object} model.Question
// @Failure 404 {object} util.ErrorResponse
// @Router /get_question_by_uid [get]
func (sc *SurveyController) QuestionByUID(c *gin.Context) {
	ds := c.Query("dataset")
	uid := c.Query("uid")
	if ds == "" || uid == "" {
		util.BadRequest(c, "dataset and uid are required")
		return
	}

	q, err := sc.Survey.QuestionByUID(c.Request.Context(), ds, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// UserDatasets godoc
// @Summary Datasets assigned to a participant
// @Tags survey
// @Produce json
// @Param prolificID path string true "participant id"
// @Success 200 {object} map[string]interface{}
// @Router /user_datasets/{prolificID} [get]
func (sc *SurveyController) UserDatasets(c *gin.Context) {
	datasets, err := sc.Survey.UserDatasets(c.Request.Context(), c.Param("prolificID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// UserDatasetsSummary godoc
// @Summary Assigned datasets with submission state and accuracy
// @Tags survey
// @Produce json
// @Param prolificID path string true "participant id"
// @Success 200 {object} map[string]interface{}
// @Router /user_datasets_summary/{prolificID} [get]
func (sc *SurveyController) UserDatasetsSummary(c *gin.Context) {
	datasets, err := sc.Survey.UserDatasetsSummary(c.Request.Context(), c.Param("prolificID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// DatasetSubmission reports whether a participant finalized a dataset.
func (sc *SurveyController) DatasetSubmission(c *gin.Context) {
	_, submitted, err := sc.Survey.SubmissionMarker(c.Request.Context(), c.Param("prolificID"), c.Param("dataset"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": submitted})
}

// DatasetMarker returns the raw submission marker, numeric accuracy included.
func (sc *SurveyController) DatasetMarker(c *gin.Context) {
	marker, submitted, err := sc.Survey.SubmissionMarker(c.Request.Context(), c.Param("prolificID"), c.Param("dataset"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": submitted, "marker": marker})
}
