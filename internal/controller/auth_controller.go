package controller

import (
	"map_survey_backend/internal/service"
	"map_survey_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Survey *service.SurveyService
}

func NewAuthController(survey *service.SurveyService) *AuthController {
	return &AuthController{Survey: survey}
}

type loginRequest struct {
	ProlificID string `json:"prolificID" binding:"required"`
	DatasetID  string `json:"datasetID"`
}

// Login godoc
// @Summary Participant login
// @Description Registers the participant id and optionally grants access to the dataset carried by the survey link.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "login payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} util.ErrorResponse
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID is required")
		return
	}

	isNew, err := ac.Survey.Login(c.Request.Context(), req.ProlificID, req.DatasetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isNew": isNew})
}
