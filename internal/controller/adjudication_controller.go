package controller

import (
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/middleware"
	"map_survey_backend/internal/service"
	"map_survey_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdjudicationController struct {
	Adjudication *service.AdjudicationService
	Gate         *middleware.AdjudicatorGate
	JWT          config.JWTConfig
}

func NewAdjudicationController(adjudication *service.AdjudicationService, gate *middleware.AdjudicatorGate, jwtCfg config.JWTConfig) *AdjudicationController {
	return &AdjudicationController{Adjudication: adjudication, Gate: gate, JWT: jwtCfg}
}

type adjudicationRequest struct {
	ProlificID string `json:"prolificID" binding:"required"`
	Dataset    string `json:"dataset" binding:"required"`
	UID        string `json:"uid" binding:"required"`
}

type adjudicationLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// Login godoc
// @Summary Reviewer login
// @Description Exchanges the adjudication passcode for a bearer token.
// @Tags adjudication
// @Accept json
// @Produce json
// @Param body body adjudicationLoginRequest true "passcode"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Router /adjudication_login [post]
func (ac *AdjudicationController) Login(c *gin.Context) {
	var req adjudicationLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "code is required")
		return
	}
	if !ac.Gate.PasscodeValid(req.Code) {
		respondError(c, util.ErrBadPasscode)
		return
	}

	token, err := util.GenerateAdjudicatorJWT(ac.JWT.Secret, ac.JWT.ExpireTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Request godoc
// @Summary Flag a question for review
// @Tags adjudication
// @Accept json
// @Produce json
// @Param body body adjudicationRequest true "flag payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Router /request_adjudication [post]
func (ac *AdjudicationController) Request(c *gin.Context) {
	var req adjudicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID, dataset and uid are required")
		return
	}

	if err := ac.Adjudication.Request(c.Request.Context(), req.ProlificID, req.Dataset, req.UID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Cancel withdraws a pending flag.
func (ac *AdjudicationController) Cancel(c *gin.Context) {
	var req adjudicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID, dataset and uid are required")
		return
	}

	if err := ac.Adjudication.Cancel(c.Request.Context(), req.ProlificID, req.Dataset, req.UID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Pending godoc
// @Summary Open adjudication cases
// @Tags adjudication
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Router /adjudications [get]
func (ac *AdjudicationController) Pending(c *gin.Context) {
	cases, err := ac.Adjudication.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjudications": cases})
}

// Past lists resolved cases with their outcomes.
func (ac *AdjudicationController) Past(c *gin.Context) {
	cases, err := ac.Adjudication.Past(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjudications": cases})
}

// Resolve godoc
// @Summary Record a reviewer verdict
// @Description Applies the verdict to both annotators' responses and optionally spawns a rephrased question.
// @Tags adjudication
// @Accept json
// @Produce json
// @Param body body service.ResolveRequest true "verdict payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} util.ErrorResponse
// @Router /adjudicate_result [post]
func (ac *AdjudicationController) Resolve(c *gin.Context) {
	var req service.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID, dataset and uid are required")
		return
	}

	if err := ac.Adjudication.Resolve(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
