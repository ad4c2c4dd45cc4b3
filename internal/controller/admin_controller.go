package controller

import (
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/service"
	"map_survey_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Admin *service.AdminService
}

func NewAdminController(admin *service.AdminService) *AdminController {
	return &AdminController{Admin: admin}
}

// Users godoc
// @Summary All registered participant ids
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (ac *AdminController) Users(c *gin.Context) {
	users, err := ac.Admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (ac *AdminController) Datasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": ac.Admin.ListDatasets()})
}

// CreateDataset godoc
// @Summary Register a dataset
// @Tags admin
// @Accept json
// @Produce json
// @Param body body service.CreateDatasetRequest true "dataset payload"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} util.ErrorResponse
// @Router /admin/dataset [post]
func (ac *AdminController) CreateDataset(c *gin.Context) {
	var req service.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "id is required")
		return
	}

	if err := ac.Admin.CreateDataset(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (ac *AdminController) DeleteDataset(c *gin.Context) {
	if err := ac.Admin.DeleteDataset(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (ac *AdminController) SetDatasetMeta(c *gin.Context) {
	var meta model.DatasetMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		util.BadRequest(c, "invalid metadata payload")
		return
	}

	if err := ac.Admin.SetDatasetMeta(c.Request.Context(), c.Param("id"), meta); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (ac *AdminController) UserDatasets(c *gin.Context) {
	datasets, err := ac.Admin.UserDatasets(c.Request.Context(), c.Param("prolificID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// Assign godoc
// @Summary Grant or revoke dataset access
// @Tags admin
// @Accept json
// @Produce json
// @Param body body service.AssignRequest true "assignment payload"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Router /admin/assign [post]
func (ac *AdminController) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "prolificID and dataset are required")
		return
	}

	if err := ac.Admin.Assign(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EvalRecords godoc
// @Summary Archived grading results
// @Description Graded responses mirrored into the relational archive, newest first.
// @Tags admin
// @Produce json
// @Param prolificID query string false "filter by participant"
// @Param dataset query string false "filter by dataset"
// @Param limit query int false "maximum rows"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} util.ErrorResponse
// @Router /admin/eval_records [get]
func (ac *AdminController) EvalRecords(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			util.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := ac.Admin.EvalRecords(c.Query("prolificID"), c.Query("dataset"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// CampaignStatus godoc
// @Summary Campaign progress report
// @Description Per-user calibration accuracy and per-dataset annotation progress for a topic.
// @Tags admin
// @Produce json
// @Param topic path string true "campaign topic"
// @Success 200 {object} model.CampaignStatus
// @Failure 404 {object} util.ErrorResponse
// @Router /admin/campaign_status/{topic} [get]
func (ac *AdminController) CampaignStatus(c *gin.Context) {
	status, err := ac.Admin.CampaignStatus(c.Request.Context(), c.Param("topic"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
