package app

import (
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/controller"
	"map_survey_backend/internal/middleware"
	"map_survey_backend/pkg/monitoring"
	"map_survey_backend/pkg/security"
	"map_survey_backend/pkg/tracing"
	"time"

	_ "map_survey_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Controllers struct {
	Auth         *controller.AuthController
	Survey       *controller.SurveyController
	Submission   *controller.SubmissionController
	Admin        *controller.AdminController
	Adjudication *controller.AdjudicationController
	Export       *controller.ExportController
	Health       *controller.HealthController
}

// NewRouter wires every route. Paths are flat, without an /api prefix; the
// survey clients predate this server and their URLs are part of the contract.
func NewRouter(cfg *config.Config, c *Controllers, gate *middleware.AdjudicatorGate) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(security.CORS(cfg.CORS.AllowedOrigins))
	r.Use(security.Secure())
	r.Use(monitoring.MetricsMiddleware())
	if cfg.Tracing.Enabled {
		r.Use(tracing.GinMiddleware())
	}

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	r.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	r.GET("/health", c.Health.Health)
	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Maps.Dir != "" {
		r.Static("/maps", cfg.Maps.Dir)
	}

	// Participant flow
	r.POST("/login", c.Auth.Login)
	r.GET("/datasets", c.Survey.ListDatasets)
	r.GET("/dataset_count/:dataset", c.Survey.DatasetCount)
	r.GET("/get_questions", c.Survey.NextQuestion)
	r.POST("/submit_question", c.Survey.SubmitQuestion)
	r.GET("/qresponses/:prolificID", c.Survey.Responses)
	r.POST("/edit_qresponse/:prolificID", c.Survey.EditResponse)
	r.GET("/get_question_by_uid", c.Survey.QuestionByUID)
	r.GET("/user_datasets/:prolificID", c.Survey.UserDatasets)
	r.GET("/user_datasets_summary/:prolificID", c.Survey.UserDatasetsSummary)
	r.GET("/dataset_submission/:prolificID/:dataset", c.Survey.DatasetSubmission)
	r.GET("/dataset_meta/:prolificID/:dataset", c.Survey.DatasetMarker)

	// Finalization
	r.POST("/run-python", c.Submission.RunGrading)
	r.POST("/submit_dataset", c.Submission.SubmitDataset)
	r.GET("/export_responses/:prolificID/:dataset", c.Export.Responses)

	// Adjudication; flagging stays open to participants, review requires the
	// passcode or a reviewer token.
	r.POST("/request_adjudication", c.Adjudication.Request)
	r.POST("/cancel_adjudication", c.Adjudication.Cancel)
	r.POST("/adjudication_login", c.Adjudication.Login)
	reviewer := r.Group("/", gate.Handler())
	{
		reviewer.GET("/adjudications", c.Adjudication.Pending)
		reviewer.GET("/past_adjudications", c.Adjudication.Past)
		reviewer.POST("/adjudicate_result", c.Adjudication.Resolve)
	}

	admin := r.Group("/admin", gate.Handler())
	{
		admin.GET("/users", c.Admin.Users)
		admin.GET("/datasets", c.Admin.Datasets)
		admin.POST("/dataset", c.Admin.CreateDataset)
		admin.DELETE("/dataset/:id", c.Admin.DeleteDataset)
		admin.POST("/dataset_meta/:id", c.Admin.SetDatasetMeta)
		admin.GET("/user_datasets/:prolificID", c.Admin.UserDatasets)
		admin.POST("/assign", c.Admin.Assign)
		admin.GET("/campaign_status/:topic", c.Admin.CampaignStatus)
		admin.GET("/eval_records", c.Admin.EvalRecords)
	}

	return r
}
