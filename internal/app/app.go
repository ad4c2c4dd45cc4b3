package app

import (
	"context"
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/controller"
	"map_survey_backend/internal/middleware"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/service"
	"map_survey_backend/pkg/database"
	"map_survey_backend/pkg/logger"
	"map_survey_backend/pkg/monitoring"
	"map_survey_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Router *gin.Engine

	collaborators *service.ScriptCollaborators
	submissions   *service.SubmissionService
	export        *service.ExportService
	gate          *middleware.AdjudicatorGate
	tp            *sdktrace.TracerProvider
}

func NewApp(cfg *config.Config) (*App, error) {
	gin.SetMode(cfg.Server.Mode)
	monitoring.Init()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	var archive service.ArchiveStore
	var evalReporter service.EvalReporter
	if cfg.Archive.Enabled {
		db, err := database.InitArchiveDB(&cfg.Archive)
		if err != nil {
			return nil, err
		}
		archiveRepo := repository.NewArchiveRepository(db)
		archive = archiveRepo
		evalReporter = archiveRepo
	}

	users := repository.NewUserRepository(rdb)
	datasets := repository.NewDatasetRepository(rdb)
	assignments := repository.NewAssignmentRepository(rdb)
	responses := repository.NewResponseRepository(rdb)
	campaigns := repository.NewCampaignRepository(rdb)
	adjudications := repository.NewAdjudicationRepository(rdb)

	registry := service.NewDatasetRegistry()
	if err := registry.Load(context.Background(), datasets); err != nil {
		return nil, err
	}
	cache := service.NewQuestionCache(datasets)
	collaborators := service.NewScriptCollaborators(cfg.Grading)

	surveySvc := service.NewSurveyService(users, datasets, assignments, responses, registry, cache)
	campaignSvc := service.NewCampaignService(datasets, assignments, responses, campaigns, registry, cache, collaborators)
	submissionSvc := service.NewSubmissionService(
		responses, assignments, registry, campaignSvc,
		collaborators, collaborators, archive,
		cfg.Grading.ScriptsDir, cfg.Grading.Threshold)
	adjudicationSvc := service.NewAdjudicationService(datasets, assignments, responses, campaigns, adjudications, registry, cache)
	adminSvc := service.NewAdminService(users, datasets, assignments, campaigns, registry, cache, campaignSvc, evalReporter)

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	exportSvc := service.NewExportService(responses, adjudications, registry, storage)

	gate := middleware.NewAdjudicatorGate(cfg)

	controllers := &Controllers{
		Auth:         controller.NewAuthController(surveySvc),
		Survey:       controller.NewSurveyController(surveySvc),
		Submission:   controller.NewSubmissionController(submissionSvc),
		Admin:        controller.NewAdminController(adminSvc),
		Adjudication: controller.NewAdjudicationController(adjudicationSvc, gate, cfg.JWT),
		Export:       controller.NewExportController(exportSvc),
		Health:       controller.NewHealthController(rdb),
	}

	app := &App{
		Config:        cfg,
		collaborators: collaborators,
		submissions:   submissionSvc,
		export:        exportSvc,
		gate:          gate,
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("map-survey-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracer", zap.Error(err))
		} else {
			app.tp = tp
		}
	}

	app.Router = NewRouter(cfg, controllers, gate)
	return app, nil
}

// OnConfigReload applies the hot-reloadable settings: grading threshold,
// collaborator scripts and the adjudication credentials.
func (a *App) OnConfigReload(newCfg *config.Config) {
	a.collaborators.UpdateConfig(newCfg.Grading)
	a.submissions.SetThreshold(newCfg.Grading.Threshold)
	a.gate.UpdateConfig(newCfg)
	logger.Log.Info("Configuration reloaded",
		zap.Float64("threshold", newCfg.Grading.Threshold))
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.Config.Export.DailyEnabled {
		go a.export.RunDaily(ctx, a.Config.Export)
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.tp != nil {
		if err := a.tp.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Tracer shutdown failed", zap.Error(err))
		}
	}

	logger.Log.Info("Server exited")
	return nil
}
