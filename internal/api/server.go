package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/middleware"
	"github.com/medml-risk-server/internal/scoring"
)

// RecordService manages patients and assessments
type RecordService interface {
	RegisterPatient(ctx context.Context, patient *domain.Patient) error
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
	UpdatePatient(ctx context.Context, id string, changes *domain.Patient) (*domain.Patient, error)
	ListPatients(ctx context.Context, filter domain.PatientFilter) ([]*domain.PatientOverview, error)
	SubmitAssessment(ctx context.Context, patientID string, a domain.Assessment) error
	AssessmentHistory(ctx context.Context, patientID string) (map[domain.Disease][]domain.Assessment, error)
}

// PredictionService runs and reads risk predictions
type PredictionService interface {
	PredictForPatient(ctx context.Context, patientID string) (*domain.RiskPrediction, error)
	LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error)
	ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*domain.RiskPrediction, error)
}

// DashboardService computes the admin dashboard counters
type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// HealthChecker reports storage health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ModelStatusReporter lists the per-disease model state
type ModelStatusReporter interface {
	Status() []scoring.ModelStatus
}

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Records     RecordService
	Predictions PredictionService
	Dashboard   DashboardService
	Store       HealthChecker
	Models      ModelStatusReporter
	Version     string
}

// Server represents the HTTP server
type Server struct {
	cfg    domain.ServerConfig
	deps   Dependencies
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg domain.ServerConfig, deps Dependencies, logger *logrus.Logger) *Server {
	if deps.Version == "" {
		deps.Version = "1.0.0"
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestTimeout(cfg.WriteTimeout))

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		router: router,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		patients := v1.Group("/patients")
		patients.POST("", s.handleCreatePatient)
		patients.GET("", s.handleListPatients)
		patients.GET("/:id", s.handleGetPatient)
		patients.PUT("/:id", s.handleUpdatePatient)
		patients.POST("/:id/assessments/:disease", s.handleSubmitAssessment)
		patients.GET("/:id/assessments", s.handleAssessmentHistory)
		patients.POST("/:id/predict", s.handlePredict)
		patients.GET("/:id/predictions/latest", s.handleLatestPrediction)
		patients.GET("/:id/predictions", s.handleListPredictions)

		v1.GET("/dashboard/stats", s.handleDashboardStats)
	}
}
