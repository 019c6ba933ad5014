package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medml-risk-server/internal/domain"
)

// handleHealth reports storage and model state. Missing models degrade the
// service but do not fail the check; a failing store does.
func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.deps.Version,
		Storage:   "ok",
	}
	status := http.StatusOK

	if s.deps.Store != nil {
		if err := s.deps.Store.Health(c.Request.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Storage = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if s.deps.Models != nil {
		resp.Models = s.deps.Models.Status()
		for _, m := range resp.Models {
			if !m.Available && resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	c.JSON(status, resp)
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	patient := req.patient()
	if err := s.deps.Records.RegisterPatient(c.Request.Context(), patient); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPatientResponse(patient))
}

func (s *Server) handleListPatients(c *gin.Context) {
	var q ListPatientsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	filter, err := q.filter()
	if err != nil {
		s.respondError(c, err)
		return
	}

	overviews, err := s.deps.Records.ListPatients(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	items := make([]PatientOverviewResponse, 0, len(overviews))
	for _, o := range overviews {
		items = append(items, newPatientOverviewResponse(o))
	}
	c.JSON(http.StatusOK, ListResponse[PatientOverviewResponse]{Items: items, Limit: q.Limit, Offset: q.Offset})
}

func (s *Server) handleGetPatient(c *gin.Context) {
	patient, err := s.deps.Records.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPatientResponse(patient))
}

func (s *Server) handleUpdatePatient(c *gin.Context) {
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	patient, err := s.deps.Records.UpdatePatient(c.Request.Context(), c.Param("id"), req.patient())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPatientResponse(patient))
}

func (s *Server) handleSubmitAssessment(c *gin.Context) {
	disease, err := domain.ParseDisease(c.Param("disease"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		s.badRequest(c, err)
		return
	}
	assessment, err := domain.DecodeAssessment(disease, body)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.deps.Records.SubmitAssessment(c.Request.Context(), c.Param("id"), assessment); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AssessmentResponse{Disease: disease, Assessment: assessment})
}

func (s *Server) handleAssessmentHistory(c *gin.Context) {
	patientID := c.Param("id")
	history, err := s.deps.Records.AssessmentHistory(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssessmentHistoryResponse{
		PatientID:    patientID,
		Diabetes:     orEmpty(history[domain.Diabetes]),
		Liver:        orEmpty(history[domain.Liver]),
		Heart:        orEmpty(history[domain.Heart]),
		MentalHealth: orEmpty(history[domain.MentalHealth]),
	})
}

func (s *Server) handlePredict(c *gin.Context) {
	prediction, err := s.deps.Predictions.PredictForPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prediction.View())
}

func (s *Server) handleLatestPrediction(c *gin.Context) {
	prediction, err := s.deps.Predictions.LatestPrediction(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction.View())
}

func (s *Server) handleListPredictions(c *gin.Context) {
	var page PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		s.badRequest(c, err)
		return
	}

	predictions, err := s.deps.Predictions.ListPredictions(c.Request.Context(), c.Param("id"), page.Limit, page.Offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	items := make([]domain.PredictionView, 0, len(predictions))
	for _, p := range predictions {
		items = append(items, p.View())
	}
	c.JSON(http.StatusOK, ListResponse[domain.PredictionView]{Items: items, Limit: page.Limit, Offset: page.Offset})
}

func (s *Server) handleDashboardStats(c *gin.Context) {
	stats, err := s.deps.Dashboard.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func orEmpty(list []domain.Assessment) []domain.Assessment {
	if list == nil {
		return []domain.Assessment{}
	}
	return list
}
