package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/annotate"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/report"
	"github.com/verte-zerg/neuroscreen/internal/risk"
)

type resultsRequest struct {
	readings.Bundle
	Indicators *[]string `json:"indicators"`
}

type subscoreRequest struct {
	Modality  string  `json:"modality" binding:"required,oneof=trial quiz speech facial"`
	Score     float64 `json:"score" binding:"gte=0,lte=100"`
	Available bool    `json:"available"`
}

type aggregateRequest struct {
	Subscores []subscoreRequest `json:"subscores" binding:"dive"`
}

type annotateRequest struct {
	Transcript string    `json:"transcript"`
	Indicators *[]string `json:"indicators"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleResults(c *gin.Context) {
	var req resultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	r := report.Build(req.Bundle, s.indicators(req.Indicators), s.clock.Now())
	if s.sink != nil {
		if err := s.sink.InsertReport(c.Request.Context(), r.Record()); err != nil {
			// The report is still returned; history is auxiliary.
			s.log.Warn("failed to record report", zap.String("report_id", r.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleAggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	subs := make([]model.RiskSubscore, 0, len(req.Subscores))
	for _, sub := range req.Subscores {
		subs = append(subs, model.RiskSubscore{
			Modality:  model.Modality(sub.Modality),
			Score:     sub.Score,
			Available: sub.Available,
		})
	}
	c.JSON(http.StatusOK, risk.Aggregate(subs))
}

func (s *Server) handleAnnotate(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, annotate.Annotate(req.Transcript, s.indicators(req.Indicators)))
}

// indicators returns the request's list when given, even if empty, and the
// server default otherwise.
func (s *Server) indicators(requested *[]string) []string {
	if requested != nil {
		return *requested
	}
	if s.vocabulary != nil {
		return s.vocabulary
	}
	return annotate.DefaultVocabulary
}
