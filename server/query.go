package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/search"
)

type queryRequest struct {
	QueryText string `json:"query_text"`
}

type queryResponse struct {
	Status     string  `json:"status"`
	AnswerText string  `json:"answer_text"`
	QuestionID core.ID `json:"question_id"`
	AnswerID   core.ID `json:"answer_id"`
	Score      float64 `json:"score"`
	Lexical    float64 `json:"lexical"`
	Semantic   float64 `json:"semantic"`
	Exact      bool    `json:"exact"`
	Degraded   bool    `json:"degraded"`
}

type feedbackRequest struct {
	QuestionID core.ID `json:"question_id" binding:"required"`
	AnswerID   core.ID `json:"answer_id"`
	Source     string  `json:"source"`
	Approved   bool    `json:"approved"`
}

type feedbackJSON struct {
	ID         core.ID   `json:"id"`
	QuestionID core.ID   `json:"question_id"`
	AnswerID   core.ID   `json:"answer_id"`
	Source     string    `json:"source"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}

	resp, err := s.query.Ask(c.Request.Context(), search.Request{QueryText: req.QueryText})
	s.metrics.ObserveQuery(resp, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !resp.Matched() {
		c.JSON(http.StatusOK, gin.H{"status": resp.Status, "degraded": resp.Degraded})
		return
	}
	c.JSON(http.StatusOK, queryResponse{
		Status:     resp.Status,
		AnswerText: resp.AnswerText,
		QuestionID: resp.QuestionId,
		AnswerID:   resp.AnswerId,
		Score:      resp.Score,
		Lexical:    resp.Lexical,
		Semantic:   resp.Semantic,
		Exact:      resp.Exact,
		Degraded:   resp.Degraded,
	})
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}

	start := time.Now()
	fb, err := s.query.RecordFeedback(c.Request.Context(), req.QuestionID, req.AnswerID, req.Source, req.Approved)
	s.metrics.ObserveStore("feedback_add", start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, feedbackJSON{
		ID:         fb.Id,
		QuestionID: fb.QuestionId,
		AnswerID:   fb.AnswerId,
		Source:     fb.Source,
		Approved:   fb.Approved,
		CreatedAt:  fb.CreatedAt,
	})
}
