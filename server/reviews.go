package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

type reviewJSON struct {
	ID         core.ID           `json:"id"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Source     string            `json:"source"`
	Approved   bool              `json:"approved"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	InsertedAt time.Time         `json:"inserted_at"`
}

func toReviewJSON(item *core.PendingReview) reviewJSON {
	return reviewJSON{
		ID:         item.Id,
		Question:   item.Question,
		Answer:     item.Answer,
		Source:     item.Source,
		Approved:   item.Approved,
		Metadata:   item.Metadata,
		InsertedAt: item.InsertedAt,
	}
}

type reviewRequest struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

type flagRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

type approveRequest struct {
	AnswerID core.ID `json:"answer_id"`
}

type pairJSON struct {
	QuestionID core.ID `json:"question_id"`
	AnswerID   core.ID `json:"answer_id"`
}

func toPairJSON(pair storage.Pair) pairJSON {
	return pairJSON{QuestionID: pair.Question.Id, AnswerID: pair.Answer.Id}
}

func (s *Server) listReviews(c *gin.Context) {
	filter := storage.ReviewFilter{Source: c.Query("source")}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(c, badRequest("invalid approved %q", raw))
			return
		}
		filter.Approved = &approved
	}

	items, err := s.reviews.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]reviewJSON, len(items))
	for i, item := range items {
		out[i] = toReviewJSON(item)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) submitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}

	added, err := s.reviews.Submit(c.Request.Context(), &core.PendingReview{
		Question: req.Question,
		Answer:   req.Answer,
		Source:   req.Source,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReviewJSON(added[0]))
}

func (s *Server) getReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.reviews.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewJSON(item))
}

func (s *Server) flagReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}
	if err := s.reviews.SetApproved(c.Request.Context(), id, *req.Approved); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// approveReview promotes an item. The body is optional; answer_id links
// the new question to an existing answer.
func (s *Server) approveReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(c, badRequest("%v", err))
		return
	}

	start := time.Now()
	pair, err := s.reviews.Approve(c.Request.Context(), id, req.AnswerID)
	s.metrics.ObserveStore("review_promote", start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPairJSON(pair))
}

// promoteApproved promotes every flagged item. Items that fail stay
// queued and are reported with 409 next to the ones that succeeded.
func (s *Server) promoteApproved(c *gin.Context) {
	start := time.Now()
	promoted, err := s.reviews.PromoteApproved(c.Request.Context())
	s.metrics.ObserveStore("review_promote_approved", start)

	pairs := make([]pairJSON, len(promoted))
	for i, pair := range promoted {
		pairs[i] = toPairJSON(pair)
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"promoted": pairs, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promoted": pairs})
}

func (s *Server) rejectReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.reviews.Reject(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
