package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/memory"
)

type memoryJSON struct {
	ID          core.ID   `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Annual      bool      `json:"annual"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMemoryJSON(e *core.MemoryEntry) memoryJSON {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return memoryJSON{
		ID:          e.Id,
		Type:        e.Type.String(),
		Description: e.Description,
		ScheduledAt: e.ScheduledAt,
		Annual:      e.Annual,
		Priority:    e.Priority.String(),
		Tags:        tags,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// memoryRequest is used for both create and patch; nil fields are left
// unchanged by a patch.
type memoryRequest struct {
	Type        *string   `json:"type"`
	Description *string   `json:"description"`
	ScheduledAt *string   `json:"scheduled_at"`
	Annual      *bool     `json:"annual"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
}

func (s *Server) apply(req memoryRequest, e *core.MemoryEntry) error {
	var err error
	if req.Type != nil {
		if e.Type, err = core.ParseMemoryType(*req.Type); err != nil {
			return err
		}
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.ScheduledAt != nil {
		if e.ScheduledAt, err = memory.ParseSchedule(*req.ScheduledAt, s.location); err != nil {
			return err
		}
	}
	if req.Annual != nil {
		e.Annual = *req.Annual
	}
	if req.Priority != nil {
		if e.Priority, err = core.ParsePriority(*req.Priority); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		e.Tags = *req.Tags
	}
	return nil
}

type occurrenceJSON struct {
	Entry  memoryJSON `json:"entry"`
	NextAt time.Time  `json:"next_at"`
}

func (s *Server) listMemories(c *gin.Context) {
	filter := memory.Filter{Tag: c.Query("tag"), Text: c.Query("q")}
	if raw := c.Query("type"); raw != "" {
		t, err := core.ParseMemoryType(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		filter.Type = t
	}

	entries, err := s.memories.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]memoryJSON, len(entries))
	for i, e := range entries {
		out[i] = toMemoryJSON(e)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createMemory(c *gin.Context) {
	var req memoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}
	if req.Type == nil || req.ScheduledAt == nil {
		s.fail(c, badRequest("type and scheduled_at are required"))
		return
	}

	e := &core.MemoryEntry{}
	if err := s.apply(req, e); err != nil {
		s.fail(c, err)
		return
	}
	start := time.Now()
	created, err := s.memories.Create(c.Request.Context(), e)
	s.metrics.ObserveStore("memory_create", start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMemoryJSON(created))
}

func (s *Server) getMemory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.memories.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemoryJSON(e))
}

func (s *Server) updateMemory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req memoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("%v", err))
		return
	}

	e, err := s.memories.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.apply(req, e); err != nil {
		s.fail(c, err)
		return
	}
	start := time.Now()
	updated, err := s.memories.Update(c.Request.Context(), e)
	s.metrics.ObserveStore("memory_update", start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemoryJSON(updated))
}

func (s *Server) deleteMemory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.memories.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) upcomingMemories(c *gin.Context) {
	window := memory.DefaultAlertWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			s.fail(c, badRequest("invalid window %q", raw))
			return
		}
		window = d
	}

	start := time.Now()
	upcoming, err := s.memories.Upcoming(c.Request.Context(), window)
	s.metrics.ObserveStore("memory_upcoming", start)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]occurrenceJSON, len(upcoming))
	for i, o := range upcoming {
		out[i] = occurrenceJSON{Entry: toMemoryJSON(o.Entry), NextAt: o.At}
	}
	c.JSON(http.StatusOK, out)
}
