package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/memory"
	"github.com/poiesic/qamatch/storage"
)

var errBadRequest = errors.New("bad request")

var badRequestErrors = []error{
	errBadRequest,
	core.ErrEmptyInput,
	core.ErrInvalidQuestion,
	core.ErrInvalidAnswer,
	core.ErrInvalidReviewItem,
	core.ErrInvalidMemoryEntry,
	core.ErrInvalidMemoryType,
	core.ErrInvalidPriority,
	core.ErrMissingSchedule,
	memory.ErrInvalidSchedule,
	memory.ErrInvalidWindow,
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// fail maps err onto a status code and writes it as {"error": ...}.
func (s *Server) fail(c *gin.Context, err error) {
	var promotion *core.PromotionError
	if errors.As(err, &promotion) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "item_id": promotion.ItemID})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	default:
		for _, target := range badRequestErrors {
			if errors.Is(err, target) {
				status = http.StatusBadRequest
				break
			}
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "err", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (core.ID, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id %q", c.Param("id"))
	}
	return core.ID(id), nil
}
