package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SujalTiwari1/dtrepo/internal/api/middleware"
	"github.com/SujalTiwari1/dtrepo/internal/core"
)

type SlotHandler struct {
	service *core.Service
}

func NewSlotHandler(service *core.Service) *SlotHandler {
	return &SlotHandler{service: service}
}

// GetSlotMap returns every slot in the pool with its occupying job, for
// the staff slot-status dashboard.
func (h *SlotHandler) GetSlotMap(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	slots, err := h.service.SlotMap(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	active := 0
	for _, s := range slots {
		if s.Active {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"slots":  slots,
		"total":  len(slots),
		"active": active,
		"empty":  len(slots) - active,
	})
}

func (h *SlotHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/slots", h.GetSlotMap)
}
