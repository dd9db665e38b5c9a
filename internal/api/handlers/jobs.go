package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SujalTiwari1/dtrepo/internal/api/middleware"
	"github.com/SujalTiwari1/dtrepo/internal/core"
)

type JobHandler struct {
	service *core.Service
	sweeper *core.Sweeper
}

func NewJobHandler(service *core.Service, sweeper *core.Sweeper) *JobHandler {
	return &JobHandler{
		service: service,
		sweeper: sweeper,
	}
}

type SubmitResponse struct {
	ID     string `json:"id"`
	SlotID string `json:"slot_id"`
}

// SubmitJob accepts a multipart form: one or more "files" parts plus the
// print preferences as form fields.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	copies := 1
	if v := c.PostForm("copies"); v != "" {
		copies, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "copies must be a number"})
			return
		}
	}

	prefs := core.Preferences{
		Copies:       copies,
		ColorMode:    core.ColorMode(c.DefaultPostForm("color_mode", string(core.ColorBW))),
		Sided:        core.Sided(c.DefaultPostForm("sided", string(core.SidedSingle))),
		Stapled:      c.PostForm("stapled") == "true",
		Instructions: c.PostForm("instructions"),
	}

	files := make([]core.FileUpload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
			return
		}
		defer f.Close()
		files = append(files, core.FileUpload{Name: header.Filename, Content: f})
	}

	job, err := h.service.Submit(c.Request.Context(), actor, files, prefs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{ID: job.ID, SlotID: job.SlotID})
}

// ListJobs is the staff queue view. A retention sweep runs first so the
// queue never shows jobs past their window.
func (h *JobHandler) ListJobs(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if _, err := h.sweeper.Sweep(c.Request.Context(), time.Now()); err != nil {
		log.Printf("pre-fetch sweep failed: %v", err)
	}

	var (
		jobs []*core.Job
		err  error
	)
	if statusParam := c.Query("status"); statusParam != "" {
		status, ok := core.ParseStatus(statusParam)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		jobs, err = h.service.ListByStatus(c.Request.Context(), actor, status)
	} else {
		jobs, err = h.service.ListActive(c.Request.Context(), actor)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) ListMyJobs(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	jobs, err := h.service.ListOwn(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	job, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) MarkReady(c *gin.Context) {
	h.advance(c, core.StatusReady)
}

func (h *JobHandler) MarkCollected(c *gin.Context) {
	h.advance(c, core.StatusCollected)
}

func (h *JobHandler) advance(c *gin.Context, target core.Status) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	job, err := h.service.Advance(c.Request.Context(), actor, c.Param("id"), target)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

func (h *JobHandler) SweepRetention(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if !core.CanPerform(actor, core.OpSweep, nil) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	removed, err := h.sweeper.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// writeError maps service errors onto HTTP statuses. Shared by every
// handler in this package.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrPoolSaturated):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrAllocationFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case core.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case core.IsStorage(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "file storage failure"})
	default:
		log.Printf("job handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// RegisterRoutes wires the routes every authenticated user may call.
func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/jobs", h.SubmitJob)
	r.GET("/jobs/mine", h.ListMyJobs)
	r.GET("/jobs/:id", h.GetJob)
	r.POST("/jobs/:id/collect", h.MarkCollected)
}

// RegisterStaffRoutes wires the staff/admin queue operations.
func (h *JobHandler) RegisterStaffRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs/:id/ready", h.MarkReady)
	r.DELETE("/jobs/:id", h.DeleteJob)
	r.POST("/jobs/sweep", h.SweepRetention)
}
