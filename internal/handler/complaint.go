package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"complaint-service/internal/models"
	"complaint-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ComplaintService is the orchestrator as seen by the HTTP layer.
type ComplaintService interface {
	Create(ctx context.Context, text, clientIP string) (*models.Complaint, error)
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Complaint, error)
}

type ComplaintHandler interface {
	CreateComplaint(c *gin.Context)
	GetComplaint(c *gin.Context)
	ListComplaints(c *gin.Context)
	UpdateComplaintStatus(c *gin.Context)
}

type complaintHandler struct {
	service ComplaintService
	logger  *zap.Logger
}

func NewComplaintHandler(service ComplaintService, logger *zap.Logger) ComplaintHandler {
	return &complaintHandler{
		service: service,
		logger:  logger,
	}
}

// CreateComplaint handles POST /api/v1/complaints
func (h *complaintHandler) CreateComplaint(c *gin.Context) {
	var req models.CreateComplaintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind JSON for complaint creation", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Complaint text must not be blank"})
		return
	}

	complaint, err := h.service.Create(c.Request.Context(), req.Text, c.ClientIP())
	if err != nil {
		var draftErr *service.DraftPersistedError
		if errors.As(err, &draftErr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Complaint saved but could not be categorized",
				"id":    draftErr.Draft.ID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create complaint"})
		return
	}

	c.JSON(http.StatusCreated, complaint)
}

// GetComplaint handles GET /api/v1/complaints/:id
func (h *complaintHandler) GetComplaint(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	complaint, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get complaint", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve complaint"})
		return
	}
	if complaint == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
		return
	}

	c.JSON(http.StatusOK, complaint)
}

// ListComplaints handles GET /api/v1/complaints
// Query parameters:
// - status: open or closed (optional)
// - since: RFC 3339 timestamp, inclusive (optional)
func (h *complaintHandler) ListComplaints(c *gin.Context) {
	var filter models.ComplaintFilter

	if raw := c.Query("status"); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Valid values: open, closed"})
			return
		}
		filter.Status = &status
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since. Expected RFC 3339 timestamp"})
			return
		}
		filter.Since = &since
	}

	complaints, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list complaints", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve complaints"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaints": complaints, "total": len(complaints)})
}

// UpdateComplaintStatus handles PATCH /api/v1/complaints/:id/status
func (h *complaintHandler) UpdateComplaintStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind JSON for status update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	complaint, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to update complaint status", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update complaint status"})
		return
	}
	if complaint == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
		return
	}

	c.JSON(http.StatusOK, complaint)
}

func (h *complaintHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("Invalid complaint ID", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid complaint ID"})
		return 0, false
	}
	return id, true
}
