package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

type FeedbackHandler struct {
	svc *service.FeedbackService
}

func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// CreateFeedback godoc
// @Summary Submit feedback
// @Description Anonymous submissions are allowed; a bearer token links the item to the caller.
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body model.CreateFeedbackRequest true "Feedback"
// @Success 201 {object} model.Feedback
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req model.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "feedback_type, title and description are required")
		return
	}

	created, err := h.svc.Create(c.Request.Context(), GetAccount(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListFeedback godoc
// @Summary List feedback
// @Description Anonymous callers see public items, members their own and public items, admins everything.
// @Tags feedback
// @Produce json
// @Param feedback_type query string false "bug, feature or general"
// @Param status query string false "Status"
// @Param platform query string false "Platform"
// @Param is_public query bool false "Public only / private only"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Feedback
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/feedback [get]
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	limit, offset, ok := paging(c, 50)
	if !ok {
		return
	}
	filter := model.FeedbackFilter{
		FeedbackType: c.Query("feedback_type"),
		Status:       c.Query("status"),
		Platform:     c.Query("platform"),
		Limit:        limit,
		Offset:       offset,
	}
	if raw := c.Query("is_public"); raw != "" {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(c, "invalid is_public")
			return
		}
		filter.IsPublic = &isPublic
	}

	list, err := h.svc.List(c.Request.Context(), GetAccount(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetFeedback godoc
// @Summary Get feedback
// @Tags feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} model.Feedback
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/feedback/{id} [get]
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	f, err := h.svc.Get(c.Request.Context(), GetAccount(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// UpdateFeedback godoc
// @Summary Update feedback (admin)
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param request body model.UpdateFeedbackRequest true "Fields to change"
// @Success 200 {object} model.Feedback
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/feedback/{id} [patch]
func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), GetAccount(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteFeedback godoc
// @Summary Delete feedback
// @Description Owner or admin only.
// @Tags feedback
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 204
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/feedback/{id} [delete]
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), GetAccount(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
