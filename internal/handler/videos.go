package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

type VideoHandler struct {
	svc *service.VideoService
}

func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// ListVideos godoc
// @Summary List videos
// @Tags videos
// @Produce json
// @Param limit query int false "Page size (default 20)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Video
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/videos [get]
func (h *VideoHandler) ListVideos(c *gin.Context) {
	limit, offset, ok := paging(c, 20)
	if !ok {
		return
	}
	videos, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetVideo godoc
// @Summary Get video
// @Tags videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} model.Video
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/videos/{id} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// CreateVideo godoc
// @Summary Create video
// @Description The caller becomes the creator.
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateVideoRequest true "Video"
// @Success 201 {object} model.Video
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/videos [post]
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req model.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}

	created, err := h.svc.Create(c.Request.Context(), GetAccount(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateVideo godoc
// @Summary Update video
// @Description Creator only.
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Param request body model.UpdateVideoRequest true "Fields to change"
// @Success 200 {object} model.Video
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/videos/{id} [put]
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	var req model.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), GetAccount(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteVideo godoc
// @Summary Delete video
// @Description Creator only.
// @Tags videos
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 204
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/videos/{id} [delete]
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetAccount(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
