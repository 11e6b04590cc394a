package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetOwnProfile godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/users/profile [get]
func (h *UserHandler) GetOwnProfile(c *gin.Context) {
	account := GetAccount(c)
	if account == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, model.NewUserResponse(account))
}

// UpdateOwnProfile godoc
// @Summary Update own profile
// @Description Omitted fields are left unchanged. profile replaces the whole attribute map.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/profile [put]
func (h *UserHandler) UpdateOwnProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), GetAccount(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewUserResponse(updated))
}

// GetUser godoc
// @Summary Get public profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.UserProfile
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	account, err := h.svc.GetPublicProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewUserProfile(account))
}
