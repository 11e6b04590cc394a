package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ListUsers godoc
// @Summary List accounts (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.AdminUserResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset, ok := paging(c, 50)
	if !ok {
		return
	}
	accounts, err := h.svc.ListUsers(c.Request.Context(), GetAccount(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	res := make([]model.AdminUserResponse, 0, len(accounts))
	for i := range accounts {
		res = append(res, model.AdminUserResponse{
			UserResponse: model.NewUserResponse(&accounts[i]),
			IsSuperuser:  accounts[i].IsSuperuser,
		})
	}
	c.JSON(http.StatusOK, res)
}

// UpdateUser godoc
// @Summary Set account flags (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body model.AdminUpdateUserRequest true "Flags"
// @Success 200 {object} model.AdminUserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}

	updated, err := h.svc.UpdateUser(c.Request.Context(), GetAccount(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AdminUserResponse{
		UserResponse: model.NewUserResponse(updated),
		IsSuperuser:  updated.IsSuperuser,
	})
}
