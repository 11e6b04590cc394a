package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/metrics"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

type AuthHandler struct {
	svc     *service.AuthService
	metrics *metrics.Metrics
}

func NewAuthHandler(svc *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{svc: svc, metrics: m}
}

// GoogleLogin godoc
// @Summary Login with a Google ID token
// @Description Verifies the ID token, creates the account on first login and issues an access/refresh pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.GoogleTokenRequest true "Google ID token"
// @Success 200 {object} model.TokenResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req model.GoogleTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "id_token is required")
		return
	}

	session, err := h.svc.LoginWithGoogle(c.Request.Context(), req.IDToken)
	h.metrics.ObserveAuth("login", authOutcome(err))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(session))
}

// GoogleCodeLogin godoc
// @Summary Login with a Google authorization code
// @Description Redeems the code for an ID token, then behaves like /auth/google.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.GoogleCodeRequest true "Authorization code and redirect URI"
// @Success 200 {object} model.TokenResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/google/code [post]
func (h *AuthHandler) GoogleCodeLogin(c *gin.Context) {
	var req model.GoogleCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "code and redirect_uri are required")
		return
	}

	session, err := h.svc.LoginWithCode(c.Request.Context(), req.Code, req.RedirectURI)
	h.metrics.ObserveAuth("login_code", authOutcome(err))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(session))
}

// Refresh godoc
// @Summary Refresh access token
// @Description Issues a new access token. The refresh token is returned unchanged.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} model.TokenResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "refresh_token is required")
		return
	}

	session, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	h.metrics.ObserveAuth("refresh", authOutcome(err))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(session))
}

// Logout godoc
// @Summary Logout
// @Description Revokes the bearer access token and the given refresh token when a denylist is configured.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LogoutRequest false "Refresh token"
// @Success 200 {object} model.LogoutResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req model.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(c, "invalid request")
		return
	}
	accessToken, _ := bearerToken(c)

	revoked, err := h.svc.Logout(c.Request.Context(), req.RefreshToken, accessToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.LogoutResponse{Status: "logged_out", Revoked: revoked})
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	account := GetAccount(c)
	if account == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, model.NewUserResponse(account))
}

func tokenResponse(s *service.Session) model.TokenResponse {
	return model.TokenResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    service.TokenTypeBearer,
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
		User:         model.NewUserResponse(s.Account),
	}
}
