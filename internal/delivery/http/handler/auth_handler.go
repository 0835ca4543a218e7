package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kernex-dashboard/internal/fleet/model"
	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/middleware"
	"kernex-dashboard/pkg/utils"
)

// Session reports the control-plane token currently held by the process.
type Session interface {
	Token() (string, bool)
	ExpiresAt() time.Time
}

type AuthHandler struct {
	service *service.Service
	session Session
}

func NewAuthHandler(service *service.Service, session Session) *AuthHandler {
	return &AuthHandler{service: service, session: session}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = utils.SanitizeIdentifier(req.Username)
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	account, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User registered successfully", account)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = utils.SanitizeIdentifier(req.Username)
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", token)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.service.Logout()
	utils.SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func (h *AuthHandler) Session(c *gin.Context) {
	resp := sessionResponse{}
	if _, ok := h.session.Token(); ok {
		resp.Authenticated = true
		if exp := h.session.ExpiresAt(); !exp.IsZero() {
			resp.ExpiresAt = &exp
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Session retrieved successfully", resp)
}
