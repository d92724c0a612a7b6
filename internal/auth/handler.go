package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jwkyoung/safe-tx-gateway/internal/common/errors"
	"github.com/jwkyoung/safe-tx-gateway/internal/common/middleware"
)

// Handler handles HTTP requests for SIWE authentication
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers auth routes on the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.GET("/nonce", h.Nonce)
		auth.POST("/verify", h.Verify)
	}
}

// Nonce godoc
// @Summary Issue a sign-in nonce
// @Description Returns a fresh single-use nonce to embed in a SIWE message
// @Tags auth
// @Produce json
// @Success 200 {object} NonceResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /auth/nonce [get]
func (h *Handler) Nonce(c *gin.Context) {
	resp, err := h.service.Nonce(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	middleware.RespondOK(c, resp)
}

// Verify godoc
// @Summary Verify a SIWE sign-in
// @Description Validates the SIWE message, checks the signature and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "SIWE message and signature"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.InvalidInput("Invalid request body").WithError(err))
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	middleware.RespondOK(c, resp)
}
