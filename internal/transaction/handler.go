package transaction

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwkyoung/safe-tx-gateway/internal/common/errors"
	"github.com/jwkyoung/safe-tx-gateway/internal/common/middleware"
)

// Handler handles HTTP requests for transaction verification
type Handler struct {
	service *Service
}

// NewHandler creates a new transaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers transaction routes on the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	chains := rg.Group("/chains/:chainId")
	{
		chains.POST("/safes/:address/propose", h.Propose)
		chains.GET("/transactions/:safeTxHash", h.GetTransaction)
		chains.GET("/modules/:address/safes", h.GetModuleSafes)
	}
}

// extractChainID parses the chainId path parameter
func extractChainID(c *gin.Context) (int64, error) {
	chainID, err := strconv.ParseInt(c.Param("chainId"), 10, 64)
	if err != nil || chainID <= 0 {
		return 0, errors.InvalidInput("Invalid chain ID")
	}
	return chainID, nil
}

// Propose godoc
// @Summary Propose a Safe transaction
// @Description Verifies the proposal's hash and signature, then forwards it to the transaction service
// @Tags transactions
// @Accept json
// @Produce json
// @Param chainId path int true "Chain ID"
// @Param address path string true "Safe address"
// @Param request body ProposeTransactionRequest true "Transaction proposal"
// @Success 201 {object} ProposeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /chains/{chainId}/safes/{address}/propose [post]
func (h *Handler) Propose(c *gin.Context) {
	chainID, err := extractChainID(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	var req ProposeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.InvalidInput("Invalid request body").WithError(err))
		return
	}

	resp, err := h.service.Propose(c.Request.Context(), chainID, c.Param("address"), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	middleware.RespondCreated(c, resp)
}

// GetTransaction godoc
// @Summary Get a verified transaction
// @Description Fetches a recorded transaction and verifies its hash and confirmations before returning it
// @Tags transactions
// @Produce json
// @Param chainId path int true "Chain ID"
// @Param safeTxHash path string true "Safe transaction hash"
// @Success 200 {object} TransactionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /chains/{chainId}/transactions/{safeTxHash} [get]
func (h *Handler) GetTransaction(c *gin.Context) {
	chainID, err := extractChainID(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	resp, err := h.service.GetTransaction(c.Request.Context(), chainID, c.Param("safeTxHash"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	middleware.RespondOK(c, resp)
}

// GetModuleSafes godoc
// @Summary List Safes by module
// @Description Lists the Safes that have the given module enabled
// @Tags transactions
// @Produce json
// @Param chainId path int true "Chain ID"
// @Param address path string true "Module address"
// @Success 200 {object} ModuleSafesResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /chains/{chainId}/modules/{address}/safes [get]
func (h *Handler) GetModuleSafes(c *gin.Context) {
	chainID, err := extractChainID(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	resp, err := h.service.GetModuleSafes(c.Request.Context(), chainID, c.Param("address"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	middleware.RespondOK(c, resp)
}
