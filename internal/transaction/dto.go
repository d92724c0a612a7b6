package transaction

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jwkyoung/safe-tx-gateway/pkg/safetx"
)

// ============================================================================
// Request DTOs
// ============================================================================

// ProposeTransactionRequest carries a new transaction proposal. Numeric
// fields stay decimal strings end to end; they are only coerced inside hash
// computation so a malformed value fails there, not in binding.
type ProposeTransactionRequest struct {
	To             string `json:"to" binding:"required,len=42" example:"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`
	Value          string `json:"value" binding:"required" example:"0"`
	Data           string `json:"data" example:"0x"`
	Operation      uint8  `json:"operation" binding:"lte=1" example:"0"`
	SafeTxGas      string `json:"safeTxGas" binding:"required" example:"0"`
	BaseGas        string `json:"baseGas" binding:"required" example:"0"`
	GasPrice       string `json:"gasPrice" binding:"required" example:"0"`
	GasToken       string `json:"gasToken" example:"0x0000000000000000000000000000000000000000"`
	RefundReceiver string `json:"refundReceiver" example:"0x0000000000000000000000000000000000000000"`
	Nonce          string `json:"nonce" binding:"required" example:"42"`
	SafeTxHash     string `json:"safeTxHash" binding:"required,len=66"`
	Sender         string `json:"sender" binding:"required,len=42"`
	Signature      string `json:"signature" binding:"required"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// ConfirmationResponse is one recorded owner endorsement.
type ConfirmationResponse struct {
	Owner         string `json:"owner"`
	Signature     string `json:"signature"`
	SignatureType string `json:"signature_type"`
}

// TransactionResponse is a verified transaction record.
type TransactionResponse struct {
	Safe           string                 `json:"safe"`
	To             string                 `json:"to"`
	Value          string                 `json:"value"`
	Data           string                 `json:"data"`
	Operation      uint8                  `json:"operation"`
	SafeTxGas      string                 `json:"safe_tx_gas"`
	BaseGas        string                 `json:"base_gas"`
	GasPrice       string                 `json:"gas_price"`
	GasToken       string                 `json:"gas_token"`
	RefundReceiver string                 `json:"refund_receiver"`
	Nonce          string                 `json:"nonce"`
	SafeTxHash     string                 `json:"safe_tx_hash"`
	Confirmations  []ConfirmationResponse `json:"confirmations"`
}

// ProposeResponse acknowledges an accepted proposal.
type ProposeResponse struct {
	SafeTxHash string `json:"safe_tx_hash"`
	Safe       string `json:"safe"`
	Sender     string `json:"sender"`
}

// ModuleSafesResponse lists the Safes that have a module enabled.
type ModuleSafesResponse struct {
	Safes []string `json:"safes"`
}

// ============================================================================
// Converters
// ============================================================================

// ToTransactionResponse converts a verified record to its API shape.
func ToTransactionResponse(tx *safetx.MultisigTransaction) *TransactionResponse {
	confirmations := make([]ConfirmationResponse, 0, len(tx.Confirmations))
	for _, c := range tx.Confirmations {
		confirmations = append(confirmations, ConfirmationResponse{
			Owner:         c.Owner.Hex(),
			Signature:     hexutil.Encode(c.Signature),
			SignatureType: c.SignatureType.String(),
		})
	}

	return &TransactionResponse{
		Safe:           tx.Safe.Hex(),
		To:             tx.To.Hex(),
		Value:          tx.Value,
		Data:           hexutil.Encode(tx.Data),
		Operation:      uint8(tx.Operation),
		SafeTxGas:      tx.SafeTxGas,
		BaseGas:        tx.BaseGas,
		GasPrice:       tx.GasPrice,
		GasToken:       tx.GasToken.Hex(),
		RefundReceiver: tx.RefundReceiver.Hex(),
		Nonce:          tx.Nonce,
		SafeTxHash:     tx.SafeTxHash.Hex(),
		Confirmations:  confirmations,
	}
}
