package auth

import (
	"time"

	"github.com/jwkyoung/safe-tx-gateway/pkg/siwe"
)

// ============================================================================
// Request DTOs
// ============================================================================

// VerifyRequest carries the structured SIWE message and its signature.
// Field-level validation happens in the SIWE validator, not in binding tags,
// so every violation is reported instead of the first one.
type VerifyRequest struct {
	Message   siwe.Candidate `json:"message" binding:"required"`
	Signature string         `json:"signature" binding:"required" example:"0x1234...abcd"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// NonceResponse returns a fresh single-use nonce for the client to embed in
// its SIWE message.
type NonceResponse struct {
	Nonce string `json:"nonce" example:"f26dba4d511344e3a53a1d8d63a02fb8"`
}

// VerifyResponse returns the session token minted after a successful
// sign-in.
type VerifyResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time `json:"expires_at"`
	Address     string    `json:"address" example:"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`
	ChainID     int64     `json:"chain_id" example:"1"`
}
