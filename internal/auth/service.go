package auth

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/jwkyoung/safe-tx-gateway/internal/common/errors"
	"github.com/jwkyoung/safe-tx-gateway/pkg/nonce"
	"github.com/jwkyoung/safe-tx-gateway/pkg/siwe"
)

// Service handles SIWE authentication business logic
type Service struct {
	nonces nonce.Store
	tokens *TokenIssuer
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(nonces nonce.Store, tokens *TokenIssuer, logger *zap.Logger) *Service {
	return &Service{
		nonces: nonces,
		tokens: tokens,
		logger: logger,
	}
}

// Nonce generates and registers a fresh single-use nonce
func (s *Service) Nonce(ctx context.Context) (*NonceResponse, error) {
	n := nonce.Generate()
	if err := s.nonces.Issue(ctx, n); err != nil {
		s.logger.Error("failed to issue nonce", zap.Error(err))
		return nil, errors.Internal("Failed to issue nonce")
	}
	return &NonceResponse{Nonce: n}, nil
}

// Verify validates the SIWE message, redeems its nonce, checks the signature
// against the message's own address and mints a session token.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	// 1. Validate all message fields; every violation is reported at once
	msg, fieldErrs := siwe.Validate(req.Message)
	if fieldErrs != nil {
		s.logger.Warn("siwe message rejected",
			zap.Int("error_count", len(fieldErrs)),
		)
		return nil, errors.InvalidInput("SIWE message validation failed").
			WithDetails(map[string]any{"errors": fieldErrs})
	}

	// 2. Redeem the nonce (replay protection); redemption is one-shot
	if err := s.nonces.Consume(ctx, msg.Nonce); err != nil {
		if stderrors.Is(err, nonce.ErrNonceUnknown) {
			return nil, errors.Unauthorized("Nonce unknown or already used")
		}
		s.logger.Error("nonce redemption failed", zap.Error(err))
		return nil, errors.Internal("Failed to verify nonce")
	}

	// 3. Verify the personal_sign signature over the canonical message text
	ok, err := msg.VerifySignature(req.Signature)
	if err != nil {
		s.logger.Warn("siwe signature rejected",
			zap.String("address", msg.Address),
			zap.Error(err),
		)
		return nil, errors.Unauthorized("Invalid signature")
	}
	if !ok {
		return nil, errors.Unauthorized("Signature does not match address")
	}

	// 4. Mint the session token, capped by the message's own expiry
	var messageExpiry *time.Time
	if msg.ExpirationTime != "" {
		if ts, parseErr := time.Parse(time.RFC3339, msg.ExpirationTime); parseErr == nil {
			messageExpiry = &ts
		}
	}

	token, expiresAt, err := s.tokens.Issue(msg.Address, msg.ChainID, messageExpiry)
	if err != nil {
		s.logger.Error("failed to mint session token", zap.Error(err))
		return nil, errors.Internal("Failed to issue session token")
	}

	s.logger.Info("wallet signed in",
		zap.String("address", msg.Address),
		zap.Int64("chain_id", msg.ChainID),
	)

	return &VerifyResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Address:     msg.Address,
		ChainID:     msg.ChainID,
	}, nil
}
