package transaction

import (
	"context"
	stderrors "errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/jwkyoung/safe-tx-gateway/internal/common/errors"
	"github.com/jwkyoung/safe-tx-gateway/pkg/safetx"
	"github.com/jwkyoung/safe-tx-gateway/pkg/txservice"
	"github.com/jwkyoung/safe-tx-gateway/pkg/verifier"
)

// Service handles transaction verification business logic
type Service struct {
	client   *txservice.Client
	verifier *verifier.Verifier
	logger   *zap.Logger
}

// NewService creates a new transaction service
func NewService(client *txservice.Client, verifier *verifier.Verifier, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		verifier: verifier,
		logger:   logger,
	}
}

// Propose verifies a freshly submitted transaction and forwards it to the
// transaction service if it passes. Verification is a pure gate: nothing is
// persisted or forwarded on failure.
func (s *Service) Propose(ctx context.Context, chainID int64, safeAddress string, req *ProposeTransactionRequest) (*ProposeResponse, error) {
	safeAddr, err := parseAddress("safe address", safeAddress)
	if err != nil {
		return nil, err
	}

	proposal, err := buildProposal(req)
	if err != nil {
		return nil, err
	}

	safe, err := s.client.GetSafe(ctx, chainID, safeAddr)
	if err != nil {
		return nil, s.mapUpstreamError(err, "Safe")
	}

	if err := s.verifier.VerifyProposal(ctx, chainID, safe, proposal); err != nil {
		s.logger.Warn("proposal rejected",
			zap.Int64("chain_id", chainID),
			zap.String("safe", safeAddr.Hex()),
			zap.String("sender", proposal.Sender.Hex()),
			zap.Error(err),
		)
		return nil, mapVerifierError(err)
	}

	if err := s.client.ProposeTransaction(ctx, chainID, safeAddr, proposal); err != nil {
		return nil, s.mapUpstreamError(err, "Safe")
	}

	s.logger.Info("proposal accepted",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safeAddr.Hex()),
		zap.String("safe_tx_hash", proposal.SafeTxHash.Hex()),
	)

	return &ProposeResponse{
		SafeTxHash: proposal.SafeTxHash.Hex(),
		Safe:       safeAddr.Hex(),
		Sender:     proposal.Sender.Hex(),
	}, nil
}

// GetTransaction fetches a recorded transaction, verifies its hash and
// confirmations, and returns it. An upstream record that fails verification
// is never returned to the client.
func (s *Service) GetTransaction(ctx context.Context, chainID int64, safeTxHash string) (*TransactionResponse, error) {
	hash, err := parseHash(safeTxHash)
	if err != nil {
		return nil, err
	}

	tx, err := s.client.GetMultisigTransaction(ctx, chainID, hash)
	if err != nil {
		return nil, s.mapUpstreamError(err, "Transaction")
	}

	safe, err := s.client.GetSafe(ctx, chainID, tx.Safe)
	if err != nil {
		return nil, s.mapUpstreamError(err, "Safe")
	}

	if err := s.verifier.VerifyAPITransaction(ctx, chainID, safe, tx); err != nil {
		s.logger.Error("upstream transaction failed verification",
			zap.Int64("chain_id", chainID),
			zap.String("safe_tx_hash", hash.Hex()),
			zap.Error(err),
		)
		return nil, mapVerifierError(err)
	}

	return ToTransactionResponse(tx), nil
}

// GetModuleSafes lists the Safes with the given module enabled.
func (s *Service) GetModuleSafes(ctx context.Context, chainID int64, moduleAddress string) (*ModuleSafesResponse, error) {
	module, err := parseAddress("module address", moduleAddress)
	if err != nil {
		return nil, err
	}

	safes, err := s.client.GetSafesByModule(ctx, chainID, module)
	if err != nil {
		return nil, s.mapUpstreamError(err, "Module")
	}

	resp := &ModuleSafesResponse{Safes: make([]string, 0, len(safes))}
	for _, safe := range safes {
		resp.Safes = append(resp.Safes, safe.Hex())
	}
	return resp, nil
}

// ============================================================================
// Helper functions
// ============================================================================

func buildProposal(req *ProposeTransactionRequest) (*safetx.Proposal, error) {
	to, err := parseAddress("to", req.To)
	if err != nil {
		return nil, err
	}
	sender, err := parseAddress("sender", req.Sender)
	if err != nil {
		return nil, err
	}
	gasToken, err := parseOptionalAddress("gasToken", req.GasToken)
	if err != nil {
		return nil, err
	}
	refundReceiver, err := parseOptionalAddress("refundReceiver", req.RefundReceiver)
	if err != nil {
		return nil, err
	}
	hash, err := parseHash(req.SafeTxHash)
	if err != nil {
		return nil, err
	}

	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		return nil, errors.InvalidInput("Invalid signature encoding").WithError(err)
	}

	data := []byte{}
	if req.Data != "" {
		data, err = hexutil.Decode(req.Data)
		if err != nil {
			return nil, errors.InvalidInput("Invalid data encoding").WithError(err)
		}
	}

	return &safetx.Proposal{
		To:             to,
		Value:          req.Value,
		Data:           data,
		Operation:      safetx.Operation(req.Operation),
		SafeTxGas:      req.SafeTxGas,
		BaseGas:        req.BaseGas,
		GasPrice:       req.GasPrice,
		GasToken:       gasToken,
		RefundReceiver: refundReceiver,
		Nonce:          req.Nonce,
		SafeTxHash:     hash,
		Sender:         sender,
		Signature:      signature,
	}, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, errors.InvalidInput("Invalid " + field)
	}
	return common.HexToAddress(value), nil
}

func parseOptionalAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	return parseAddress(field, value)
}

func parseHash(value string) (common.Hash, error) {
	raw, err := hexutil.Decode(value)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, errors.InvalidInput("Invalid safeTxHash")
	}
	return common.BytesToHash(raw), nil
}

// mapVerifierError translates verifier failures into the API error taxonomy:
// bad upstream records surface as gateway failures, bad proposals as client
// rejections.
func mapVerifierError(err error) error {
	var upstreamErr *verifier.UpstreamDataError
	if stderrors.As(err, &upstreamErr) {
		return errors.BadUpstreamData(upstreamErr.Reason)
	}

	var proposalErr *verifier.ProposalError
	if stderrors.As(err, &proposalErr) {
		return errors.Unprocessable(proposalErr.Reason)
	}

	return errors.Internal("Verification failed").WithError(err)
}

func (s *Service) mapUpstreamError(err error, resource string) error {
	if stderrors.Is(err, txservice.ErrNotFound) {
		return errors.NotFound(resource)
	}
	s.logger.Error("transaction service request failed", zap.Error(err))
	return errors.UpstreamError(err)
}
