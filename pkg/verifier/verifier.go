// Package verifier authorizes Safe transactions: it recomputes the canonical
// safeTxHash and checks signer identity against the recorded owner (API
// transactions) or against the owner-or-delegate set (fresh proposals).
// Both workflows are read-only gates with no side effects; persisting and
// notifying stay with the caller.
package verifier

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jwkyoung/safe-tx-gateway/pkg/delegates"
	"github.com/jwkyoung/safe-tx-gateway/pkg/ethsig"
	"github.com/jwkyoung/safe-tx-gateway/pkg/safetx"
)

// RuleSet toggles the two independent checks for one call site.
type RuleSet struct {
	Hash      bool
	Signature bool
}

// Config carries the per-call-site rule sets.
type Config struct {
	API      RuleSet
	Proposal RuleSet
}

// Verifier validates recorded transactions and fresh proposals.
type Verifier struct {
	cfg      Config
	registry delegates.Registry
	logger   *zap.Logger
}

// New creates a Verifier. The registry is consulted only on the proposal
// path, and at most once per call.
func New(cfg Config, registry delegates.Registry, logger *zap.Logger) *Verifier {
	return &Verifier{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
}

// VerifyAPITransaction checks a transaction record as served by the
// transaction service: the recorded safeTxHash must match the recomputed one,
// and every recoverable confirmation must have been signed by its declared
// owner. Confirmations are checked concurrently; the first failure wins.
func (v *Verifier) VerifyAPITransaction(ctx context.Context, chainID int64, safe *safetx.Safe, tx *safetx.MultisigTransaction) error {
	if v.cfg.API.Hash {
		computed, err := safetx.TransactionHash(chainID, safe, tx.HashInput())
		if err != nil {
			return &UpstreamDataError{Reason: "safeTxHash could not be recomputed", Err: err}
		}
		if computed != tx.SafeTxHash {
			return &UpstreamDataError{
				Reason: fmt.Sprintf("safeTxHash mismatch: computed %s, recorded %s", computed, tx.SafeTxHash),
			}
		}
	}

	if v.cfg.API.Signature && len(tx.Confirmations) > 0 {
		// Duplicate detection runs before any recovery. A duplicated owner
		// with an otherwise valid signature is rejected with the duplicate
		// message, never with a per-signature diagnosis.
		if err := checkConfirmationsDistinct(tx.Confirmations); err != nil {
			return err
		}

		var g errgroup.Group
		for i, confirmation := range tx.Confirmations {
			g.Go(func() error {
				return v.verifyConfirmation(tx.SafeTxHash, i, confirmation)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	v.logger.Debug("api transaction verified",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safe.Address.Hex()),
		zap.String("safe_tx_hash", tx.SafeTxHash.Hex()),
		zap.Int("confirmations", len(tx.Confirmations)),
	)
	return nil
}

// VerifyProposal checks a freshly submitted transaction: the claimed
// safeTxHash must match the recomputed one, and the single signature must
// recover to the declared sender, who must be a current owner or a
// registered delegate for the Safe.
func (v *Verifier) VerifyProposal(ctx context.Context, chainID int64, safe *safetx.Safe, proposal *safetx.Proposal) error {
	if v.cfg.Proposal.Hash {
		computed, err := safetx.TransactionHash(chainID, safe, proposal.HashInput())
		if err != nil {
			return &ProposalError{Reason: "safeTxHash could not be computed", Err: err}
		}
		if computed != proposal.SafeTxHash {
			return &ProposalError{
				Reason: fmt.Sprintf("safeTxHash mismatch: computed %s, claimed %s", computed, proposal.SafeTxHash),
			}
		}
	}

	if v.cfg.Proposal.Signature {
		if err := v.verifyProposalSignature(ctx, chainID, safe, proposal); err != nil {
			return err
		}
	}

	v.logger.Debug("proposal verified",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safe.Address.Hex()),
		zap.String("sender", proposal.Sender.Hex()),
	)
	return nil
}

func (v *Verifier) verifyProposalSignature(ctx context.Context, chainID int64, safe *safetx.Safe, proposal *safetx.Proposal) error {
	sigType, err := ethsig.Classify(proposal.Signature)
	if err != nil {
		return &ProposalError{Reason: "signature could not be classified", Err: err}
	}

	switch sigType {
	case ethsig.ApprovedHash, ethsig.ContractSignature:
		// Verified on chain, nothing to recover off chain.
		return nil
	case ethsig.Eoa, ethsig.EthSign:
	}

	recovered, err := ethsig.Recover(proposal.SafeTxHash, proposal.Signature)
	if err != nil {
		return &ProposalError{Reason: fmt.Sprintf("%s recovery failed", sigType), Err: err}
	}
	if recovered != proposal.Sender {
		return &ProposalError{
			Reason: fmt.Sprintf("%s signer %s does not match sender %s", sigType, recovered, proposal.Sender),
		}
	}

	if safe.IsOwner(recovered) {
		return nil
	}

	page, err := v.registry.GetDelegates(ctx, chainID, safe.Address)
	if err != nil {
		return &ProposalError{Reason: "delegate lookup failed", Err: err}
	}
	if !page.Contains(recovered) {
		return &ProposalError{
			Reason: fmt.Sprintf("%s signer %s is neither an owner nor a delegate of the safe", sigType, recovered),
		}
	}
	return nil
}

// verifyConfirmation checks a single recorded confirmation. The recovered
// address is matched against the confirmation's declared owner only:
// membership in the current owner set is deliberately not re-checked, since
// ownership may have rotated after the confirmation was recorded.
func (v *Verifier) verifyConfirmation(hash common.Hash, index int, confirmation safetx.Confirmation) error {
	sigType, err := ethsig.Classify(confirmation.Signature)
	if err != nil {
		return &UpstreamDataError{
			Reason: fmt.Sprintf("confirmation %d signature could not be classified", index),
			Err:    err,
		}
	}

	switch sigType {
	case ethsig.ApprovedHash, ethsig.ContractSignature:
		// Verified on chain, nothing to recover off chain.
		return nil
	case ethsig.Eoa, ethsig.EthSign:
	}

	recovered, err := ethsig.Recover(hash, confirmation.Signature)
	if err != nil {
		return &UpstreamDataError{
			Reason: fmt.Sprintf("confirmation %d %s recovery failed", index, sigType),
			Err:    err,
		}
	}
	if recovered != confirmation.Owner {
		return &UpstreamDataError{
			Reason: fmt.Sprintf("confirmation %d %s signer %s does not match owner %s",
				index, sigType, recovered, confirmation.Owner),
		}
	}
	return nil
}

func checkConfirmationsDistinct(confirmations []safetx.Confirmation) error {
	owners := make(map[common.Address]struct{}, len(confirmations))
	signatures := make(map[string]struct{}, len(confirmations))

	for _, c := range confirmations {
		if _, seen := owners[c.Owner]; seen {
			return &UpstreamDataError{Reason: "duplicate owners in confirmations"}
		}
		owners[c.Owner] = struct{}{}

		if len(c.Signature) > 0 {
			key := string(c.Signature)
			if _, seen := signatures[key]; seen {
				return &UpstreamDataError{Reason: "duplicate signatures in confirmations"}
			}
			signatures[key] = struct{}{}
		}
	}
	return nil
}
