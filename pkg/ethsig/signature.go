// Package ethsig classifies and recovers the signature encodings a Safe
// accepts on transaction confirmations. The trailing recovery id byte (v)
// selects the encoding:
//
//	 0 — contract signature (EIP-1271), verified on chain, not here
//	 1 — approved hash, recorded on chain via approveHash, nothing to recover
//	27 — standard ECDSA over the raw safeTxHash
//	31 — eth_sign: ECDSA over the personal-message hash of the safeTxHash,
//	     shifted by 4 to stay distinguishable from the standard encoding
package ethsig

import (
	"errors"
	"fmt"
)

var errNotRecoverable = errors.New("signature type carries no recoverable signature")

// SignatureType is the encoding variant of a 65-byte Safe signature.
type SignatureType int

const (
	// ApprovedHash marks an owner that called approveHash on chain.
	// There is no off-chain signature to recover.
	ApprovedHash SignatureType = iota
	// ContractSignature is an EIP-1271 smart-contract signature.
	// Verification is the chain's job, not ours.
	ContractSignature
	// Eoa is a standard ECDSA signature over the raw digest.
	Eoa
	// EthSign is an ECDSA signature produced by eth_sign, i.e. over the
	// personal-message hash of the digest, with v offset by 4.
	EthSign
)

func (t SignatureType) String() string {
	switch t {
	case ApprovedHash:
		return "APPROVED_HASH"
	case ContractSignature:
		return "CONTRACT_SIGNATURE"
	case Eoa:
		return "EOA"
	case EthSign:
		return "ETH_SIGN"
	default:
		return fmt.Sprintf("SignatureType(%d)", int(t))
	}
}

// UnknownTypeError reports a recovery id that matches no known encoding.
type UnknownTypeError struct {
	V byte
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("ethsig: unrecognized signature type: v=%d", e.V)
}

// RecoveryError reports that address recovery failed for a classified
// signature, naming the variant that was attempted.
type RecoveryError struct {
	Type SignatureType
	Err  error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("ethsig: %s recovery failed: %v", e.Type, e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Classify determines the signature encoding from the recovery id, the last
// byte of a 65-byte signature.
func Classify(signature []byte) (SignatureType, error) {
	if len(signature) != 65 {
		return 0, fmt.Errorf("ethsig: signature must be 65 bytes, got %d", len(signature))
	}

	switch v := signature[64]; v {
	case 0:
		return ContractSignature, nil
	case 1:
		return ApprovedHash, nil
	case 27, 28:
		return Eoa, nil
	case 31, 32:
		return EthSign, nil
	default:
		return 0, &UnknownTypeError{V: v}
	}
}
