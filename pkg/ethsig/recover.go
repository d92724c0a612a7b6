package ethsig

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recover derives the signing address for an Eoa or EthSign signature over
// hash. Calling it with an ApprovedHash or ContractSignature encoding is a
// programming error and returns an UnknownTypeError-free RecoveryError; those
// variants carry nothing recoverable.
func Recover(hash common.Hash, signature []byte) (common.Address, error) {
	sigType, err := Classify(signature)
	if err != nil {
		return common.Address{}, err
	}

	switch sigType {
	case Eoa:
		return recoverDigest(sigType, hash.Bytes(), signature, 27)
	case EthSign:
		// eth_sign signed the personal-message hash of the digest, and the
		// recovery id was shifted by 4 on top of the usual 27.
		return recoverDigest(sigType, accounts.TextHash(hash.Bytes()), signature, 31)
	default:
		return common.Address{}, &RecoveryError{
			Type: sigType,
			Err:  errNotRecoverable,
		}
	}
}

// recoverDigest runs standard secp256k1 public key recovery after shifting
// the recovery id down to the 0/1 range crypto.SigToPub expects.
func recoverDigest(sigType SignatureType, digest, signature []byte, vBase byte) (common.Address, error) {
	sig := make([]byte, 65)
	copy(sig, signature)
	sig[64] -= vBase

	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, &RecoveryError{Type: sigType, Err: err}
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
