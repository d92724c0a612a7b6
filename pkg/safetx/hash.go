package safetx

import (
	"fmt"
	"math/big"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Safe contracts from 1.3.0 on include the chain id in their EIP-712 domain;
// earlier versions bind only the verifying contract.
var chainAwareDomainVersion = semver.MustParse("1.3.0")

// HashError reports that the canonical hash could not be derived, usually
// because a numeric transaction field failed to coerce. No partial hash is
// ever returned alongside it.
type HashError struct {
	Err error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("safetx: hash computation failed: %v", e.Err)
}

func (e *HashError) Unwrap() error {
	return e.Err
}

// TransactionHash deterministically derives the safeTxHash for the given
// fields under the Safe's EIP-712 domain. The schema (domain shape and the
// SafeTx tuple) is fixed by the Safe contracts and must not be altered.
func TransactionHash(chainID int64, safe *Safe, in HashInput) (common.Hash, error) {
	value, err := parseUint256("value", in.Value)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}
	safeTxGas, err := parseUint256("safeTxGas", in.SafeTxGas)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}
	baseGas, err := parseUint256("baseGas", in.BaseGas)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}
	gasPrice, err := parseUint256("gasPrice", in.GasPrice)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}
	nonce, err := parseUint256("nonce", in.Nonce)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}

	domainTypes := []apitypes.Type{
		{Name: "verifyingContract", Type: "address"},
	}
	domain := apitypes.TypedDataDomain{
		VerifyingContract: safe.Address.Hex(),
	}

	chainAware, err := hasChainAwareDomain(safe.Version)
	if err != nil {
		return common.Hash{}, &HashError{Err: err}
	}
	if chainAware {
		domainTypes = []apitypes.Type{
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
		domain.ChainId = math.NewHexOrDecimal256(chainID)
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainTypes,
			"SafeTx": {
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "operation", Type: "uint8"},
				{Name: "safeTxGas", Type: "uint256"},
				{Name: "baseGas", Type: "uint256"},
				{Name: "gasPrice", Type: "uint256"},
				{Name: "gasToken", Type: "address"},
				{Name: "refundReceiver", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "SafeTx",
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"to":             in.To.Hex(),
			"value":          (*math.HexOrDecimal256)(value),
			"data":           in.Data,
			"operation":      math.NewHexOrDecimal256(int64(in.Operation)),
			"safeTxGas":      (*math.HexOrDecimal256)(safeTxGas),
			"baseGas":        (*math.HexOrDecimal256)(baseGas),
			"gasPrice":       (*math.HexOrDecimal256)(gasPrice),
			"gasToken":       in.GasToken.Hex(),
			"refundReceiver": in.RefundReceiver.Hex(),
			"nonce":          (*math.HexOrDecimal256)(nonce),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, &HashError{Err: fmt.Errorf("hash domain: %w", err)}
	}
	messageHash, err := typedData.HashStruct("SafeTx", typedData.Message)
	if err != nil {
		return common.Hash{}, &HashError{Err: fmt.Errorf("hash message: %w", err)}
	}

	// \x19\x01 || domainSeparator || messageHash, byte-level concatenation
	rawData := make([]byte, 0, 66)
	rawData = append(rawData, 0x19, 0x01)
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)

	return common.BytesToHash(crypto.Keccak256(rawData)), nil
}

func hasChainAwareDomain(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parse safe version %q: %w", version, err)
	}
	return !v.LessThan(chainAwareDomainVersion), nil
}

func parseUint256(field, value string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("field %s is not numeric: %q", field, value)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("field %s is negative: %q", field, value)
	}
	return n, nil
}
