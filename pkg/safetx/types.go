// Package safetx models Safe multisig transactions and computes their
// canonical domain-separated hash (safeTxHash).
package safetx

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jwkyoung/safe-tx-gateway/pkg/ethsig"
)

// Operation is the Safe call type.
type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

// Safe is a read-only snapshot of a Safe's on-chain configuration, supplied
// by the transaction-service collaborator.
type Safe struct {
	Address   common.Address   `json:"address"`
	Version   string           `json:"version"`
	Owners    []common.Address `json:"owners"`
	Threshold uint64           `json:"threshold"`
	ChainID   int64            `json:"chainId"`
}

// IsOwner reports whether address is in the Safe's current owner set.
func (s *Safe) IsOwner(address common.Address) bool {
	for _, owner := range s.Owners {
		if owner == address {
			return true
		}
	}
	return false
}

// Confirmation is one owner's endorsement of a transaction as recorded by
// the transaction service. SignatureType is the upstream's claim; the
// verifier classifies from the signature bytes themselves.
type Confirmation struct {
	Owner         common.Address       `json:"owner"`
	Signature     hexutil.Bytes        `json:"signature"`
	SignatureType ethsig.SignatureType `json:"signatureType"`
}

// MultisigTransaction is a transaction already recorded upstream, carrying
// its claimed hash and the confirmations gathered so far. Numeric fields
// arrive as decimal strings and are only coerced when the hash is computed.
type MultisigTransaction struct {
	Safe           common.Address `json:"safe"`
	To             common.Address `json:"to"`
	Value          string         `json:"value"`
	Data           hexutil.Bytes  `json:"data"`
	Operation      Operation      `json:"operation"`
	SafeTxGas      string         `json:"safeTxGas"`
	BaseGas        string         `json:"baseGas"`
	GasPrice       string         `json:"gasPrice"`
	GasToken       common.Address `json:"gasToken"`
	RefundReceiver common.Address `json:"refundReceiver"`
	Nonce          string         `json:"nonce"`
	SafeTxHash     common.Hash    `json:"safeTxHash"`
	Confirmations  []Confirmation `json:"confirmations"`
}

// Proposal is a freshly submitted transaction carrying the proposer's single
// signature and claimed hash.
type Proposal struct {
	To             common.Address `json:"to"`
	Value          string         `json:"value"`
	Data           hexutil.Bytes  `json:"data"`
	Operation      Operation      `json:"operation"`
	SafeTxGas      string         `json:"safeTxGas"`
	BaseGas        string         `json:"baseGas"`
	GasPrice       string         `json:"gasPrice"`
	GasToken       common.Address `json:"gasToken"`
	RefundReceiver common.Address `json:"refundReceiver"`
	Nonce          string         `json:"nonce"`
	SafeTxHash     common.Hash    `json:"safeTxHash"`
	Sender         common.Address `json:"sender"`
	Signature      hexutil.Bytes  `json:"signature"`
}

// HashInput are the SafeTx fields covered by the domain-separated hash.
type HashInput struct {
	To             common.Address
	Value          string
	Data           []byte
	Operation      Operation
	SafeTxGas      string
	BaseGas        string
	GasPrice       string
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          string
}

// HashInput extracts the hash-covered fields of a recorded transaction.
func (t *MultisigTransaction) HashInput() HashInput {
	return HashInput{
		To:             t.To,
		Value:          t.Value,
		Data:           t.Data,
		Operation:      t.Operation,
		SafeTxGas:      t.SafeTxGas,
		BaseGas:        t.BaseGas,
		GasPrice:       t.GasPrice,
		GasToken:       t.GasToken,
		RefundReceiver: t.RefundReceiver,
		Nonce:          t.Nonce,
	}
}

// HashInput extracts the hash-covered fields of a proposal.
func (p *Proposal) HashInput() HashInput {
	return HashInput{
		To:             p.To,
		Value:          p.Value,
		Data:           p.Data,
		Operation:      p.Operation,
		SafeTxGas:      p.SafeTxGas,
		BaseGas:        p.BaseGas,
		GasPrice:       p.GasPrice,
		GasToken:       p.GasToken,
		RefundReceiver: p.RefundReceiver,
		Nonce:          p.Nonce,
	}
}
