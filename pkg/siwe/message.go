package siwe

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Message is the validated form of a Sign-In-With-Ethereum payload.
// REF: https://eips.ethereum.org/EIPS/eip-4361
//
// Optional fields are empty strings (or nil for Resources) when absent.
// IssuedAt is always populated after validation: either the supplied
// ISO-8601 value or the instant validation ran.
type Message struct {
	Scheme         string   `json:"scheme,omitempty"`
	Domain         string   `json:"domain"`
	Address        string   `json:"address"`
	Statement      string   `json:"statement,omitempty"`
	URI            string   `json:"uri"`
	Version        string   `json:"version"`
	ChainID        int64    `json:"chainId"`
	Nonce          string   `json:"nonce"`
	IssuedAt       string   `json:"issuedAt"`
	ExpirationTime string   `json:"expirationTime,omitempty"`
	NotBefore      string   `json:"notBefore,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
	Resources      []string `json:"resources,omitempty"`
}

// String renders the canonical EIP-4361 text that wallets present for
// personal_sign. Validation does not depend on this form; it exists so the
// server can recompute the exact signed payload from structured fields.
func (m *Message) String() string {
	var b strings.Builder

	authority := m.Domain
	if m.Scheme != "" {
		authority = m.Scheme + "://" + m.Domain
	}

	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", authority)
	fmt.Fprintf(&b, "%s\n", m.Address)
	b.WriteString("\n")

	if m.Statement != "" {
		fmt.Fprintf(&b, "%s\n\n", m.Statement)
	}

	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt)

	if m.ExpirationTime != "" {
		fmt.Fprintf(&b, "\nExpiration Time: %s", m.ExpirationTime)
	}
	if m.NotBefore != "" {
		fmt.Fprintf(&b, "\nNot Before: %s", m.NotBefore)
	}
	if m.RequestID != "" {
		fmt.Fprintf(&b, "\nRequest ID: %s", m.RequestID)
	}
	if len(m.Resources) > 0 {
		b.WriteString("\nResources:")
		for _, r := range m.Resources {
			fmt.Fprintf(&b, "\n- %s", r)
		}
	}

	return b.String()
}

// VerifySignature checks that signatureHex is a personal_sign signature over
// the canonical message text produced by the message's own address.
func (m *Message) VerifySignature(signatureHex string) (bool, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return false, fmt.Errorf("siwe: decode signature: %w", err)
	}
	if len(sig) != 65 {
		return false, fmt.Errorf("siwe: signature must be 65 bytes, got %d", len(sig))
	}

	// Normalize V for recovery (27/28 -> 0/1)
	signature := make([]byte, 65)
	copy(signature, sig)
	if signature[64] >= 27 {
		signature[64] -= 27
	}

	hash := accounts.TextHash([]byte(m.String()))

	pubKey, err := crypto.SigToPub(hash, signature)
	if err != nil {
		return false, fmt.Errorf("siwe: recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), m.Address), nil
}
