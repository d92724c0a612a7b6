package verifier

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwkyoung/safe-tx-gateway/pkg/delegates"
	"github.com/jwkyoung/safe-tx-gateway/pkg/ethsig"
	"github.com/jwkyoung/safe-tx-gateway/pkg/safetx"
)

const testChainID = int64(1)

var allRules = Config{
	API:      RuleSet{Hash: true, Signature: true},
	Proposal: RuleSet{Hash: true, Signature: true},
}

type fixture struct {
	verifier *Verifier
	registry *delegates.MemoryRegistry
	safe     *safetx.Safe
	keys     map[common.Address]*ecdsa.PrivateKey
}

func newFixture(t *testing.T, owners int) *fixture {
	t.Helper()

	f := &fixture{
		registry: delegates.NewMemoryRegistry(),
		keys:     make(map[common.Address]*ecdsa.PrivateKey),
	}

	safe := &safetx.Safe{
		Address:   common.HexToAddress("0x5298A93734C3D979eF1f23F78eBB871879A21F22"),
		Version:   "1.3.0",
		Threshold: uint64(owners),
		ChainID:   testChainID,
	}
	for i := 0; i < owners; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		addr := crypto.PubkeyToAddress(key.PublicKey)
		safe.Owners = append(safe.Owners, addr)
		f.keys[addr] = key
	}

	f.safe = safe
	f.verifier = New(allRules, f.registry, zap.NewNop())
	return f
}

func (f *fixture) transaction(t *testing.T) *safetx.MultisigTransaction {
	t.Helper()

	tx := &safetx.MultisigTransaction{
		Safe:      f.safe.Address,
		To:        common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
		Value:     "0",
		Operation: safetx.Call,
		SafeTxGas: "0",
		BaseGas:   "0",
		GasPrice:  "0",
		Nonce:     "7",
	}

	hash, err := safetx.TransactionHash(testChainID, f.safe, tx.HashInput())
	require.NoError(t, err)
	tx.SafeTxHash = hash
	return tx
}

func (f *fixture) confirm(t *testing.T, tx *safetx.MultisigTransaction, owner common.Address, ethSign bool) {
	t.Helper()

	key, ok := f.keys[owner]
	require.True(t, ok, "no key for owner %s", owner)

	var sig []byte
	var err error
	sigType := ethsig.Eoa
	if ethSign {
		sig, err = crypto.Sign(accounts.TextHash(tx.SafeTxHash.Bytes()), key)
		require.NoError(t, err)
		sig[64] += 31
		sigType = ethsig.EthSign
	} else {
		sig, err = crypto.Sign(tx.SafeTxHash.Bytes(), key)
		require.NoError(t, err)
		sig[64] += 27
	}

	tx.Confirmations = append(tx.Confirmations, safetx.Confirmation{
		Owner:         owner,
		Signature:     sig,
		SignatureType: sigType,
	})
}

func TestVerifyAPITransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("valid transaction with mixed signature encodings", func(t *testing.T) {
		f := newFixture(t, 3)
		tx := f.transaction(t)
		f.confirm(t, tx, f.safe.Owners[0], false)
		f.confirm(t, tx, f.safe.Owners[1], true)
		tx.Confirmations = append(tx.Confirmations, safetx.Confirmation{
			Owner:         f.safe.Owners[2],
			Signature:     append(make([]byte, 64), 1),
			SignatureType: ethsig.ApprovedHash,
		})

		require.NoError(t, f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx))
	})

	t.Run("no confirmations is acceptable", func(t *testing.T) {
		f := newFixture(t, 1)
		tx := f.transaction(t)

		require.NoError(t, f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx))
	})

	t.Run("recorded hash mismatch", func(t *testing.T) {
		f := newFixture(t, 1)
		tx := f.transaction(t)
		tx.SafeTxHash = common.HexToHash("0xdead")

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		require.Error(t, err)

		var ue *UpstreamDataError
		require.ErrorAs(t, err, &ue)
		require.Contains(t, err.Error(), "safeTxHash mismatch")
	})

	t.Run("unrecomputable hash", func(t *testing.T) {
		f := newFixture(t, 1)
		tx := f.transaction(t)
		tx.Value = "not a number"

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		var ue *UpstreamDataError
		require.ErrorAs(t, err, &ue)
	})

	t.Run("signer does not match declared owner", func(t *testing.T) {
		f := newFixture(t, 2)
		tx := f.transaction(t)
		f.confirm(t, tx, f.safe.Owners[0], false)
		tx.Confirmations[0].Owner = f.safe.Owners[1]

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match owner")
	})

	t.Run("duplicate owners rejected before any recovery", func(t *testing.T) {
		f := newFixture(t, 1)
		tx := f.transaction(t)
		// garbage signatures: if recovery ran first the diagnosis would differ
		tx.Confirmations = []safetx.Confirmation{
			{Owner: f.safe.Owners[0], Signature: []byte{0x01}},
			{Owner: f.safe.Owners[0], Signature: []byte{0x02}},
		}

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate owners in confirmations")
	})

	t.Run("duplicate signatures rejected", func(t *testing.T) {
		f := newFixture(t, 2)
		tx := f.transaction(t)
		f.confirm(t, tx, f.safe.Owners[0], false)
		tx.Confirmations = append(tx.Confirmations, safetx.Confirmation{
			Owner:     f.safe.Owners[1],
			Signature: tx.Confirmations[0].Signature,
		})

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate signatures in confirmations")
	})

	t.Run("unrecognized recovery id", func(t *testing.T) {
		f := newFixture(t, 1)
		tx := f.transaction(t)
		tx.Confirmations = []safetx.Confirmation{
			{Owner: f.safe.Owners[0], Signature: append(make([]byte, 64), 5)},
		}

		err := f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx)
		require.Error(t, err)

		var unknown *ethsig.UnknownTypeError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("hash check alone when signatures are disabled", func(t *testing.T) {
		f := newFixture(t, 1)
		f.verifier = New(Config{API: RuleSet{Hash: true}}, f.registry, zap.NewNop())

		tx := f.transaction(t)
		tx.Confirmations = []safetx.Confirmation{
			{Owner: f.safe.Owners[0], Signature: []byte{0xff}},
		}

		require.NoError(t, f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx))
	})

	t.Run("signature check alone when hash is disabled", func(t *testing.T) {
		f := newFixture(t, 1)
		f.verifier = New(Config{API: RuleSet{Signature: true}}, f.registry, zap.NewNop())

		tx := f.transaction(t)
		f.confirm(t, tx, f.safe.Owners[0], false)
		tx.Value = "999" // would break the hash check if it ran

		require.NoError(t, f.verifier.VerifyAPITransaction(ctx, testChainID, f.safe, tx))
	})
}

func (f *fixture) proposal(t *testing.T, sender common.Address, key *ecdsa.PrivateKey) *safetx.Proposal {
	t.Helper()

	p := &safetx.Proposal{
		To:        common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
		Value:     "0",
		Operation: safetx.Call,
		SafeTxGas: "0",
		BaseGas:   "0",
		GasPrice:  "0",
		Nonce:     "7",
		Sender:    sender,
	}

	hash, err := safetx.TransactionHash(testChainID, f.safe, p.HashInput())
	require.NoError(t, err)
	p.SafeTxHash = hash

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27
	p.Signature = sig
	return p
}

func TestVerifyProposal(t *testing.T) {
	ctx := context.Background()

	t.Run("owner proposal passes", func(t *testing.T) {
		f := newFixture(t, 1)
		owner := f.safe.Owners[0]
		p := f.proposal(t, owner, f.keys[owner])

		require.NoError(t, f.verifier.VerifyProposal(ctx, testChainID, f.safe, p))
	})

	t.Run("delegate proposal passes", func(t *testing.T) {
		f := newFixture(t, 1)
		delegateKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		delegate := crypto.PubkeyToAddress(delegateKey.PublicKey)

		f.registry.Add(testChainID, delegates.Delegate{
			Safe:      f.safe.Address,
			Delegate:  delegate,
			Delegator: f.safe.Owners[0],
			Label:     "ci bot",
		})

		p := f.proposal(t, delegate, delegateKey)
		require.NoError(t, f.verifier.VerifyProposal(ctx, testChainID, f.safe, p))
	})

	t.Run("stranger proposal rejected", func(t *testing.T) {
		f := newFixture(t, 1)
		strangerKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		stranger := crypto.PubkeyToAddress(strangerKey.PublicKey)

		p := f.proposal(t, stranger, strangerKey)

		err = f.verifier.VerifyProposal(ctx, testChainID, f.safe, p)
		require.Error(t, err)

		var pe *ProposalError
		require.ErrorAs(t, err, &pe)
		require.Contains(t, err.Error(), "neither an owner nor a delegate")
	})

	t.Run("signer sender mismatch rejected even for an owner signer", func(t *testing.T) {
		f := newFixture(t, 2)
		// signed by owner 0 but claiming owner 1 as sender
		p := f.proposal(t, f.safe.Owners[1], f.keys[f.safe.Owners[0]])

		err := f.verifier.VerifyProposal(ctx, testChainID, f.safe, p)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match sender")
	})

	t.Run("claimed hash mismatch rejected", func(t *testing.T) {
		f := newFixture(t, 1)
		owner := f.safe.Owners[0]
		p := f.proposal(t, owner, f.keys[owner])
		p.SafeTxHash = common.HexToHash("0xbeef")

		err := f.verifier.VerifyProposal(ctx, testChainID, f.safe, p)
		var pe *ProposalError
		require.ErrorAs(t, err, &pe)
		require.Contains(t, err.Error(), "safeTxHash mismatch")
	})

	t.Run("contract signature skips recovery", func(t *testing.T) {
		f := newFixture(t, 1)
		owner := f.safe.Owners[0]
		p := f.proposal(t, owner, f.keys[owner])
		p.Signature = make([]byte, 65) // v=0, EIP-1271

		require.NoError(t, f.verifier.VerifyProposal(ctx, testChainID, f.safe, p))
	})

	t.Run("delegate lookup failure surfaces as rejection", func(t *testing.T) {
		f := newFixture(t, 1)
		f.verifier = New(allRules, failingRegistry{}, zap.NewNop())

		strangerKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		stranger := crypto.PubkeyToAddress(strangerKey.PublicKey)
		p := f.proposal(t, stranger, strangerKey)

		err = f.verifier.VerifyProposal(ctx, testChainID, f.safe, p)
		require.Error(t, err)
		require.Contains(t, err.Error(), "delegate lookup failed")
	})

	t.Run("all rules disabled accepts anything", func(t *testing.T) {
		f := newFixture(t, 1)
		f.verifier = New(Config{}, f.registry, zap.NewNop())

		p := &safetx.Proposal{Value: "garbage", Signature: []byte{0x01}}
		require.NoError(t, f.verifier.VerifyProposal(ctx, testChainID, f.safe, p))
	})
}

type failingRegistry struct{}

func (failingRegistry) GetDelegates(context.Context, int64, common.Address) (delegates.Page, error) {
	return delegates.Page{}, errors.New("registry down")
}
