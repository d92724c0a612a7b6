package safetx

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testSafe(version string) *Safe {
	return &Safe{
		Address:   common.HexToAddress("0x5298A93734C3D979eF1f23F78eBB871879A21F22"),
		Version:   version,
		Owners:    []common.Address{common.HexToAddress("0x0000000000000000000000000000000000000001")},
		Threshold: 1,
		ChainID:   1,
	}
}

func testInput() HashInput {
	return HashInput{
		To:             common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
		Value:          "1000000000000000000",
		Data:           common.FromHex("0xa9059cbb"),
		Operation:      Call,
		SafeTxGas:      "0",
		BaseGas:        "0",
		GasPrice:       "0",
		GasToken:       common.Address{},
		RefundReceiver: common.Address{},
		Nonce:          "42",
	}
}

func TestTransactionHashIsDeterministic(t *testing.T) {
	safe := testSafe("1.3.0")

	h1, err := TransactionHash(1, safe, testInput())
	require.NoError(t, err)
	h2, err := TransactionHash(1, safe, testInput())
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.NotEqual(t, common.Hash{}, h1)
}

func TestTransactionHashCoversEveryField(t *testing.T) {
	safe := testSafe("1.3.0")
	base, err := TransactionHash(1, safe, testInput())
	require.NoError(t, err)

	mutations := map[string]func(*HashInput){
		"to":             func(in *HashInput) { in.To = common.HexToAddress("0x00000000000000000000000000000000000000aa") },
		"value":          func(in *HashInput) { in.Value = "2" },
		"data":           func(in *HashInput) { in.Data = []byte{0x01} },
		"operation":      func(in *HashInput) { in.Operation = DelegateCall },
		"safeTxGas":      func(in *HashInput) { in.SafeTxGas = "1" },
		"baseGas":        func(in *HashInput) { in.BaseGas = "1" },
		"gasPrice":       func(in *HashInput) { in.GasPrice = "1" },
		"gasToken":       func(in *HashInput) { in.GasToken = common.HexToAddress("0x00000000000000000000000000000000000000bb") },
		"refundReceiver": func(in *HashInput) { in.RefundReceiver = common.HexToAddress("0x00000000000000000000000000000000000000cc") },
		"nonce":          func(in *HashInput) { in.Nonce = "43" },
	}

	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			in := testInput()
			mutate(&in)

			h, err := TransactionHash(1, safe, in)
			require.NoError(t, err)
			require.NotEqual(t, base, h, "mutating %s must change the hash", field)
		})
	}
}

func TestTransactionHashDomainVersions(t *testing.T) {
	in := testInput()

	t.Run("pre-1.3.0 domain ignores the chain id", func(t *testing.T) {
		safe := testSafe("1.1.1")

		mainnet, err := TransactionHash(1, safe, in)
		require.NoError(t, err)
		polygon, err := TransactionHash(137, safe, in)
		require.NoError(t, err)

		require.Equal(t, mainnet, polygon)
	})

	t.Run("1.3.0 and later bind the chain id", func(t *testing.T) {
		safe := testSafe("1.3.0")

		mainnet, err := TransactionHash(1, safe, in)
		require.NoError(t, err)
		polygon, err := TransactionHash(137, safe, in)
		require.NoError(t, err)

		require.NotEqual(t, mainnet, polygon)
	})

	t.Run("domain shape differs across the boundary", func(t *testing.T) {
		old, err := TransactionHash(1, testSafe("1.2.0"), in)
		require.NoError(t, err)
		recent, err := TransactionHash(1, testSafe("1.3.0"), in)
		require.NoError(t, err)

		require.NotEqual(t, old, recent)
	})

	t.Run("versions above 1.3.0 keep the chain-aware domain", func(t *testing.T) {
		v130, err := TransactionHash(1, testSafe("1.3.0"), in)
		require.NoError(t, err)
		v141, err := TransactionHash(1, testSafe("1.4.1"), in)
		require.NoError(t, err)

		require.Equal(t, v130, v141)
	})
}

func TestTransactionHashDependsOnSafeAddress(t *testing.T) {
	in := testInput()

	a := testSafe("1.3.0")
	b := testSafe("1.3.0")
	b.Address = common.HexToAddress("0x00000000000000000000000000000000000000dd")

	ha, err := TransactionHash(1, a, in)
	require.NoError(t, err)
	hb, err := TransactionHash(1, b, in)
	require.NoError(t, err)

	require.NotEqual(t, ha, hb)
}

func TestTransactionHashRejectsMalformedNumerics(t *testing.T) {
	safe := testSafe("1.3.0")

	cases := []struct {
		name   string
		mutate func(*HashInput)
	}{
		{"non-numeric value", func(in *HashInput) { in.Value = "lots" }},
		{"hex value", func(in *HashInput) { in.Value = "0xde0b6b3a7640000" }},
		{"negative value", func(in *HashInput) { in.Value = "-1" }},
		{"empty nonce", func(in *HashInput) { in.Nonce = "" }},
		{"non-numeric gas", func(in *HashInput) { in.SafeTxGas = "cheap" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := testInput()
			tc.mutate(&in)

			_, err := TransactionHash(1, safe, in)
			require.Error(t, err)

			var he *HashError
			require.ErrorAs(t, err, &he)
		})
	}
}

func TestTransactionHashRejectsUnparsableVersion(t *testing.T) {
	safe := testSafe("not-a-version")

	_, err := TransactionHash(1, safe, testInput())
	require.Error(t, err)

	var he *HashError
	require.ErrorAs(t, err, &he)
	require.Contains(t, err.Error(), "not-a-version")
}

func TestIsOwner(t *testing.T) {
	owner := common.HexToAddress("0x0000000000000000000000000000000000000001")
	safe := testSafe("1.3.0")

	require.True(t, safe.IsOwner(owner))
	require.False(t, safe.IsOwner(common.HexToAddress("0x0000000000000000000000000000000000000002")))
}
