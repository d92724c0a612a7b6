package delegates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testSafe      = common.HexToAddress("0x5298A93734C3D979eF1f23F78eBB871879A21F22")
	testDelegate  = common.HexToAddress("0x0000000000000000000000000000000000000d01")
	testDelegator = common.HexToAddress("0x0000000000000000000000000000000000000d02")
)

func TestPageContains(t *testing.T) {
	page := Page{
		Count: 1,
		Results: []Delegate{
			{Safe: testSafe, Delegate: testDelegate, Delegator: testDelegator, Label: "bot"},
		},
	}

	require.True(t, page.Contains(testDelegate))
	// only the delegate column authorizes; delegator membership does not
	require.False(t, page.Contains(testDelegator))
	require.False(t, page.Contains(testSafe))
	require.False(t, Page{}.Contains(testDelegate))
}

func TestMemoryRegistry(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	page, err := r.GetDelegates(ctx, 1, testSafe)
	require.NoError(t, err)
	require.Zero(t, page.Count)

	r.Add(1, Delegate{Safe: testSafe, Delegate: testDelegate})

	page, err = r.GetDelegates(ctx, 1, testSafe)
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.True(t, page.Contains(testDelegate))

	// scoped by chain and safe
	page, err = r.GetDelegates(ctx, 137, testSafe)
	require.NoError(t, err)
	require.Zero(t, page.Count)

	page, err = r.GetDelegates(ctx, 1, testDelegator)
	require.NoError(t, err)
	require.Zero(t, page.Count)
}

func TestHTTPRegistry(t *testing.T) {
	t.Run("single page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/chains/1/delegates/", r.URL.Path)
			require.Equal(t, testSafe.Hex(), r.URL.Query().Get("safe"))

			_ = json.NewEncoder(w).Encode(pagedResponse{
				Count:   1,
				Results: []Delegate{{Safe: testSafe, Delegate: testDelegate}},
			})
		}))
		defer srv.Close()

		r := NewHTTPRegistry(srv.URL, 0, zap.NewNop())
		page, err := r.GetDelegates(context.Background(), 1, testSafe)
		require.NoError(t, err)
		require.Equal(t, 1, page.Count)
		require.True(t, page.Contains(testDelegate))
	})

	t.Run("follows pagination", func(t *testing.T) {
		second := common.HexToAddress("0x0000000000000000000000000000000000000d03")

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := pagedResponse{Count: 2}
			if r.URL.Query().Get("page") == "2" {
				resp.Results = []Delegate{{Safe: testSafe, Delegate: second}}
			} else {
				resp.Results = []Delegate{{Safe: testSafe, Delegate: testDelegate}}
				resp.Next = fmt.Sprintf("%s/api/v1/chains/1/delegates/?safe=%s&page=2", srv.URL, testSafe.Hex())
			}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		r := NewHTTPRegistry(srv.URL, 0, zap.NewNop())
		page, err := r.GetDelegates(context.Background(), 1, testSafe)
		require.NoError(t, err)
		require.Len(t, page.Results, 2)
		require.True(t, page.Contains(testDelegate))
		require.True(t, page.Contains(second))
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		r := NewHTTPRegistry(srv.URL, 0, zap.NewNop())
		_, err := r.GetDelegates(context.Background(), 1, testSafe)
		require.Error(t, err)
		require.Contains(t, err.Error(), "status 502")
	})
}
