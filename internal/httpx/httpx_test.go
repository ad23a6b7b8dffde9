package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"priceoracle/internal/httpx"
	"priceoracle/internal/pricefeed/coingecko"
)

// the provider client consumes the wrapper directly
var _ coingecko.HTTPClient = (*httpx.Client)(nil)

func TestDo_AppliesDefaultHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("X-Extra")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hc := httpx.New(5 * time.Second)
	hc.Headers = map[string]string{"X-Extra": "on"}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	res, err := hc.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	require.Equal(t, "price-oracle/1.0", gotUA)
	require.Equal(t, "on", gotExtra)
}

func TestDo_KeepsCallerHeaders(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hc := httpx.New(5 * time.Second)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom/2.0")
	res, err := hc.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	require.Equal(t, "custom/2.0", gotUA)
}

func TestProviderRequestsCarryUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"assetmantle","symbol":"mntl","name":"AssetMantle"}]`))
	}))
	defer srv.Close()

	hc := httpx.New(5 * time.Second)
	client, err := coingecko.NewClient("",
		coingecko.WithHTTPClient(hc),
		coingecko.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	coins, err := client.CoinsList(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 1)
	require.Equal(t, "price-oracle/1.0", gotUA)
}
