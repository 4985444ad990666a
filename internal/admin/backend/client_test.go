package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		base     string
		endpoint string
		want     string
	}{
		{name: "relative", base: "https://api.example.com/v1/", endpoint: "/orders", want: "https://api.example.com/v1/orders"},
		{name: "base path without trailing slash", base: "https://api.example.com/v1", endpoint: "/orders", want: "https://api.example.com/v1/orders"},
		{name: "bare host", base: "https://api.example.com", endpoint: "/orders", want: "https://api.example.com/orders"},
		{name: "query", base: "https://api.example.com/v1/", endpoint: "/orders/ids?status=7", want: "https://api.example.com/v1/orders/ids?status=7"},
		{name: "absolute passthrough", base: "https://api.example.com/v1/", endpoint: "https://other.example.com/x", want: "https://other.example.com/x"},
		{name: "empty", base: "https://api.example.com/v1/", endpoint: "", want: "https://api.example.com/v1/"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewClient(tc.base, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, client.Resolve(tc.endpoint))
		})
	}
}

func TestNewRequestAttachesToken(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.example.com", nil)
	require.NoError(t, err)

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/orders", nil, "tok-123")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))

	req, err = client.NewRequest(context.Background(), http.MethodGet, "/orders", nil, "")
	require.NoError(t, err)
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestNewJSONRequest(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.example.com", nil)
	require.NoError(t, err)

	req, err := client.NewJSONRequest(context.Background(), http.MethodPost, "/orders/merge", map[string]any{"order_ids": []string{"1", "2"}}, "tok")
	require.NoError(t, err)
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"order_ids":["1","2"]}`, string(body))
}

func TestErrorFromResponse(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.example.com", nil)
	require.NoError(t, err)

	t.Run("envelope", func(t *testing.T) {
		t.Parallel()
		resp := &http.Response{
			StatusCode: http.StatusConflict,
			Body:       io.NopCloser(strings.NewReader(`{"code":"order_locked","message":"order is locked"}`)),
		}
		got := client.ErrorFromResponse(resp)
		var be *Error
		require.ErrorAs(t, got, &be)
		require.Equal(t, http.StatusConflict, be.StatusCode)
		require.Equal(t, "order_locked", be.Code)
		require.Equal(t, "order is locked", be.Message)
		require.Equal(t, http.StatusConflict, StatusFromError(got))
	})

	t.Run("plain body", func(t *testing.T) {
		t.Parallel()
		resp := &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream broke")),
		}
		got := client.ErrorFromResponse(resp)
		var be *Error
		require.ErrorAs(t, got, &be)
		require.Equal(t, "upstream broke", be.Message)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		resp := &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("")),
		}
		got := client.ErrorFromResponse(resp)
		var be *Error
		require.ErrorAs(t, got, &be)
		require.Equal(t, http.StatusText(http.StatusNotFound), be.Message)
	})
}

func TestStatusFromErrorNonBackend(t *testing.T) {
	t.Parallel()
	require.Zero(t, StatusFromError(io.EOF))
}

func TestDoWrapsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/", nil, "")
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}
