package httpserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	"github.com/songviet/po-admin/internal/admin/rbac"
	"github.com/songviet/po-admin/internal/admin/testutil"
)

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func login(t *testing.T, client *http.Client, baseURL, role, department string) {
	t.Helper()
	payload := map[string]any{
		"token":      "backend-token",
		"email":      "staff@example.com",
		"role":       role,
		"department": department,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := client.Post(baseURL+"/api/auth/session", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestOrdersRequireAuthentication(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)

	resp, err := http.Get(ts.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "unauthorized", body["message"])
}

func TestSessionLoginThenListOrders(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := newCookieClient(t)
	login(t, client, ts.URL, rbac.RoleSupply, rbac.DeptSupply)

	resp, err := client.Get(ts.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Data []struct {
			Number     string `json:"number"`
			StatusName string `json:"status_name"`
		} `json:"data"`
		LastPage int `json:"last_page"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.NotEmpty(t, page.Data)
	require.GreaterOrEqual(t, page.LastPage, 1)
}

func TestStatsCarryRoleCaptions(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := newCookieClient(t)
	login(t, client, ts.URL, rbac.RoleSales, "")

	resp, err := client.Get(ts.URL + "/api/orders/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Total    int `json:"total_orders"`
		Captions struct {
			Pending struct {
				Description string `json:"description"`
			} `json:"pending"`
		} `json:"captions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, 3, stats.Total)
	require.Equal(t, "Đơn cần hoàn thiện gửi đi", stats.Captions.Pending.Description)
}

func TestMergeGuardedByCapability(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)

	body := `{"order_ids":["502","503"]}`

	salesClient := newCookieClient(t)
	login(t, salesClient, ts.URL, rbac.RoleSales, "")
	resp, err := salesClient.Post(ts.URL+"/api/orders/merge", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	supplyClient := newCookieClient(t)
	login(t, supplyClient, ts.URL, rbac.RoleSupply, "")
	resp, err = supplyClient.Post(ts.URL+"/api/orders/merge", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderDetailIncludesTransitions(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := newCookieClient(t)
	login(t, client, ts.URL, rbac.RoleSales, "")

	resp, err := client.Get(ts.URL + "/api/orders/PO-2026-0501")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail struct {
		Order struct {
			Number string `json:"number"`
			Status int    `json:"status"`
		} `json:"order"`
		Transitions []struct {
			Type int `json:"type"`
		} `json:"transitions"`
		CanEditDetails bool `json:"canEditDetails"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	require.Equal(t, "PO-2026-0501", detail.Order.Number)
	require.Equal(t, 1, detail.Order.Status)
	require.True(t, detail.CanEditDetails)
	require.NotEmpty(t, detail.Transitions)
}

func TestBearerHeaderWithCustomAuthenticator(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/order-statuses", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+auth.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog []struct {
		Name string `json:"Name"`
		Type int    `json:"Type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	require.NotEmpty(t, catalog)
	require.Equal(t, "Mới", catalog[0].Name)
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := newCookieClient(t)
	login(t, client, ts.URL, rbac.RoleSupply, "")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/auth/session", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCustomBasePath(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithBasePath("/gateway"))

	resp, err := http.Get(ts.URL + "/gateway/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

type tokenAuthenticator struct {
	Token string
}

func (a *tokenAuthenticator) Authenticate(_ *http.Request, token string) (*middleware.User, error) {
	if token != a.Token {
		return nil, middleware.ErrUnauthorized
	}
	return &middleware.User{
		Email: "tester@example.com",
		Role:  rbac.RoleAdministrator,
		Token: token,
	}, nil
}
