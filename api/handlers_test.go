package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/personnel-engine/entitlement"
	"github.com/warp/personnel-engine/hr"
	"github.com/warp/personnel-engine/store/sqlite"
)

type testEnv struct {
	store  *sqlite.Store
	server *httptest.Server
	admin  string // bearer token
	user   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	sweeper := entitlement.NewSweeper(store, store, store)
	sweeper.Now = func() hr.Date { return hr.NewDate(2024, 6, 1) }
	scheduler := NewEntitlementScheduler(store, sweeper)
	scheduler.Enabled = false // RunNow only, no background timer in tests

	tokens := NewTokenIssuer("test-secret", time.Hour)
	srv := httptest.NewServer(NewRouter(NewServer(store, tokens, hub, scheduler)))
	t.Cleanup(srv.Close)

	env := &testEnv{store: store, server: srv}
	env.admin = env.createAccount(t, tokens, "admin", hr.RoleAdmin)
	env.user = env.createAccount(t, tokens, "user", hr.RoleUser)
	return env
}

func (e *testEnv) createAccount(t *testing.T, tokens *TokenIssuer, username string, role hr.Role) string {
	t.Helper()
	hash, err := HashPassword("secret-" + username)
	require.NoError(t, err)
	u := hr.User{Username: username, PasswordHash: hash, Name: username, Role: role}
	require.NoError(t, e.store.CreateUser(context.Background(), &u))
	token, err := tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	// Wrong password
	resp := env.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct credentials
	resp = env.do(t, http.MethodPost, "/api/login", "", loginRequest{Username: "admin", Password: "secret-admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[loginResponse](t, resp)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "admin", out.User.Username)
	assert.Empty(t, out.User.PasswordHash)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/employees", env.user, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminOnlyRoutes(t *testing.T) {
	env := newTestEnv(t)

	body := employeeRequest{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 3, 10)}

	// Regular users cannot create employees
	resp := env.do(t, http.MethodPost, "/api/employees", env.user, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admins can
	resp = env.do(t, http.MethodPost, "/api/employees", env.admin, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestEmployeeLifecycle(t *testing.T) {
	env := newTestEnv(t)

	created := decode[hr.Employee](t, env.do(t, http.MethodPost, "/api/employees", env.admin,
		employeeRequest{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 3, 10)}))
	require.NotZero(t, created.ID)
	assert.Equal(t, "Jane Doe", created.FullName)

	// Duplicate number conflicts
	resp := env.do(t, http.MethodPost, "/api/employees", env.admin,
		employeeRequest{Number: "EMP-1", FirstName: "X", LastName: "Y", HiringDate: hr.NewDate(2021, 1, 1)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Partial update: only the grade changes, the hire date survives
	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/employees/%d", created.ID), env.admin,
		map[string]any{"current_grade": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[hr.Employee](t, resp)
	assert.Equal(t, 5, updated.CurrentGrade)
	assert.True(t, updated.HiringDate.Equal(hr.NewDate(2020, 3, 10)))

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/employees/%d", created.ID), env.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/employees/%d", created.ID), env.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrder_ServiceMonthDefaults(t *testing.T) {
	env := newTestEnv(t)

	emp := decode[hr.Employee](t, env.do(t, http.MethodPost, "/api/employees", env.admin,
		employeeRequest{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 3, 10)}))

	cases := []struct {
		name     string
		kind     string
		issuedBy string
		want     int
	}{
		{"ministerial appreciation letter", "appreciation", "Office of the Minister", 6},
		{"director-general letter", "appreciation", "Director General", 1},
		{"disciplinary order", "disciplinary", "Office of the Minister", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/orders", env.admin, orderRequest{
				EmployeeID:  emp.ID,
				Kind:        tc.kind,
				Description: tc.name,
				Date:        hr.NewDate(2024, 1, 10),
				IssuedBy:    tc.issuedBy,
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			order := decode[hr.Order](t, resp)
			assert.Equal(t, tc.want, order.AddedServiceMonth)
		})
	}

	// An explicit value beats the default
	explicit := 3
	resp := env.do(t, http.MethodPost, "/api/orders", env.admin, orderRequest{
		EmployeeID: emp.ID, Kind: "appreciation", Description: "custom",
		Date: hr.NewDate(2024, 1, 10), IssuedBy: "Office of the Minister",
		AddedServiceMonth: &explicit,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 3, decode[hr.Order](t, resp).AddedServiceMonth)
}

func TestTriggerEntitlementCheck(t *testing.T) {
	env := newTestEnv(t)

	// GIVEN an employee due for an allowance within the window
	env.do(t, http.MethodPost, "/api/employees", env.admin,
		employeeRequest{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 6, 15)})

	// Regular users cannot trigger checks
	resp := env.do(t, http.MethodPost, "/api/admin/entitlement-check", env.user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// WHEN an admin triggers a check
	resp = env.do(t, http.MethodPost, "/api/admin/entitlement-check", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[entitlementCheckResponse](t, resp)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 1, out.Summary.Created) // one admin recipient

	// THEN the admin inbox has the notification
	resp = env.do(t, http.MethodGet, "/api/notifications", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]hr.Notification](t, resp)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "2024-06-15")

	// AND a second trigger deduplicates instead of re-notifying
	resp = env.do(t, http.MethodPost, "/api/admin/entitlement-check", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[entitlementCheckResponse](t, resp)
	assert.Equal(t, 0, again.Summary.Created)
	assert.Equal(t, 1, again.Summary.Deduplicated)

	// AND both passes were recorded
	resp = env.do(t, http.MethodGet, "/api/admin/sweep-runs", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs := decode[[]sqlite.SweepRun](t, resp)
	assert.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, "completed", run.Status)
		assert.Equal(t, "manual", run.TriggerSource)
	}
}

func TestNotificationInboxEndpoints(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/employees", env.admin,
		employeeRequest{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 6, 15)})
	env.do(t, http.MethodPost, "/api/admin/entitlement-check", env.admin, nil)

	resp := env.do(t, http.MethodGet, "/api/notifications/unread-count", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	count := decode[map[string]int](t, resp)
	assert.Equal(t, 1, count["count"])

	inbox := decode[[]hr.Notification](t, env.do(t, http.MethodGet, "/api/notifications", env.admin, nil))
	require.Len(t, inbox, 1)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", inbox[0].ID), env.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	count = decode[map[string]int](t, env.do(t, http.MethodGet, "/api/notifications/unread-count", env.admin, nil))
	assert.Equal(t, 0, count["count"])
}
