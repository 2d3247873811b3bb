package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"officecrm/internal/apperr"
	"officecrm/internal/auth"
	"officecrm/internal/authz"
	"officecrm/internal/handlers"
	"officecrm/internal/metrics"
	"officecrm/models"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (r *memRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type testServer struct {
	router  http.Handler
	revoker *memRevoker
}

func newTestServer(t *testing.T, store *MockStorage) *testServer {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	revoker := &memRevoker{}
	h := handlers.NewHandler(store, handlers.Deps{
		Tokens:  tokens,
		Hasher:  fastHasher,
		Revoker: revoker,
		Metrics: metrics.New("officecrm"),
	})
	return &testServer{
		router:  handlers.NewRouter(h, handlers.RouterOptions{Verifier: tokens}),
		revoker: revoker,
	}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type tokenBody struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func TestRouterPublicAndProtectedPaths(t *testing.T) {
	srv := newTestServer(t, &MockStorage{})

	w := srv.do(http.MethodGet, "/api/ping", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodGet, "/api/offices", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = srv.do(http.MethodGet, "/api/offices", "not-a-token", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "officecrm_http_requests_total")
}

func TestRegisterLoginLogout(t *testing.T) {
	var stored *models.User
	store := &MockStorage{
		RegisterTenantFunc: func(ctx context.Context, tenant *models.Tenant, u *models.User) error {
			tenant.ID = 8
			u.ID = 31
			u.Role = models.RoleTenant
			u.TenantID = &tenant.ID
			stored = u
			return nil
		},
		GetUserByPhoneFunc: func(ctx context.Context, phone string) (*models.User, error) {
			if stored == nil || phone != stored.Phone {
				return nil, apperr.New(apperr.NotFound, "user not found")
			}
			u := *stored
			return &u, nil
		},
		GetUserFunc: func(ctx context.Context, id int) (*models.User, error) {
			u := *stored
			return &u, nil
		},
	}
	srv := newTestServer(t, store)

	w := srv.do(http.MethodPost, "/api/auth/register", "",
		`{"companyName":"Acme","contactPerson":"Ivan","phone":"+70000000001","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotContains(t, w.Body.String(), "argon2id", "hash never leaves the server")

	var registered tokenBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.Token)
	require.Equal(t, models.RoleTenant, registered.User.Role)
	require.Equal(t, 8, *registered.User.TenantID)

	w = srv.do(http.MethodPost, "/api/auth/register", "", `{"companyName":"Acme","phone":"+70000000001","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodPost, "/api/auth/login", "", `{"phone":"+70000000001","password":"wrong-horse"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")

	w = srv.do(http.MethodPost, "/api/auth/login", "", `{"phone":"+79999999999","password":"correct-horse"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")

	w = srv.do(http.MethodPost, "/api/auth/login", "", `{"phone":"+70000000001","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login tokenBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = srv.do(http.MethodGet, "/api/users/me", login.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"phone":"+70000000001"`)

	// арендатор не может создавать учетные записи
	w = srv.do(http.MethodPost, "/api/users", login.Token, `{"phone":"+70000000002","password":"password1","role":"staff"}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(http.MethodPost, "/api/auth/logout", login.Token, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, srv.revoker.revoked, 1)

	w = srv.do(http.MethodGet, "/api/users/me", login.Token, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// токен регистрации не отозван
	w = srv.do(http.MethodGet, "/api/offices", registered.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterBookingOverlapOverHTTP(t *testing.T) {
	existing := models.DateRange{Start: models.NewDate(2025, 1, 1), End: models.NewDate(2025, 1, 10)}
	store := &MockStorage{
		CreateBookingFunc: func(ctx context.Context, b *models.Booking) error {
			if b.Range().Overlaps(existing) {
				return apperr.New(apperr.Conflict, "office %d is already reserved for %s", b.OfficeID, existing)
			}
			b.ID = 2
			b.Status = models.BookingActive
			return nil
		},
	}
	srv := newTestServer(t, store)
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	tenantID := 7
	token, _, err := tokens.Issue(&authz.Principal{ID: 107, Role: models.RoleTenant, TenantID: &tenantID})
	require.NoError(t, err)

	w := srv.do(http.MethodPost, "/api/bookings", token, `{"officeId":3,"startDate":"2025-01-05","endDate":"2025-01-15"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), `"error":"conflict"`)

	w = srv.do(http.MethodPost, "/api/bookings", token, `{"officeId":3,"startDate":"2025-01-10","endDate":"2025-01-15"}`)
	require.Equal(t, http.StatusCreated, w.Code, "shared boundary day is free")
	require.Contains(t, w.Body.String(), `"tenantId":7`)
}

type countingHasher struct {
	auth.PasswordHasher
	verifies int
}

func (c *countingHasher) Verify(plain, encoded string) (bool, error) {
	c.verifies++
	return c.PasswordHasher.Verify(plain, encoded)
}

func TestLoginUnknownPhoneStillVerifiesPassword(t *testing.T) {
	hasher := &countingHasher{PasswordHasher: fastHasher}
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	h := handlers.NewHandler(&MockStorage{}, handlers.Deps{Tokens: tokens, Hasher: hasher})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"phone":"+79999999999","password":"correct-horse"}`))
	w := httptest.NewRecorder()
	h.LoginHandler(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")
	require.Equal(t, 1, hasher.verifies)
}
