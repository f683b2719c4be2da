package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	store    *repository.Store
	cfg      AuthConfig
	auth     *service.AuthService
	accounts repository.AccountRepository
	licenses repository.LicenseRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	accounts := repository.NewSQLAccountRepository(store)
	licenses := repository.NewSQLLicenseRepository(store)
	tokens := repository.NewSQLTokenRepository(store)
	auth := service.NewAuthService(accounts, licenses, tokens, service.NewTokenService("test-secret"))

	return &authFixture{
		store:    store,
		cfg:      AuthConfig{AuthService: auth, Accounts: accounts},
		auth:     auth,
		accounts: accounts,
		licenses: licenses,
	}
}

func (f *authFixture) register(t *testing.T, username string) (string, int64) {
	t.Helper()
	key := "CS2-" + username
	require.NoError(t, f.licenses.CreateBatch(context.Background(), []model.LicenseKey{{Key: key}}))
	token, view, err := f.auth.Register(context.Background(), username, username+"@example.com", "secret1", key)
	require.NoError(t, err)
	return token, view.ID
}

func claimsEcho(t *testing.T, got **model.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	f := newAuthFixture(t)

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(claimsEcho(t, &claims))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, claims)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	f := newAuthFixture(t)

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(claimsEcho(t, &claims))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestAuthMiddlewarePassesClaims(t *testing.T) {
	f := newAuthFixture(t)
	token, id := f.register(t, "alice")

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(claimsEcho(t, &claims))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, id, claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAdminMiddlewareRejectsNonAdmin(t *testing.T) {
	f := newAuthFixture(t)
	token, _ := f.register(t, "alice")

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(NewAdminMiddleware(f.cfg)(claimsEcho(t, &claims)))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestAdminMiddlewareReReadsRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx))
	token, _, err := f.auth.Login(ctx, service.DefaultAdminUsername, service.DefaultAdminPassword)
	require.NoError(t, err)

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(NewAdminMiddleware(f.cfg)(claimsEcho(t, &claims)))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Demote the admin directly in the store. The unexpired token must stop
	// granting admin access on the very next request.
	admin, err := f.accounts.GetByUsername(ctx, service.DefaultAdminUsername)
	require.NoError(t, err)
	res, err := f.store.DB().ExecContext(ctx, "UPDATE accounts SET is_admin = 0 WHERE id = ?", admin.ID)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminMiddlewareDeletedAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token, id := f.register(t, "alice")

	require.NoError(t, f.accounts.Delete(ctx, id))

	var claims *model.Claims
	handler := NewAuthMiddleware(f.cfg)(NewAdminMiddleware(f.cfg)(claimsEcho(t, &claims)))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
