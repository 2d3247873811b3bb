package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"officecrm/internal/auth"
	"officecrm/models"
)

// WithChiURLParams подставляет параметры пути в контекст chi запроса для тестов.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// WithPrincipal кладет в контекст claims, как это делает auth.Middleware после проверки токена.
func WithPrincipal(req *http.Request, id int, role models.Role, tenantID *int) *http.Request {
	claims := &auth.Claims{UserID: id, Role: role, TenantID: tenantID}
	claims.ID = "test-token"
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// IntPtr возвращает указатель на v.
func IntPtr(v int) *int { return &v }
