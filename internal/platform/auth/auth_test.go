package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func testClaims(sub string, roles ...string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "vitalwatch-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
}

func doAuth(t *testing.T, cfg JWTConfig, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTMiddleware(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return c, h(c)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	cfg := JWTConfig{Issuer: "vitalwatch-test", SigningKey: testKey}
	token := signToken(t, testClaims("user-1", "physician"), testKey)

	c, err := doAuth(t, cfg, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UserIDFromContext(c.Request().Context()); got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "physician" {
		t.Errorf("expected [physician], got %v", roles)
	}
	if got, _ := c.Get("user_id").(string); got != "user-1" {
		t.Errorf("expected user_id on echo context, got %q", got)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	cfg := JWTConfig{SigningKey: testKey}
	_, err := doAuth(t, cfg, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	cfg := JWTConfig{SigningKey: testKey}
	_, err := doAuth(t, cfg, "Basic abc123")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	cfg := JWTConfig{SigningKey: testKey}
	token := signToken(t, testClaims("user-1", "nurse"), []byte("other-key"))
	_, err := doAuth(t, cfg, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	cfg := JWTConfig{SigningKey: testKey}
	claims := testClaims("user-1", "nurse")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signToken(t, claims, testKey)
	_, err := doAuth(t, cfg, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	cfg := JWTConfig{Issuer: "expected-issuer", SigningKey: testKey}
	token := signToken(t, testClaims("user-1", "nurse"), testKey)
	_, err := doAuth(t, cfg, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDevAuthMiddleware_SetsDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := DevAuthMiddleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UserIDFromContext(c.Request().Context()); got != "dev-user" {
		t.Errorf("expected dev-user, got %q", got)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected [admin], got %v", roles)
	}
}

func requireRoleTest(t *testing.T, userRoles []string, required []string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctx := context.WithValue(req.Context(), UserRolesKey, userRoles)
	c.SetRequest(req.WithContext(ctx))

	h := RequireRole(required...)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return h(c)
}

func TestRequireRole_Allows(t *testing.T) {
	if err := requireRoleTest(t, []string{"nurse"}, []string{"physician", "nurse"}); err != nil {
		t.Errorf("expected nurse to pass: %v", err)
	}
}

func TestRequireRole_AdminAlwaysPasses(t *testing.T) {
	if err := requireRoleTest(t, []string{"admin"}, []string{"physician"}); err != nil {
		t.Errorf("expected admin to pass: %v", err)
	}
}

func TestRequireRole_Denies(t *testing.T) {
	err := requireRoleTest(t, []string{"care_device"}, []string{"physician"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	err := requireRoleTest(t, nil, []string{"physician"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
