package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/config"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
)

func newTestAPI(ready bool) *API {
	cfg := &config.Config{
		AdminIDs:  []string{"admin-1"},
		JWTSecret: "test-secret",
		WebBind:   "127.0.0.1:0",
	}
	return New(cfg, order.NewMemoryLedger(), referral.NewMemoryLedger(), catalog.NewDefaultStore(), func() bool { return ready })
}

func (a *API) testToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHandleStatus(t *testing.T) {
	a := newTestAPI(true)

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want OK", resp.StatusCode)
	}
	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body["ready"] {
		t.Errorf("ready = false, want true")
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	a := newTestAPI(true)

	for _, path := range []string{"/api/orders", "/api/referrals", "/api/catalog"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %v, want 401", path, w.Result().StatusCode)
		}
	}
}

func TestProtectedEndpointsRequireAdmin(t *testing.T) {
	a := newTestAPI(true)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+a.testToken(t, "random-user"))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("non-admin token: status = %v, want 403", w.Result().StatusCode)
	}
}

func TestAdminCanListOrders(t *testing.T) {
	a := newTestAPI(true)
	a.orders.Create("user-1", "1GB (weekly data)", 58)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+a.testToken(t, "admin-1"))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want OK", w.Result().StatusCode)
	}
	var orders []order.Order
	if err := json.NewDecoder(w.Result().Body).Decode(&orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 1 || orders[0].Package != "1GB (weekly data)" {
		t.Errorf("orders = %+v", orders)
	}
}
