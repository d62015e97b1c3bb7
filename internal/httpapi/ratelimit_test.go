package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/pos"
	"github.com/julisunkan/ps/internal/store/jsonfile"
)

func openRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		IPPerMinute:      10000,
		IPBurst:          1000,
		AccountPerMinute: 10000,
		AccountBurst:     1000,
	})
}

func TestMiddlewarePassesLargeBodyThrough(t *testing.T) {
	limiter := openRateLimiter()

	payload := []byte(`{"username":"pos_deadbeef","password":"secret","data":"` +
		strings.Repeat("x", 2*sniffLimit) + `"}`)

	var got []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	limiter.Middleware(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status %d", resp.Code)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("handler saw %d of %d body bytes", len(got), len(payload))
	}
}

func TestImportLargePayloadThroughRateLimiter(t *testing.T) {
	st := jsonfile.NewStore(filepath.Join(t.TempDir(), "pos_data.json"))
	service := pos.NewService(st)
	sessions := NewSessionManager(time.Hour)
	limiter := openRateLimiter()
	handler := limiter.Middleware(AuthMiddleware(sessions, NewHandler(service, sessions, st).Routes()))

	creds, token := provisionAndLogin(t, handler)

	data := models.TenantData{
		Settings: models.Settings{BusinessName: "Big Import", Currency: "USD"},
	}
	for i := 0; i < 5000; i++ {
		data.Products = append(data.Products, models.Product{
			ProductID: fmt.Sprintf("p-%04d", i),
			Name:      strings.Repeat("n", 200),
			SalePrice: 9.99,
			Quantity:  3,
			CreatedAt: time.Now().UTC(),
		})
	}
	raw, err := json.Marshal(map[string]interface{}{
		"username": creds["username"],
		"password": creds["password"],
		"data": pos.ExportPayload{
			ExportedAt: time.Now().UTC(),
			Username:   creds["username"],
			Data:       &data,
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(raw) <= sniffLimit {
		t.Fatalf("fixture too small to exercise the sniff limit: %d bytes", len(raw))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("import status %d: %s", resp.Code, resp.Body.String())
	}

	listResp := doJSON(t, handler, http.MethodGet, "/api/products", token, nil)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list status %d", listResp.Code)
	}
	var products []models.Product
	decode(t, listResp, &products)
	if len(products) != 5000 {
		t.Fatalf("expected 5000 products after import, got %d", len(products))
	}
}

func TestAccountLimiterThrottlesByUsername(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		IPPerMinute:      10000,
		IPBurst:          1000,
		AccountPerMinute: 1,
		AccountBurst:     1,
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := limiter.Middleware(next)

	login := func() int {
		body := bytes.NewReader([]byte(`{"username":"pos_cafef00d","password":"nope"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		wrapped.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := login(); code != http.StatusOK {
		t.Fatalf("first attempt status %d", code)
	}
	if code := login(); code != http.StatusTooManyRequests {
		t.Fatalf("second attempt status %d, want 429", code)
	}
}
