package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/tillpoint/pos/pkg/apperror"
)

func testCreds() Credentials {
	return Credentials{Token: "test-token", UserID: "user-42"}
}

func TestDoAttachesAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-USER-ID"); got != "user-42" {
			t.Errorf("X-USER-ID = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, testCreds)
	if _, err := g.Do(context.Background(), Request{Endpoint: PullProducts}); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDoDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"espresso"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	g := NewGateway(srv.URL, testCreds)
	if _, err := g.Do(context.Background(), Request{Endpoint: PullProducts, Out: &out}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.Name != "espresso" {
		t.Errorf("decoded name = %q", out.Name)
	}
}

func TestDoSkipsDecodeForNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("sku,qty\nA1,3\n"))
	}))
	defer srv.Close()

	var out struct{}
	g := NewGateway(srv.URL, testCreds)
	res, err := g.Do(context.Background(), Request{Endpoint: PullProducts, Out: &out})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(res.Body) != "sku,qty\nA1,3\n" {
		t.Errorf("raw body = %q", res.Body)
	}
}

func TestDoErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"invalid_field","message":"Quantity must be positive","field":"quantity","value":-1}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, testCreds)
	_, err := g.Do(context.Background(), Request{Endpoint: PushOrders, Body: map[string]int{"quantity": -1}})
	if err == nil {
		t.Fatal("expected error")
	}

	appErr := apperror.GetAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Code = %d", appErr.Code)
	}
	if appErr.Message != "Quantity must be positive" {
		t.Errorf("Message = %q", appErr.Message)
	}
	if appErr.Field != "quantity" {
		t.Errorf("Field = %q", appErr.Field)
	}
}

func TestDoAuthExpiredCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"logged_out","message":"Session expired"}`))
	}))
	defer srv.Close()

	expired := false
	g := NewGateway(srv.URL, testCreds, WithOnAuthExpired(func() { expired = true }))

	_, err := g.Do(context.Background(), Request{Endpoint: PullOrders})
	if err == nil {
		t.Fatal("expected error")
	}
	if !expired {
		t.Error("expected auth-expired callback to fire")
	}
	if !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Errorf("expected authentication kind, got %v", err)
	}
}

func TestDoOfflineMapsToNetworkError(t *testing.T) {
	// A closed server makes the dial fail immediately.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := NewGateway(srv.URL, testCreds)
	_, err := g.Do(context.Background(), Request{Endpoint: PullProducts})
	if !apperror.IsKind(err, apperror.KindNetwork) {
		t.Errorf("expected network kind, got %v", err)
	}
}

func TestDoTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, testCreds, WithTimeout(20*time.Millisecond))
	_, err := g.Do(context.Background(), Request{Endpoint: PullProducts})
	if !apperror.IsKind(err, apperror.KindTimeout) {
		t.Errorf("expected timeout kind, got %v", err)
	}
}

func TestDoPathAndQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ordering/order/abc-123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("last_synced_at"); got != "2026-01-02T00:00:00Z" {
			t.Errorf("query last_synced_at = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, testCreds)
	_, err := g.Do(context.Background(), Request{
		Endpoint:   UpdateOrder,
		PathParams: map[string]string{"id": "abc-123"},
		Query:      url.Values{"last_synced_at": {"2026-01-02T00:00:00Z"}},
		Body:       map[string]string{"status": "ready"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}
