package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// -- MemLedger --

func TestMemLedger_RegisterAndCanAccess(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	if err := l.Register(ctx, "c1", "0xowner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := l.CanAccess(ctx, "c1", "0xowner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected owner to have access immediately after register")
	}

	ok, _ = l.CanAccess(ctx, "c1", "0xother")
	if ok {
		t.Error("expected unrelated address to be denied")
	}
}

func TestMemLedger_RegisterIsOwnerIdempotent(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	l.Register(ctx, "c1", "0xowner")
	if err := l.Register(ctx, "c1", "0xowner"); err != nil {
		t.Errorf("re-registration by owner should succeed, got %v", err)
	}
	if err := l.Register(ctx, "c1", "0xattacker"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for re-registration by non-owner, got %v", err)
	}
}

func TestMemLedger_GrantRevoke(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	l.Register(ctx, "c1", "0xowner")

	ok, _ := l.CanAccess(ctx, "c1", "0xdoctor")
	if ok {
		t.Fatal("expected no access before grant")
	}

	if err := l.Grant(ctx, "c1", "0xowner", "0xdoctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ = l.CanAccess(ctx, "c1", "0xdoctor")
	if !ok {
		t.Error("expected access after grant")
	}

	if err := l.Revoke(ctx, "c1", "0xowner", "0xdoctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ = l.CanAccess(ctx, "c1", "0xdoctor")
	if ok {
		t.Error("expected no access after revoke")
	}

	// Owner keeps access regardless of the allow-list.
	ok, _ = l.CanAccess(ctx, "c1", "0xowner")
	if !ok {
		t.Error("expected owner access after revoke of another address")
	}
}

func TestMemLedger_GrantNotOwner(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	l.Register(ctx, "c1", "0xowner")

	if err := l.Grant(ctx, "c1", "0xmallory", "0xdoctor"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMemLedger_RevokeNeverGranted(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	l.Register(ctx, "c1", "0xowner")

	if err := l.Revoke(ctx, "c1", "0xowner", "0xdoctor"); !errors.Is(err, ErrNotGranted) {
		t.Errorf("expected ErrNotGranted, got %v", err)
	}
}

func TestMemLedger_AllowList(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	l.Register(ctx, "c1", "0xowner")
	l.Grant(ctx, "c1", "0xowner", "0xb")
	l.Grant(ctx, "c1", "0xowner", "0xa")
	l.Grant(ctx, "c1", "0xowner", "0xa") // idempotent

	addrs, err := l.AllowList(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != "0xa" || addrs[1] != "0xb" {
		t.Errorf("expected sorted [0xa 0xb], got %v", addrs)
	}
}

// -- HTTPClient --

func TestHTTPClient_GrantCommitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tx" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"status":"committed","txId":"tx-1"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, "")
	if err := c.Grant(context.Background(), "c1", "0xowner", "0xdoctor"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHTTPClient_SenderKey(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		if r.URL.Path == "/query/can-access" {
			fmt.Fprint(w, `{"allowed":true}`)
			return
		}
		fmt.Fprint(w, `{"status":"committed"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, "gateway-key")
	if err := c.Register(context.Background(), "c1", "0xowner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.CanAccess(context.Background(), "c1", "0xowner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, auth := range gotAuth {
		if auth != "Bearer gateway-key" {
			t.Errorf("call %d: expected bearer sender key, got %q", i, auth)
		}
	}

	gotAuth = nil
	anon := NewHTTPClient(srv.URL, time.Second, "")
	if err := anon.Register(context.Background(), "c1", "0xowner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth[0] != "" {
		t.Errorf("expected no authorization header without a sender key, got %q", gotAuth[0])
	}
}

func TestHTTPClient_RevertMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"UNAUTHORIZED", ErrUnauthorized},
		{"NOT_GRANTED", ErrNotGranted},
		{"REVERTED", ErrRejected},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprintf(w, `{"status":"reverted","code":"%s"}`, tt.code)
		}))
		c := NewHTTPClient(srv.URL, time.Second, "")
		err := c.Revoke(context.Background(), "c1", "0xowner", "0xdoctor")
		if !errors.Is(err, tt.want) {
			t.Errorf("code %s: expected %v, got %v", tt.code, tt.want, err)
		}
		srv.Close()
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"status":"committed"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 20*time.Millisecond, "")
	err := c.Register(context.Background(), "c1", "0xowner")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestHTTPClient_CanAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/can-access" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		allowed := r.URL.Query().Get("address") == "0xdoctor"
		fmt.Fprintf(w, `{"allowed":%t}`, allowed)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, "")
	ok, err := c.CanAccess(context.Background(), "c1", "0xdoctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected allowed=true for 0xdoctor")
	}

	ok, _ = c.CanAccess(context.Background(), "c1", "0xother")
	if ok {
		t.Error("expected allowed=false for 0xother")
	}
}

func TestHTTPClient_Unavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", 100*time.Millisecond, "")
	if err := c.Grant(context.Background(), "c1", "0xowner", "0xdoctor"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
