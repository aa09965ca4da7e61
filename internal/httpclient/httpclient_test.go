package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
)

func TestDoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(201)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 10, 5)
	resp, err := c.Do(model.HTTPRequest{Method: "get", URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if resp.Headers["X-Test"] != "yes" {
		t.Fatalf("expected header to be captured, got %+v", resp.Headers)
	}
	if c.Spent() != 1 {
		t.Fatalf("expected spent=1, got %d", c.Spent())
	}
}

func TestDoBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := New(srv.URL, 50, 1)
	if _, err := c.Do(model.HTTPRequest{Method: "GET", URL: srv.URL}); err != nil {
		t.Fatalf("first request should succeed: %v", err)
	}
	if !c.Exhausted() {
		t.Fatal("expected client to report exhausted budget")
	}
	_, err := c.Do(model.HTTPRequest{Method: "GET", URL: srv.URL})
	if _, ok := err.(*scanerrors.RequestBudgetExhausted); !ok {
		t.Fatalf("expected RequestBudgetExhausted, got %v", err)
	}
}

func TestDoSyntheticFailure(t *testing.T) {
	c := New("http://127.0.0.1:0", 50, 5)
	resp, err := c.Do(model.HTTPRequest{Method: "GET", URL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("transport failures are not returned as errors: %v", err)
	}
	if resp.StatusCode != 599 {
		t.Fatalf("expected synthetic 599, got %d", resp.StatusCode)
	}
	if resp.Body == "" {
		t.Fatal("expected synthetic response body to explain the failure")
	}
}
