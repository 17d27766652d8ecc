package faceapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient_RejectsBadURL(t *testing.T) {
	cases := []string{"", "ftp://example.com", "http://"}
	for _, raw := range cases {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("expected error for URL %q", raw)
		}
	}
}

func TestEmbed_ReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3],"det_score":0.92}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Embed(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}
	if len(res.Embedding) != 3 || res.DetScore != 0.92 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestEmbed_NoFaceIsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":null,"det_score":0}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	res, err := c.Embed(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("no-face must not error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestEmbed_DeadlineBecomesProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Embed(ctx, []byte("jpeg-bytes"))
	if !errors.Is(err, ErrProviderTimeout) {
		t.Errorf("expected ErrProviderTimeout, got %v", err)
	}
}

func TestEmbed_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.Embed(context.Background(), []byte("jpeg-bytes")); err == nil {
		t.Error("expected error on 500")
	}
}

func TestCheckLiveness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/liveness" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"live":false}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	live, err := c.CheckLiveness(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if live {
		t.Error("expected live=false")
	}
}
