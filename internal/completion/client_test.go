package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteSuccess(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Fatalf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Fatalf("anthropic-version = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"## Executive Summary\nSteady week."}]}`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL}
	got, err := client.Complete(context.Background(), "weekly context")
	if err != nil {
		t.Fatal(err)
	}
	if got != "## Executive Summary\nSteady week." {
		t.Fatalf("completion = %q", got)
	}

	msgs, ok := gotBody["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("messages payload: %#v", gotBody["messages"])
	}
	if gotBody["max_tokens"] != float64(maxTokens) {
		t.Fatalf("max_tokens = %v", gotBody["max_tokens"])
	}
}

func TestCompleteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL}
	_, err := client.Complete(context.Background(), "context")
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if cerr.Status != http.StatusTooManyRequests || cerr.Message != "rate limited" {
		t.Fatalf("error = %#v", cerr)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL}
	if _, err := client.Complete(context.Background(), "context"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL}
	var cerr *Error
	if _, err := client.Complete(context.Background(), "context"); !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := &Client{}
	_, err := client.Complete(context.Background(), "context")
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestCompleteUnreachable(t *testing.T) {
	client := &Client{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"}
	_, err := client.Complete(context.Background(), "context")
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
}
