package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKeyPoolRotation(t *testing.T) {
	pool := NewKeyPool([]string{"a", "b", "c"})
	got := []string{}
	for i := 0; i < 5; i++ {
		key, err := pool.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, key)
	}
	want := []string{"a", "b", "c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestKeyPoolEmpty(t *testing.T) {
	pool := NewKeyPool(nil)
	if _, err := pool.Next(); err != ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func completionResponse(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(completionResponse("hello there")))
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "test-model", NewKeyPool([]string{"secret"}), 100)
	content, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "hello there" {
		t.Errorf("got %q", content)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header %q", gotAuth)
	}
}

func TestCompleteStripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("```json\n{\"a\":1}\n```")))
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "test-model", NewKeyPool([]string{"k"}), 100)
	content, err := client.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"a":1}` {
		t.Errorf("fence not stripped: %q", content)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "test-model", NewKeyPool([]string{"k"}), 100)
	if _, err := client.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestCompleteNoCredentials(t *testing.T) {
	client := NewLLMClient("http://127.0.0.1:1", "test-model", NewKeyPool(nil), 100)
	if _, err := client.Complete(context.Background(), CompletionRequest{}); err != ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestExtractBalancedJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose wrapped", `Sure! Here it is: {"a":{"b":2}} Hope that helps.`, `{"a":{"b":2}}`},
		{"brace in string", `{"reason":"use {x} carefully"} trailing`, `{"reason":"use {x} carefully"}`},
		{"escaped quote", `{"reason":"she said \"hi\" {ok}"}`, `{"reason":"she said \"hi\" {ok}"}`},
		{"unterminated", `{"a":1`, ""},
		{"no json", "no objects here", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractBalancedJSON(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
