// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
)

// chatServer returns an httptest server that replies with the given content
// for every chat completion request.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want 2", len(req.Messages))
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: content}})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClientGenerateText(t *testing.T) {
	srv := chatServer(t, "hello shopper")
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-model"}, srv.Client())
	got, err := client.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "hello shopper" {
		t.Errorf("GenerateText() = %q, want %q", got, "hello shopper")
	}
}

func TestClientGenerateJSONStripsFences(t *testing.T) {
	srv := chatServer(t, "```json\n[\"electronics\", \"toys\"]\n```")
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-model"}, srv.Client())
	var cats []string
	if err := client.GenerateJSON(context.Background(), "system", "user", &cats); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if len(cats) != 2 || cats[0] != "electronics" || cats[1] != "toys" {
		t.Errorf("GenerateJSON() = %v, want [electronics toys]", cats)
	}
}

func TestClientRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "recovered"}})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-model", MaxRetries: 2}, srv.Client())
	got, err := client.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("GenerateText() = %q, want %q", got, "recovered")
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
}

func TestClientDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-model", MaxRetries: 3}, srv.Client())
	if _, err := client.GenerateText(context.Background(), "system", "user"); err == nil {
		t.Fatal("GenerateText() error = nil, want error")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestClientExhaustedRetriesReturnsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-model", MaxRetries: 1}, srv.Client())
	_, err := client.GenerateText(context.Background(), "system", "user")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("GenerateText() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestDecodeJSONReply(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr error
	}{
		{name: "plain array", text: `["a","b"]`, want: []string{"a", "b"}},
		{name: "fenced json", text: "```json\n[\"a\"]\n```", want: []string{"a"}},
		{name: "bare fence", text: "```\n[]\n```", want: []string{}},
		{name: "empty", text: "   ", wantErr: ErrEmptyResponse},
		{name: "garbage", text: "not json", wantErr: ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := decodeJSONReply(tt.text, &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("decodeJSONReply() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeJSONReply() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("decodeJSONReply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("decodeJSONReply()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
