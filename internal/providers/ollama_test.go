package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestOllama(url string, client *http.Client) *Ollama {
	return &Ollama{
		model:   "llama3",
		baseURL: url,
		client:  client,
	}
}

func TestOllama_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("Path = %s, want /api/generate", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no Authorization header")
		}

		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "llama3" {
			t.Errorf("Model = %q, want llama3", req.Model)
		}
		if req.Prompt != "review this" {
			t.Errorf("Prompt = %q", req.Prompt)
		}
		if req.System != "be kind" {
			t.Errorf("System = %q", req.System)
		}
		if req.Stream {
			t.Error("Stream should be false")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","response":"\nLooks good.\n","done":true,"prompt_eval_count":12,"eval_count":3}`))
	}))
	defer server.Close()

	o := newTestOllama(server.URL, server.Client())
	resp, err := o.Generate(context.Background(), GenerateRequest{
		System: "be kind",
		Prompt: "review this",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "Looks good." {
		t.Errorf("Content = %q, want %q", resp.Content, "Looks good.")
	}
	if resp.Model != "llama3" {
		t.Errorf("Model = %q", resp.Model)
	}
	if resp.TokensUsed != 15 {
		t.Errorf("TokensUsed = %d, want 15", resp.TokensUsed)
	}
}

func TestOllama_GenerateStreamedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"response":"Line one","done":false}`+"\n")
		io.WriteString(w, `{"response":"\nline two","done":false}`+"\n")
		io.WriteString(w, `{"response":"","done":true,"eval_count":4}`+"\n")
	}))
	defer server.Close()

	o := newTestOllama(server.URL, server.Client())
	resp, err := o.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "Line one\nline two" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 4 {
		t.Errorf("TokensUsed = %d, want 4", resp.TokensUsed)
	}
}

func TestOllama_GenerateSingleObjectWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"ok"}`)
	}))
	defer server.Close()

	o := newTestOllama(server.URL, server.Client())
	resp, err := o.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
}

func TestOllama_GenerateServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"server error", 500, `{"error":"internal server error"}`, 500, "internal server error"},
		{"model not found", 404, `{"error":"model 'nope' not found"}`, 404, "model 'nope' not found"},
		{"plain text error", 502, "bad gateway", 502, "bad gateway"},
		{"malformed body", 200, "not json", 0, "decoding response"},
		{"empty body", 200, "", 0, "empty response body"},
		{"wrong shape", 200, `{"message":"hi"}`, 0, `no "response" field`},
		{"in-band error", 200, `{"error":"out of memory"}`, 0, "out of memory"},
		{"truncated stream", 200, "{\"response\":\"a\",\"done\":false}\n{\"response\":\"b\",\"done\":false}\n", 0, "before completion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			o := newTestOllama(server.URL, server.Client())
			_, err := o.Generate(context.Background(), GenerateRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("Expected error")
			}

			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("error = %T (%v), want *ServiceError", err, err)
			}
			if se.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantMsg)
			}
			// No retries.
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1", attempts)
			}
		})
	}
}

func TestOllama_GenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	o := newTestOllama(url, &http.Client{})
	_, err := o.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if !IsNetworkError(err) {
		t.Fatalf("error = %T (%v), want *NetworkError", err, err)
	}
	if IsServiceError(err) {
		t.Error("unreachable server should not be a service error")
	}
}

func TestOllama_GenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	o := newTestOllama(server.URL, &http.Client{Timeout: 50 * time.Millisecond})
	_, err := o.Generate(context.Background(), GenerateRequest{Prompt: "x"})

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %T (%v), want *NetworkError", err, err)
	}
	if !ne.Timeout() {
		t.Errorf("Timeout() = false for %v", err)
	}
}

func TestOllama_GenerateCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOllama(server.URL, server.Client())
	_, err := o.Generate(ctx, GenerateRequest{Prompt: "x"})
	if !IsNetworkError(err) {
		t.Fatalf("error = %T (%v), want *NetworkError", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled: %v", err)
	}
}

func TestOllama_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tags" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"models":[{"name":"llama3:latest","size":4661224676},{"name":"qwen2.5-coder:7b","size":4683087332}]}`)
	}))
	defer server.Close()

	o := newTestOllama(server.URL, server.Client())
	models, err := o.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Name != "llama3:latest" || models[0].Size != 4661224676 {
		t.Errorf("models[0] = %+v", models[0])
	}
	if models[1].Name != "qwen2.5-coder:7b" {
		t.Errorf("models[1] = %+v", models[1])
	}
}

func TestOllama_ListModelsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	o := newTestOllama(server.URL, server.Client())
	_, err := o.ListModels(context.Background())
	if !IsServiceError(err) {
		t.Fatalf("error = %T (%v), want *ServiceError", err, err)
	}
}

func TestOllama_Name(t *testing.T) {
	o := &Ollama{}
	if o.Name() != "ollama" {
		t.Errorf("Name() = %q, want %q", o.Name(), "ollama")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{"plain", "http://localhost:11434", "http://localhost:11434", false},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434", false},
		{"api suffix", "http://localhost:11434/api", "http://localhost:11434", false},
		{"generate path", "http://localhost:11434/api/generate", "http://localhost:11434", false},
		{"no scheme", "localhost:11434", "http://localhost:11434", false},
		{"custom host", "https://gpu-box.lan:8443/", "https://gpu-box.lan:8443", false},
		{"path prefix kept", "http://proxy/ollama/api/generate", "http://proxy/ollama", false},
		{"empty", "", "", true},
		{"bad scheme", "ftp://localhost:11434", "", true},
		{"no host", "http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEndpoint(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeEndpoint(%q) = %q, want error", tt.endpoint, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeEndpoint(%q) error: %v", tt.endpoint, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	g, err := New("ollama", Options{Endpoint: "localhost:11434", Model: "llama3", Timeout: time.Minute})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	o, ok := g.(*Ollama)
	if !ok {
		t.Fatalf("New returned %T, want *Ollama", g)
	}
	if o.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", o.baseURL)
	}
	if o.client.Timeout != time.Minute {
		t.Errorf("client timeout = %v, want 1m", o.client.Timeout)
	}
	if _, ok := g.(ModelLister); !ok {
		t.Error("Ollama should implement ModelLister")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("unknown", Options{Endpoint: "localhost:1", Model: "m"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
	if _, err := New("ollama", Options{Endpoint: "localhost:1"}); err == nil {
		t.Error("Expected error for missing model")
	}
	if _, err := New("ollama", Options{Model: "m"}); err == nil {
		t.Error("Expected error for missing endpoint")
	}
}
