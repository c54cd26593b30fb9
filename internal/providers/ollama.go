package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
	// maxErrorBody caps how much of a failed response is read for the message.
	maxErrorBody = 4096
)

// Ollama implements Generator against an Ollama server's native API.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model           string  `json:"model"`
	Response        *string `json:"response"`
	Done            bool    `json:"done"`
	Error           string  `json:"error"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	} `json:"models"`
}

// NewOllama creates a new Ollama provider.
func NewOllama(opts Options) (*Ollama, error) {
	if opts.Model == "" {
		return nil, errors.New("ollama: model is required")
	}
	baseURL, err := NormalizeEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	client := &http.Client{}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	return &Ollama{
		model:   opts.Model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// NormalizeEndpoint turns the accepted endpoint spellings into a base URL
// without a trailing slash. "localhost:11434", "http://localhost:11434/",
// ".../api" and ".../api/generate" all name the same server.
func NormalizeEndpoint(endpoint string) (string, error) {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		return "", errors.New("ollama: endpoint is required")
	}
	if !strings.Contains(ep, "://") {
		ep = "http://" + ep
	}
	ep = strings.TrimRight(ep, "/")
	ep = strings.TrimSuffix(ep, generatePath)
	ep = strings.TrimSuffix(ep, "/api")

	u, err := url.Parse(ep)
	if err != nil {
		return "", fmt.Errorf("ollama: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("ollama: invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("ollama: invalid endpoint %q: missing host", endpoint)
	}
	return ep, nil
}

func (o *Ollama) Name() string { return "ollama" }

// Model returns the model identifier sent with every request.
func (o *Ollama) Model() string { return o.model }

// Generate sends one prompt and blocks until the completion is done. The
// request asks for a single JSON object, but newline-delimited chunks are
// also accepted and concatenated.
func (o *Ollama) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	})
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := o.baseURL + generatePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, &NetworkError{URL: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return GenerateResponse{}, &ServiceError{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	return decodeGenerate(endpoint, httpResp.Body)
}

func decodeGenerate(endpoint string, body io.Reader) (GenerateResponse, error) {
	dec := json.NewDecoder(body)
	var (
		text   strings.Builder
		resp   GenerateResponse
		chunks int
		done   bool
	)
	for !done {
		var chunk ollamaGenerateResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return GenerateResponse{}, classifyReadError(endpoint, err)
		}
		chunks++
		if chunk.Error != "" {
			return GenerateResponse{}, &ServiceError{Message: chunk.Error}
		}
		if chunk.Response == nil {
			return GenerateResponse{}, &ServiceError{Message: `response object has no "response" field`}
		}
		text.WriteString(*chunk.Response)
		if chunk.Model != "" {
			resp.Model = chunk.Model
		}
		if chunk.Done {
			resp.TokensUsed = chunk.PromptEvalCount + chunk.EvalCount
			done = true
		}
	}

	switch {
	case chunks == 0:
		return GenerateResponse{}, &ServiceError{Message: "empty response body"}
	case chunks > 1 && !done:
		return GenerateResponse{}, &ServiceError{Message: "stream ended before completion"}
	}

	resp.Content = strings.TrimSpace(text.String())
	return resp, nil
}

// ListModels returns the models installed on the server.
func (o *Ollama) ListModels(ctx context.Context) ([]ModelInfo, error) {
	endpoint := o.baseURL + tagsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &ServiceError{StatusCode: httpResp.StatusCode, Message: errorMessage(body)}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&tags); err != nil {
		return nil, classifyReadError(endpoint, err)
	}

	models := make([]ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, ModelInfo{Name: m.Name, Size: m.Size})
	}
	return models, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "no response body"
	}
	return msg
}
