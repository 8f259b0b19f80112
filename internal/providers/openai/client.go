package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"

	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Organization string
	// HTTPClient is used as given; a nil value yields a client without a
	// timeout so calls are bounded only by the request context.
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the chat completions endpoint. The API key is supplied per
// request so callers can rotate credentials.
type Client struct {
	baseURL      string
	organization string
	httpClient   *http.Client
	logger       *infra.Logger
}

// ChatRequest is a single system+user completion call.
type ChatRequest struct {
	APIKey       string
	SystemPrompt string
	UserText     string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// ChatResponse is the normalized completion result.
type ChatResponse struct {
	Text  string
	Model string
}

// APIError describes a non-2xx response. It unwraps to one of the domain
// upstream errors when the status maps onto one.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("openai status %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("openai status %d: %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// NewClient constructs a Client with defaults applied.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   client,
		logger:       logger,
	}
}

// Generate performs one chat completion. Errors wrap domain.ErrRateLimited,
// domain.ErrTransport, domain.ErrModelNotFound or domain.ErrConfiguration
// where the failure can be classified.
func (c *Client) Generate(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", domain.ErrConfiguration)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	payload := chatRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserText},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(req.APIKey))
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug().
		Str("model", model).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("openai: chat completion")

	if resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai: no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.New("openai: empty response")
	}
	if out.Model == "" {
		out.Model = model
	}
	return &ChatResponse{Text: text, Model: out.Model}, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, kind: classifyStatus(resp.StatusCode)}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var parsed errorResponse
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		apiErr.Message = strings.TrimSpace(parsed.Error.Message)
		apiErr.Type = parsed.Error.Type
		if parsed.Error.Code != nil {
			apiErr.Code = fmt.Sprint(parsed.Error.Code)
		}
	}
	if apiErr.Code == "model_not_found" {
		apiErr.kind = domain.ErrModelNotFound
	}
	return apiErr
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status == http.StatusNotFound:
		return domain.ErrModelNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrConfiguration
	case status == http.StatusRequestTimeout || status >= 500:
		return domain.ErrTransport
	default:
		return nil
	}
}
