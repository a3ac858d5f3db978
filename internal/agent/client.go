package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reslib/paper-metadata-api/internal/utils"
)

// DefaultSystemPrompt instructs the model to return bare JSON with the
// paper's title and authors, with light formatting cleanup.
const DefaultSystemPrompt = "You are a master document searcher. Extract the title and authors of the document. " +
	"Fix any formatting issues in the title (e.g., remove extra spaces, convert to title case, etc.). " +
	"Fix any formatting issues in the authors (e.g., remove extra spaces, convert to title case, remove brackets, etc.). " +
	"Your response must be a JSON object with the following format: " +
	`{"title": "<title>", "authors": ["<author1>", "<author2>", ...]}. ` +
	"Do not include any additional text or explanation."

// Config carries everything needed to talk to one chat-completions endpoint.
// There is no package-level client; construct one per configuration.
type Config struct {
	BaseURL      string // e.g. http://localhost:11434/v1 or https://api.openai.com/v1
	APIKey       string // optional, local endpoints don't need one
	Model        string
	SystemPrompt string
	Temperature  float64
	Timeout      time.Duration
}

// Client sends one document excerpt to the model and returns its raw reply.
// It never retries; every response must be treated as untrusted by callers.
type Client interface {
	Query(ctx context.Context, excerpt string) (string, error)
}

type chatClient struct {
	cfg    Config
	client *http.Client
	logger *utils.Logger
}

func NewClient(cfg Config, logger *utils.Logger) Client {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &chatClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

func (c *chatClient) Query(ctx context.Context, excerpt string) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: excerpt},
		},
		Temperature: c.cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ServiceError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ServiceError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("Agent response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Agent endpoint error", "status", resp.StatusCode, "body", string(body))
		return "", &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("agent endpoint returned status %d", resp.StatusCode)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &ModelBehaviorError{Reason: "response body is not valid JSON", Raw: string(body)}
	}

	if chatResp.Error != nil {
		return "", &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("agent error: %s", chatResp.Error.Message)}
	}

	if len(chatResp.Choices) == 0 {
		return "", &ModelBehaviorError{Reason: "no choices in response", Raw: string(body)}
	}

	content := chatResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &ModelBehaviorError{Reason: "empty completion content", Raw: string(body)}
	}

	return content, nil
}
