package taskgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quayside/quayside/internal/config"
)

// systemPrompt instructs the model to emit the outline grammar the
// parser understands: numbered items, dotted subtask paths, and a
// bracketed time estimate on every leaf.
const systemPrompt = `You are an assistant for quayside.app, a project management team.
You are given as input a project or task that a single person or a team
wants to take on. Divide the task into less than 5 subtasks and list them
hierarchically in the format where task 1 has subtasks 1.1, 1.2,...
and task 2 has subtasks 2.1, 2.2, 2.3,... and so forth and allow for
subtasks to have their own hierarchy in the format of 1.1.1, 1.1.2,
1.1.3,... and so forth. For each subtask without its own hierarchy,
provide a time estimation in minutes in square brackets with the label
"minutes". Do not give a minute range. Make sure that every task is on
one line after the number and has a time estimation. NEVER create new
paragraphs within a task or subtask.`

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

// NewClient builds a Generator from configuration.
func NewClient(cfg config.GeneratorConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateOutline implements Generator.
func (c *Client) GenerateOutline(ctx context.Context, name, description string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Project Name: %s\nProject Description: %s", name, description)},
		},
		Temperature: 0,
		MaxTokens:   1024,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("taskgen: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("taskgen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("taskgen: call generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("taskgen: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("taskgen: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("taskgen: generator error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("taskgen: generator returned %s", resp.Status)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("taskgen: generator returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
