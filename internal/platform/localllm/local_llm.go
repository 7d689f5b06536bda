package localllm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"recipegenius/internal/recipe"
)

// Defaults for an OpenAI-compatible server such as LM Studio.
const (
	DefaultURL   = "http://localhost:1234/v1/chat/completions"
	DefaultModel = "gemma-3-12b-it"
	// DefaultMaxTokens leaves room for all six recipe sections.
	DefaultMaxTokens = 4096
)

// Client is a client for a local chat-completions server.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
	maxTokens  int
}

// NewClient creates a new client for the local LLM. Empty or zero arguments
// select the defaults; a nil httpClient uses http.DefaultClient.
func NewClient(apiURL, model string, maxTokens int, httpClient *http.Client) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, apiURL: apiURL, model: model, maxTokens: maxTokens}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Message represents a message in the request.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content is one text or image item of a message.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an inline data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage represents a message in the response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateContent sends the prompt, with the image first when present, and
// returns the first choice's text.
func (c *Client) GenerateContent(ctx context.Context, text string, image *recipe.Image) (string, error) {
	content := make([]Content, 0, 2)
	if image != nil && len(image.Data) > 0 {
		content = append(content, Content{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL: "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data),
			},
		})
	}
	content = append(content, Content{Type: "text", Text: text})

	reqBody := Request{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: content}},
		Temperature: 1,
		MaxTokens:   c.maxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(llmResp.Choices) == 0 || strings.TrimSpace(llmResp.Choices[0].Message.Content) == "" {
		return "", errors.New("no content found in response")
	}
	return llmResp.Choices[0].Message.Content, nil
}

// GenerateRecipe asks for a six-section recipe and parses the reply.
func (c *Client) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	p := recipe.BuildPrompt(req)

	responseText, err := c.GenerateContent(ctx, p.Text, p.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return recipe.ParseSections(responseText), nil
}
