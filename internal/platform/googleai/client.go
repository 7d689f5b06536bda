// Package googleai adapts the Google Gen AI SDK to the recipe generation
// interfaces: search-grounded recipe text and Imagen recipe photos.
//
// This package uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
package googleai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

// NewClient creates a Gen AI client for the Gemini API backend.
// If apiKey is empty, the SDK falls back to GOOGLE_API_KEY or GEMINI_API_KEY.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gen AI client: %w", err)
	}
	return client, nil
}

// contentGenerator is the subset of *genai.Models used for text.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// imageGenerator is the subset of *genai.Models used for images.
type imageGenerator interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}
