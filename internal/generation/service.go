// Package generation sequences recipe text and image generation and exposes
// the result incrementally to observers.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recipegenius/internal/recipe"
)

// TextProvider produces a recipe record from a request. Implementations do
// not validate; Service does.
type TextProvider interface {
	GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error)
}

// ImageProvider turns a prompt into an image reference suitable for display.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Service is the caller-facing API of the core.
type Service struct {
	text    TextProvider
	images  ImageProvider
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a Service. A zero timeout leaves deadlines to the caller.
func NewService(text TextProvider, images ImageProvider, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{text: text, images: images, timeout: timeout, logger: logger}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// GenerateRecipe asks the text provider for a recipe and validates it.
func (s *Service) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	if req.Empty() {
		return nil, ErrNoInput
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	r, err := s.text.GenerateRecipe(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "recipe generation failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"has_image", req.Image != nil,
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrNoReply, err)
	}

	if err := recipe.Validate(r); err != nil {
		var incomplete *recipe.IncompleteError
		missing := []string{}
		if errors.As(err, &incomplete) {
			missing = incomplete.Missing
		}
		s.logger.WarnContext(ctx, "parsed recipe data is incomplete",
			"missing", strings.Join(missing, ","),
			"partial", r)
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	s.logger.InfoContext(ctx, "recipe generated",
		"recipe_name", r.RecipeName,
		"ingredients", len(r.Ingredients),
		"instructions", len(r.Instructions),
		"sources", len(r.Sources),
		"duration_ms", time.Since(start).Milliseconds())

	return r, nil
}

// GenerateRecipeImage generates an image for a recipe name and description.
func (s *Service) GenerateRecipeImage(ctx context.Context, name, description string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: recipe name is required", ErrImageFailed)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	url, err := s.images.GenerateImage(ctx, recipe.ImagePrompt(name, description))
	if err != nil {
		s.logger.ErrorContext(ctx, "recipe image generation failed",
			"recipe_name", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", fmt.Errorf("%w: %w", ErrImageFailed, err)
	}
	if url == "" {
		return "", fmt.Errorf("%w: empty image reference", ErrImageFailed)
	}

	s.logger.InfoContext(ctx, "recipe image generated",
		"recipe_name", name,
		"duration_ms", time.Since(start).Milliseconds())

	return url, nil
}
