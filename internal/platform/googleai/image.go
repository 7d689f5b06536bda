package googleai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// ImageStore hosts generated images and returns a public URL.
type ImageStore interface {
	SaveImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ImageClient generates recipe photos with Imagen.
type ImageClient struct {
	models imageGenerator
	model  string
	store  ImageStore
	logger *slog.Logger
}

// NewImageClient creates an ImageClient. With a nil store, images are
// returned inline as data URIs.
func NewImageClient(client *genai.Client, model string, store ImageStore, logger *slog.Logger) *ImageClient {
	return newImageClient(client.Models, model, store, logger)
}

func newImageClient(models imageGenerator, model string, store ImageStore, logger *slog.Logger) *ImageClient {
	if model == "" {
		model = DefaultImageModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageClient{models: models, model: model, store: store, logger: logger}
}

// GenerateImage returns a reference to a single generated JPEG.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "16:9",
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0] == nil ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", errors.New("no image in response")
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if c.store != nil {
		url, err := c.store.SaveImage(ctx, img.ImageBytes, mimeType)
		if err == nil {
			return url, nil
		}
		c.logger.WarnContext(ctx, "failed to host generated image, returning inline data", "error", err)
	}

	return DataURI(mimeType, img.ImageBytes), nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
