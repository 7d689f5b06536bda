package api

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"recipegenius/internal/recipe"
)

// errInvalidUpload marks problems with the uploaded photo itself.
var errInvalidUpload = errors.New("invalid image upload")

// allowedExtensions maps accepted upload file extensions to MIME types.
var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func allowedMIMEType(mimeType string) bool {
	for _, m := range allowedExtensions {
		if m == mimeType {
			return true
		}
	}
	return false
}

// readUpload loads a multipart file into an Image after checking its
// extension and size.
func readUpload(file *multipart.FileHeader, maxBytes int64) (*recipe.Image, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, ok := allowedExtensions[extension]
	if !ok {
		return nil, fmt.Errorf("%w: only JPEG, JPG, PNG and WEBP images are allowed", errInvalidUpload)
	}
	if file.Size > maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", errInvalidUpload, maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open file err: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image err: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", errInvalidUpload, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", errInvalidUpload)
	}

	return &recipe.Image{Data: data, MIMEType: mimeType}, nil
}

// decodeUpload converts a base64 image from a JSON body into an Image.
func decodeUpload(u recipe.UploadedImage, maxBytes int64) (*recipe.Image, error) {
	img, err := u.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidUpload, err)
	}
	if !allowedMIMEType(img.MIMEType) {
		return nil, fmt.Errorf("%w: unsupported image type %s", errInvalidUpload, img.MIMEType)
	}
	if int64(len(img.Data)) > maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", errInvalidUpload, maxBytes)
	}
	return img, nil
}

// downscale shrinks JPEG and PNG images wider than maxWidth, keeping the
// aspect ratio. Other formats are passed through.
func downscale(img *recipe.Image, maxWidth uint) (*recipe.Image, error) {
	if img.MIMEType != "image/jpeg" && img.MIMEType != "image/png" {
		return img, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", errInvalidUpload, err)
	}
	if maxWidth == 0 || uint(cfg.Width) <= maxWidth {
		return img, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", errInvalidUpload, err)
	}
	resized := resize.Resize(maxWidth, 0, decoded, resize.Lanczos3)

	var buf bytes.Buffer
	switch img.MIMEType {
	case "image/png":
		err = png.Encode(&buf, resized)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &recipe.Image{Data: buf.Bytes(), MIMEType: img.MIMEType}, nil
}
