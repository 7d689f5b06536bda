package generation

import "errors"

// Errors returned by the generation package. Callers outside the core only
// ever show UserMessage or InputMessage; the sentinels keep the distinction
// available to logs and tests.
var (
	// ErrNoInput is returned when neither ingredient text nor an image was supplied
	ErrNoInput = errors.New("no ingredients or image supplied")

	// ErrNoReply is returned when the text provider failed to produce a reply
	ErrNoReply = errors.New("text generation failed")

	// ErrMalformedReply is returned when a reply arrived but lacks required sections
	ErrMalformedReply = errors.New("reply is missing required recipe sections")

	// ErrImageFailed is returned when the image provider fails
	ErrImageFailed = errors.New("image generation failed")
)

const (
	// UserMessage is the single failure message shown for any remote or parse error.
	UserMessage = "Failed to generate a recipe or image. Please check your input or try again later."

	// InputMessage is shown when the caller supplied nothing to cook with.
	InputMessage = "Please enter some ingredients or upload an image."
)
