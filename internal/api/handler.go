package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"recipegenius/internal/generation"
	"recipegenius/internal/recipe"
)

// SessionCookie names the cookie that ties a browser to its generation state.
const SessionCookie = "recipegenius_session"

// RecipeService produces recipe text and photos.
type RecipeService interface {
	GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error)
	GenerateRecipeImage(ctx context.Context, name, description string) (string, error)
}

// SessionStore hands out the orchestrator of a browser session.
type SessionStore interface {
	Get(id string) *generation.Orchestrator
}

// Options bounds uploads and session cookies.
type Options struct {
	MaxUploadBytes int64
	MaxImageWidth  uint
	SessionTTL     time.Duration
	SecureCookies  bool
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes  RecipeService
	Sessions SessionStore
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeService, sessions SessionStore, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &Handler{Recipes: recipes, Sessions: sessions, opts: opts, logger: logger}
}

// generateRequest is the JSON body of the generation endpoints.
type generateRequest struct {
	Ingredients       string `json:"ingredients" binding:"max=4000"`
	ImageBase64       string `json:"imageBase64"`
	ImageMIMEType     string `json:"imageMimeType" binding:"required_with=ImageBase64"`
	DietaryPreference string `json:"dietaryPreference" binding:"max=100"`
	Cuisine           string `json:"cuisine" binding:"max=100"`
}

// imageRequest is the JSON body of POST /recipes/image.
type imageRequest struct {
	RecipeName  string `json:"recipeName" binding:"required"`
	Description string `json:"description"`
}

// GenerateRecipe runs the text phase only and returns the recipe.
func (h *Handler) GenerateRecipe(c *gin.Context) {
	req, err := h.readRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.Recipes.GenerateRecipe(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// GenerateImage produces a photo for an already generated recipe.
func (h *Handler) GenerateImage(c *gin.Context) {
	var body imageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		msg := "request body must be valid JSON with a recipeName"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg = "recipeName is required"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	url, err := h.Recipes.GenerateRecipeImage(c.Request.Context(), body.RecipeName, body.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

// StartGeneration starts the two-phase flow for the caller's session.
func (h *Handler) StartGeneration(c *gin.Context) {
	req, err := h.readRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orch := h.Sessions.Get(h.sessionID(c))
	id, err := orch.Start(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	snap := orch.Snapshot()
	state := generation.StateGeneratingText
	if snap.GenerationID == id {
		state = snap.State
	}
	c.JSON(http.StatusAccepted, gin.H{"generationId": id, "state": state})
}

// CurrentGeneration returns the session's exposed state.
func (h *Handler) CurrentGeneration(c *gin.Context) {
	orch := h.Sessions.Get(h.sessionID(c))
	c.JSON(http.StatusOK, orch.Snapshot())
}

// Events streams the session's snapshots as Server-Sent Events until the
// client disconnects.
func (h *Handler) Events(c *gin.Context) {
	orch := h.Sessions.Get(h.sessionID(c))
	updates, cancel := orch.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError hides provider details behind the fixed user messages.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, generation.ErrNoInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": generation.InputMessage})
		return
	}
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		h.logger.InfoContext(c.Request.Context(), "client went away during generation")
		return
	}
	h.logger.ErrorContext(c.Request.Context(), "generation request failed",
		"path", c.FullPath(),
		"error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": generation.UserMessage})
}

// readRequest accepts either a JSON body with a base64 image or a multipart
// form with an optional "file" part.
func (h *Handler) readRequest(c *gin.Context) (recipe.Request, error) {
	// base64 inflates the payload by a third.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes*2+1<<20)

	var req recipe.Request
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form := generateRequest{
			Ingredients:       c.PostForm("ingredients"),
			DietaryPreference: firstNonEmpty(c.Query("dietary_preference"), c.PostForm("dietary_preference")),
			Cuisine:           firstNonEmpty(c.Query("cuisine"), c.PostForm("cuisine")),
		}
		if err := binding.Validator.ValidateStruct(&form); err != nil {
			return req, errors.New("form fields exceed the allowed length")
		}
		req = recipe.Request{
			Ingredients:       form.Ingredients,
			DietaryPreference: form.DietaryPreference,
			Cuisine:           form.Cuisine,
		}
		file, err := c.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return req, errors.New("could not read the uploaded form")
		default:
			img, err := readUpload(file, h.opts.MaxUploadBytes)
			if err != nil {
				return req, err
			}
			req.Image = img
		}
	} else {
		var body generateRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return req, errors.New("request body must be valid JSON with ingredients and/or an image")
		}
		req = recipe.Request{
			Ingredients:       body.Ingredients,
			DietaryPreference: body.DietaryPreference,
			Cuisine:           body.Cuisine,
		}
		if body.ImageBase64 != "" {
			img, err := decodeUpload(recipe.UploadedImage{Base64: body.ImageBase64, MIMEType: body.ImageMIMEType}, h.opts.MaxUploadBytes)
			if err != nil {
				return req, err
			}
			req.Image = img
		}
	}

	if req.Image != nil {
		img, err := downscale(req.Image, h.opts.MaxImageWidth)
		if err != nil {
			return req, err
		}
		req.Image = img
	}
	return req, nil
}

// sessionID returns the caller's session id, issuing a cookie when the
// request carries none or an unparseable one.
func (h *Handler) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.SecureCookies, true)
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
