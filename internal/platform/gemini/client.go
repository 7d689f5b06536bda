package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"recipegenius/internal/recipe"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// recipeSchema constrains the reply to the Recipe JSON shape.
var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recipeName":   {Type: genai.TypeString, Description: "Name of the dish"},
		"description":  {Type: genai.TypeString, Description: "One or two appetizing sentences"},
		"cookingTime":  {Type: genai.TypeString, Description: "Approximate total time, e.g. 45 minutes"},
		"ingredients":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"instructions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"chefTips":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"recipeName", "description", "cookingTime", "ingredients", "instructions", "chefTips"},
}

// Client is a client for the Gemini API producing schema-constrained recipes.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recipeSchema

	return &Client{client: client, model: model}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateRecipe generates a recipe from ingredient text and an optional photo.
func (c *Client) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	resp, err := c.model.GenerateContent(ctx, parts(recipe.BuildJSONPrompt(req))...)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	return decodeRecipe(text.String())
}

// parts orders the image part before the text instruction.
func parts(p recipe.Prompt) []genai.Part {
	out := make([]genai.Part, 0, 2)
	if p.Image != nil && len(p.Image.Data) > 0 {
		out = append(out, genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data})
	}
	return append(out, genai.Text(p.Text))
}

// decodeRecipe unmarshals the JSON object in a reply. Schema mode should
// return bare JSON, but a fenced block is tolerated.
func decodeRecipe(reply string) (*recipe.Recipe, error) {
	startIndex := strings.Index(reply, "{")
	endIndex := strings.LastIndex(reply, "}")

	if startIndex == -1 || endIndex == -1 || startIndex > endIndex {
		return nil, fmt.Errorf("could not find JSON object in response: %s", reply)
	}

	cleanJSON := reply[startIndex : endIndex+1]

	var r recipe.Recipe
	if err := json.Unmarshal([]byte(cleanJSON), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w. Raw response: %s", err, cleanJSON)
	}

	return &r, nil
}
