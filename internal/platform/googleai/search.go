package googleai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"recipegenius/internal/recipe"
)

// SearchClient generates section-formatted recipes, optionally grounded with
// Google Search, and parses them into records.
type SearchClient struct {
	models    contentGenerator
	model     string
	grounding bool
}

// NewSearchClient creates a SearchClient. Grounding attaches the GoogleSearch
// tool and collects web citations into Recipe.Sources.
func NewSearchClient(client *genai.Client, model string, grounding bool) *SearchClient {
	return newSearchClient(client.Models, model, grounding)
}

func newSearchClient(models contentGenerator, model string, grounding bool) *SearchClient {
	if model == "" {
		model = DefaultTextModel
	}
	return &SearchClient{models: models, model: model, grounding: grounding}
}

// GenerateRecipe sends the six-section prompt and parses the reply.
func (c *SearchClient) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	p := recipe.BuildPrompt(req)

	contents := []*genai.Content{
		{Role: "user", Parts: parts(p)},
	}

	config := &genai.GenerateContentConfig{}
	if c.grounding {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty response from model")
	}

	r := recipe.ParseSections(text)
	if c.grounding {
		r.Sources = sources(resp)
	}
	return r, nil
}

// parts builds the inline image part (if any) followed by the text part.
func parts(p recipe.Prompt) []*genai.Part {
	out := make([]*genai.Part, 0, 2)
	if p.Image != nil && len(p.Image.Data) > 0 {
		out = append(out, &genai.Part{
			InlineData: &genai.Blob{
				Data:     p.Image.Data,
				MIMEType: p.Image.MIMEType,
			},
		})
	}
	return append(out, &genai.Part{Text: p.Text})
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// sources lists the web citations of the first candidate, skipping chunks
// without a web entry.
func sources(resp *genai.GenerateContentResponse) []recipe.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []recipe.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, recipe.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}
