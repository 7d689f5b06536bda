package recipe

import (
	"bytes"
	"strings"
	"text/template"
)

// NoTextInput stands in for the ingredient list when only a photo was sent.
const NoTextInput = "no text input"

// Prompt is the provider-neutral request payload. Adapters send the image part
// (when present) before the text part.
type Prompt struct {
	Image *Image
	Text  string
}

var sectionsTemplate = template.Must(template.New("sections").Parse(
	`You are a helpful recipe assistant. Find the best and most popular recipe based on the following ingredients (from text and/or an image): {{.Ingredients}}. Analyze the image if provided.
{{- if .DietaryPreference}} The recipe should be {{.DietaryPreference}}.{{end}}
{{- if .Cuisine}} The recipe should be {{.Cuisine}} cuisine.{{end}}

Please structure your response with the following sections, each on a new line and exactly as written:
## RECIPE NAME
## DESCRIPTION
## COOKING TIME
## INGREDIENTS
(as a bulleted list starting with *)
## INSTRUCTIONS
(as a numbered list starting with 1.)
## CHEF'S TIPS
(as a bulleted list starting with *)
`))

var jsonTemplate = template.Must(template.New("json").Parse(
	`You are a helpful recipe assistant. Create the best recipe you can from the following ingredients (from text and/or an image): {{.Ingredients}}. Analyze the image if provided.
{{- if .DietaryPreference}} The recipe should be {{.DietaryPreference}}.{{end}}
{{- if .Cuisine}} The recipe should be {{.Cuisine}} cuisine.{{end}}
Return a single JSON object with the keys 'recipeName' (string), 'description' (string), 'cookingTime' (string), 'ingredients' (array of strings, one ingredient with quantity each), 'instructions' (array of strings, one step each, without numbering) and 'chefTips' (array of strings).`))

type promptData struct {
	Ingredients       string
	DietaryPreference string
	Cuisine           string
}

func newPromptData(req Request) promptData {
	ingredients := req.Ingredients
	if strings.TrimSpace(ingredients) == "" {
		ingredients = NoTextInput
	}
	return promptData{
		Ingredients:       ingredients,
		DietaryPreference: strings.TrimSpace(req.DietaryPreference),
		Cuisine:           strings.TrimSpace(req.Cuisine),
	}
}

func render(t *template.Template, req Request) Prompt {
	var buf bytes.Buffer
	// The templates are static and promptData only holds strings, so Execute
	// cannot fail here.
	_ = t.Execute(&buf, newPromptData(req))
	return Prompt{Image: req.Image, Text: buf.String()}
}

// BuildPrompt returns the six-section markdown prompt for req.
func BuildPrompt(req Request) Prompt {
	return render(sectionsTemplate, req)
}

// BuildJSONPrompt returns the prompt used with schema-constrained output.
func BuildJSONPrompt(req Request) Prompt {
	return render(jsonTemplate, req)
}

// ImagePrompt builds the food photography prompt for the second phase.
func ImagePrompt(name, description string) string {
	prompt := "A delicious, professional food photography shot of " + strings.TrimSpace(name) + "."
	if d := strings.TrimSpace(description); d != "" {
		prompt += " " + d
	}
	return prompt + " Natural lighting, shallow depth of field, beautifully plated, high resolution."
}
