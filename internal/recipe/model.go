package recipe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Recipe represents the structure of the generated recipe
type Recipe struct {
	RecipeName   string   `json:"recipeName"`
	Description  string   `json:"description"`
	CookingTime  string   `json:"cookingTime"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ChefTips     []string `json:"chefTips"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Sources      []Source `json:"sources,omitempty"`
}

// Source is a web citation returned by a search-grounded generation.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Clone returns a deep copy so exposed snapshots never share slices.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	c := *r
	c.Ingredients = append([]string(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	c.ChefTips = append([]string(nil), r.ChefTips...)
	c.Sources = append([]Source(nil), r.Sources...)
	return &c
}

// UnmarshalJSON implements the json.Unmarshaler interface for Recipe.
// Models in JSON mode still occasionally leave bullets or numbering in list
// entries, so the decoded record is normalized the same way parsed text is.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type Alias Recipe // Create an alias to avoid infinite recursion
	aux := (*Alias)(r)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	r.RecipeName = strings.TrimSpace(r.RecipeName)
	r.Description = strings.TrimSpace(r.Description)
	r.CookingTime = strings.TrimSpace(r.CookingTime)
	r.Ingredients = normalizeList(r.Ingredients)
	r.Instructions = normalizeList(r.Instructions)
	r.ChefTips = normalizeList(r.ChefTips)

	return nil
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := StripMarker(strings.TrimSpace(item)); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// Image is a single photo of ingredients attached to a request.
type Image struct {
	Data     []byte
	MIMEType string
}

// UploadedImage is the wire form of an Image as sent by the browser.
type UploadedImage struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mimeType"`
}

// Decode converts the base64 payload into an Image. A data URL prefix
// ("data:image/png;base64,") is tolerated.
func (u UploadedImage) Decode() (*Image, error) {
	payload := u.Base64
	if i := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	if u.MIMEType == "" {
		return nil, fmt.Errorf("image mime type is required")
	}
	return &Image{Data: data, MIMEType: u.MIMEType}, nil
}

// Request is everything the caller supplies for one generation.
type Request struct {
	Ingredients       string
	Image             *Image
	DietaryPreference string
	Cuisine           string
}

// Empty reports whether the request carries neither ingredient text nor an image.
func (r Request) Empty() bool {
	return strings.TrimSpace(r.Ingredients) == "" && (r.Image == nil || len(r.Image.Data) == 0)
}
