package recipe

import (
	"regexp"
	"strings"
)

// Section headings the prompt asks the model to emit, in order.
const (
	SectionRecipeName   = "RECIPE NAME"
	SectionDescription  = "DESCRIPTION"
	SectionCookingTime  = "COOKING TIME"
	SectionIngredients  = "INGREDIENTS"
	SectionInstructions = "INSTRUCTIONS"
	SectionChefTips     = "CHEF'S TIPS"
)

// Sections lists the headings in the order they must appear in a reply.
var Sections = []string{
	SectionRecipeName,
	SectionDescription,
	SectionCookingTime,
	SectionIngredients,
	SectionInstructions,
	SectionChefTips,
}

// markerPattern matches one leading bullet ("*", "-") or numbering ("12.")
// marker. A marker must be followed by whitespace or end the line, so "1.5 cups"
// and "**Salt**" are content.
var markerPattern = regexp.MustCompile(`^\s*(?:[*-]|\d+\.)(?:\s+|$)`)

// StripMarker removes a single leading list marker and the whitespace around it.
// Markers that appear mid-line are left alone.
func StripMarker(line string) string {
	return markerPattern.ReplaceAllString(line, "")
}

// matchHeading reports whether line is a section heading ("## INGREDIENTS")
// and returns the section name plus any text trailing it on the same line.
func matchHeading(line string) (section, rest string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return "", "", false
	}
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	for _, name := range Sections {
		if strings.HasPrefix(body, name) {
			rest = strings.TrimSpace(body[len(name):])
			rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			return name, rest, true
		}
	}
	return "", "", false
}

// ParseSections converts a section-delimited reply into a Recipe. It never
// fails: unknown or missing sections leave the matching field empty and the
// caller decides through Validate whether that is fatal.
func ParseSections(text string) *Recipe {
	r := &Recipe{}
	var (
		current string
		scalar  *string
		list    *[]string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if section, rest, ok := matchHeading(line); ok {
			current = section
			scalar, list = nil, nil
			switch section {
			case SectionRecipeName:
				scalar = &r.RecipeName
			case SectionDescription:
				scalar = &r.Description
			case SectionCookingTime:
				scalar = &r.CookingTime
			case SectionIngredients:
				r.Ingredients = []string{}
				list = &r.Ingredients
			case SectionInstructions:
				r.Instructions = []string{}
				list = &r.Instructions
			case SectionChefTips:
				r.ChefTips = []string{}
				list = &r.ChefTips
			}
			if scalar != nil {
				*scalar = rest
			}
			continue
		}

		if current == "" || line == "" {
			continue
		}

		switch {
		case list != nil:
			if clean := StripMarker(line); clean != "" {
				*list = append(*list, clean)
			}
		case scalar != nil:
			if *scalar == "" {
				*scalar = line
			} else {
				*scalar += " " + line
			}
		}
	}

	return r
}
