package recipe

import (
	"fmt"
	"strings"
)

// IncompleteError is returned by Validate when required fields are missing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("recipe is missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Validate accepts a record only if it has a name, at least one ingredient and
// at least one instruction. Description, cooking time and tips are optional.
func Validate(r *Recipe) error {
	if r == nil {
		return &IncompleteError{Missing: []string{"recipeName", "ingredients", "instructions"}}
	}

	var missing []string
	if strings.TrimSpace(r.RecipeName) == "" {
		missing = append(missing, "recipeName")
	}
	if len(r.Ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(r.Instructions) == 0 {
		missing = append(missing, "instructions")
	}
	if len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}
