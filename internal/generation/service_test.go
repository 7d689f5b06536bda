package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipegenius/internal/recipe"
)

func TestService_GenerateRecipe(t *testing.T) {
	text := &fakeText{recipe: pancakes()}
	svc := NewService(text, &fakeImage{}, time.Second, nil)

	r, err := svc.GenerateRecipe(context.Background(), recipe.Request{Ingredients: "egg, flour, milk"})
	require.NoError(t, err)

	assert.Equal(t, "Simple Pancakes", r.RecipeName)
	assert.Equal(t, []string{"2 eggs", "1 cup flour", "1 cup milk"}, r.Ingredients)
	assert.Empty(t, r.ImageURL)
	assert.Equal(t, "egg, flour, milk", text.received[0].Ingredients)
}

func TestService_GenerateRecipe_NoInput(t *testing.T) {
	text := &fakeText{recipe: pancakes()}
	svc := NewService(text, &fakeImage{}, time.Second, nil)

	_, err := svc.GenerateRecipe(context.Background(), recipe.Request{Ingredients: "  "})

	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, 0, text.Calls(), "no remote call for empty input")
}

func TestService_GenerateRecipe_RemoteError(t *testing.T) {
	svc := NewService(&fakeText{err: errors.New("quota exceeded")}, &fakeImage{}, time.Second, nil)

	_, err := svc.GenerateRecipe(context.Background(), recipe.Request{Ingredients: "egg"})

	assert.ErrorIs(t, err, ErrNoReply)
	assert.NotErrorIs(t, err, ErrMalformedReply)
}

func TestService_GenerateRecipe_OnlyNameIsRejected(t *testing.T) {
	partial := recipe.ParseSections("## RECIPE NAME\nMystery Dish")
	svc := NewService(&fakeText{recipe: partial}, &fakeImage{}, time.Second, nil)

	r, err := svc.GenerateRecipe(context.Background(), recipe.Request{Ingredients: "egg"})

	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrMalformedReply)
	var incomplete *recipe.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{"ingredients", "instructions"}, incomplete.Missing)
}

func TestService_GenerateRecipe_Timeout(t *testing.T) {
	text := &fakeText{recipe: pancakes(), block: make(chan struct{})}
	svc := NewService(text, &fakeImage{}, 20*time.Millisecond, nil)

	_, err := svc.GenerateRecipe(context.Background(), recipe.Request{Ingredients: "egg"})

	assert.ErrorIs(t, err, ErrNoReply)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_GenerateRecipeImage(t *testing.T) {
	img := &fakeImage{url: "data:image/jpeg;base64,AAAA"}
	svc := NewService(&fakeText{}, img, time.Second, nil)

	url, err := svc.GenerateRecipeImage(context.Background(), "Simple Pancakes", "Fluffy breakfast pancakes.")
	require.NoError(t, err)

	assert.Equal(t, "data:image/jpeg;base64,AAAA", url)
	require.Len(t, img.prompts, 1)
	assert.Contains(t, img.prompts[0], "Simple Pancakes")
	assert.Contains(t, img.prompts[0], "Fluffy breakfast pancakes.")
}

func TestService_GenerateRecipeImage_Errors(t *testing.T) {
	svc := NewService(&fakeText{}, &fakeImage{err: errors.New("boom")}, time.Second, nil)
	_, err := svc.GenerateRecipeImage(context.Background(), "Soup", "")
	assert.ErrorIs(t, err, ErrImageFailed)

	svc = NewService(&fakeText{}, &fakeImage{}, time.Second, nil)
	_, err = svc.GenerateRecipeImage(context.Background(), "Soup", "")
	assert.ErrorIs(t, err, ErrImageFailed, "empty reference is a failure")

	_, err = svc.GenerateRecipeImage(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrImageFailed)
}
