package generation

import (
	"context"
	"sync"

	"recipegenius/internal/recipe"
)

// fakeText is a TextProvider returning a fixed recipe or error.
type fakeText struct {
	mu       sync.Mutex
	recipe   *recipe.Recipe
	err      error
	calls    int
	received []recipe.Request
	// block, when set, makes GenerateRecipe wait for it or for ctx.
	block chan struct{}
}

func (f *fakeText) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	f.mu.Lock()
	f.calls++
	f.received = append(f.received, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.recipe.Clone(), nil
}

func (f *fakeText) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeImage is an ImageProvider returning a fixed URL or error.
type fakeImage struct {
	mu      sync.Mutex
	url     string
	err     error
	prompts []string
	// started is closed on the first call; release gates the reply.
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *fakeImage) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func pancakes() *recipe.Recipe {
	return &recipe.Recipe{
		RecipeName:   "Simple Pancakes",
		Description:  "Fluffy breakfast pancakes.",
		CookingTime:  "20 minutes",
		Ingredients:  []string{"2 eggs", "1 cup flour", "1 cup milk"},
		Instructions: []string{"Mix ingredients.", "Cook on a griddle."},
		ChefTips:     []string{"Use medium heat."},
	}
}

// scriptedGenerator lets a test hand out different recipes per call.
type scriptedGenerator struct {
	mu      sync.Mutex
	recipes []*recipe.Recipe
	url     string
}

func (g *scriptedGenerator) GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.recipes[0]
	g.recipes = g.recipes[1:]
	return r, nil
}

func (g *scriptedGenerator) GenerateRecipeImage(ctx context.Context, name, description string) (string, error) {
	return g.url + "/" + name, nil
}
