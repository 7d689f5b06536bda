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

var eggs = recipe.Request{Ingredients: "egg, flour, milk"}

func newTestOrchestrator(text *fakeText, img *fakeImage) *Orchestrator {
	return NewOrchestrator(NewService(text, img, time.Second, nil), nil)
}

func TestOrchestrator_InitialState(t *testing.T) {
	o := newTestOrchestrator(&fakeText{}, &fakeImage{})

	s := o.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Recipe)
	assert.True(t, s.Terminal())
}

func TestOrchestrator_RunComplete(t *testing.T) {
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, &fakeImage{url: "https://img/pancakes.jpg"})

	s, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, s.State)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	require.NotNil(t, s.Recipe)
	assert.Equal(t, "Simple Pancakes", s.Recipe.RecipeName)
	assert.Equal(t, "https://img/pancakes.jpg", s.Recipe.ImageURL)
	assert.Equal(t, uint64(1), s.GenerationID)
}

func TestOrchestrator_TwoPhaseExposure(t *testing.T) {
	img := &fakeImage{
		url:     "https://img/pancakes.jpg",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, img)

	id, err := o.Start(context.Background(), eggs)
	require.NoError(t, err)

	select {
	case <-img.started:
	case <-time.After(2 * time.Second):
		t.Fatal("image phase never started")
	}

	textOnly := o.Snapshot()
	assert.Equal(t, StateGeneratingImage, textOnly.State)
	assert.False(t, textOnly.Loading, "text-phase loading clears before the image phase")
	require.NotNil(t, textOnly.Recipe)
	assert.Empty(t, textOnly.Recipe.ImageURL)

	close(img.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, err := o.Wait(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, final.State)
	assert.Equal(t, textOnly.Recipe.RecipeName, final.Recipe.RecipeName)
	assert.Equal(t, textOnly.Recipe.Ingredients, final.Recipe.Ingredients)
	assert.Equal(t, textOnly.Recipe.Instructions, final.Recipe.Instructions)
	assert.Equal(t, "https://img/pancakes.jpg", final.Recipe.ImageURL)
}

func TestOrchestrator_TextFailure(t *testing.T) {
	img := &fakeImage{url: "https://img/x.jpg"}
	o := newTestOrchestrator(&fakeText{err: errors.New("unauthorized")}, img)

	s, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, UserMessage, s.Error)
	assert.Nil(t, s.Recipe)
	assert.False(t, s.Loading)
	assert.Empty(t, img.prompts, "image phase must not run")
}

func TestOrchestrator_ValidationFailureLooksLikeRemoteFailure(t *testing.T) {
	partial := recipe.ParseSections("## RECIPE NAME\nMystery Dish")
	o := newTestOrchestrator(&fakeText{recipe: partial}, &fakeImage{url: "u"})

	s, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, UserMessage, s.Error)
	assert.Nil(t, s.Recipe)
}

func TestOrchestrator_ImageFailureRetainsText(t *testing.T) {
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, &fakeImage{err: errors.New("imagen down")})

	s, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, UserMessage, s.Error)
	require.NotNil(t, s.Recipe)
	assert.Equal(t, "Simple Pancakes", s.Recipe.RecipeName)
	assert.Empty(t, s.Recipe.ImageURL)
}

func TestOrchestrator_EmptyInputLeavesStateAlone(t *testing.T) {
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, &fakeImage{url: "u"})
	_, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)
	before := o.Snapshot()

	_, err = o.Start(context.Background(), recipe.Request{})
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, before, o.Snapshot())
}

func TestOrchestrator_NewRequestClearsPrevious(t *testing.T) {
	text := &fakeText{recipe: pancakes()}
	o := newTestOrchestrator(text, &fakeImage{err: errors.New("boom")})

	_, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)
	require.Equal(t, StateFailed, o.Snapshot().State)

	text.mu.Lock()
	text.block = make(chan struct{})
	text.mu.Unlock()
	id, err := o.Start(context.Background(), eggs)
	require.NoError(t, err)

	s := o.Snapshot()
	assert.Equal(t, id, s.GenerationID)
	assert.Equal(t, StateGeneratingText, s.State)
	assert.True(t, s.Loading)
	assert.Nil(t, s.Recipe)
	assert.Empty(t, s.Error)
	o.Close()
}

func TestOrchestrator_StaleResultDiscarded(t *testing.T) {
	gen := &scriptedGenerator{
		recipes: []*recipe.Recipe{
			{RecipeName: "Fast", Ingredients: []string{"a"}, Instructions: []string{"b"}},
			{RecipeName: "Slow", Ingredients: []string{"a"}, Instructions: []string{"b"}},
		},
		url: "https://img",
	}
	o := NewOrchestrator(gen, nil)

	firstID, firstCtx, firstCancel, err := o.begin(context.Background(), eggs)
	require.NoError(t, err)
	defer firstCancel()

	second, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)
	require.Equal(t, "Fast", second.Recipe.RecipeName)
	assert.Error(t, firstCtx.Err(), "superseded generation is cancelled")

	// The first generation resolves late; nothing it produces may be exposed.
	o.run(firstCtx, firstID, eggs)

	s := o.Snapshot()
	assert.Equal(t, second.GenerationID, s.GenerationID)
	assert.Equal(t, StateComplete, s.State)
	assert.Equal(t, "Fast", s.Recipe.RecipeName)
	assert.Equal(t, "https://img/Fast", s.Recipe.ImageURL)
}

func TestOrchestrator_SupersededStartIsCancelled(t *testing.T) {
	text := &fakeText{recipe: pancakes(), block: make(chan struct{})}
	o := newTestOrchestrator(text, &fakeImage{url: "u"})

	first, err := o.Start(context.Background(), eggs)
	require.NoError(t, err)
	second, err := o.Start(context.Background(), eggs)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := o.Wait(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, second, s.GenerationID, "waiting on a superseded generation returns the newer one")

	close(text.block)
	s, err = o.Wait(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, s.State)
}

func TestOrchestrator_Subscribe(t *testing.T) {
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, &fakeImage{url: "https://img/p.jpg"})

	ch, cancel := o.Subscribe()
	first := <-ch
	assert.Equal(t, StateIdle, first.State)

	_, err := o.Run(context.Background(), eggs)
	require.NoError(t, err)

	latest := <-ch
	assert.Equal(t, StateComplete, latest.State, "slow observers see the newest snapshot")
	assert.True(t, o.Busy(), "an open subscription keeps the session busy")

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, o.Busy())
	cancel()
}

func TestOrchestrator_CloseEndsSubscriptions(t *testing.T) {
	o := newTestOrchestrator(&fakeText{recipe: pancakes()}, &fakeImage{url: "u"})
	ch, cancel := o.Subscribe()
	<-ch

	o.Close()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}
