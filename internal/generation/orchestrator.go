package generation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"recipegenius/internal/recipe"
)

// State is a step of the two-phase generation flow.
type State string

const (
	StateIdle            State = "idle"
	StateGeneratingText  State = "generating_text"
	StateTextReady       State = "text_ready"
	StateGeneratingImage State = "generating_image"
	StateComplete        State = "complete"
	StateFailed          State = "failed"
)

// Snapshot is what observers see. Recipe must be treated as read-only.
type Snapshot struct {
	GenerationID uint64         `json:"generationId"`
	State        State          `json:"state"`
	Loading      bool           `json:"loading"`
	Recipe       *recipe.Recipe `json:"recipe,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Terminal reports whether no further update will follow for this generation.
func (s Snapshot) Terminal() bool {
	switch s.State {
	case StateIdle, StateComplete, StateFailed:
		return true
	}
	return false
}

// Generator is the pair of remote steps the orchestrator sequences.
// *Service implements it.
type Generator interface {
	GenerateRecipe(ctx context.Context, req recipe.Request) (*recipe.Recipe, error)
	GenerateRecipeImage(ctx context.Context, name, description string) (string, error)
}

var _ Generator = (*Service)(nil)

// Orchestrator drives one session's generations. Each Start supersedes the
// previous generation: its context is cancelled and any result it still
// produces is discarded. When the image phase fails the text-only recipe stays
// exposed alongside the failure message.
type Orchestrator struct {
	gen    Generator
	logger *slog.Logger

	mu      sync.Mutex
	latest  uint64
	snap    Snapshot
	cancel  context.CancelFunc
	changed chan struct{}
	subs    map[int]chan Snapshot
	nextSub int
}

// NewOrchestrator creates an idle Orchestrator.
func NewOrchestrator(gen Generator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		gen:     gen,
		logger:  logger,
		snap:    Snapshot{State: StateIdle},
		changed: make(chan struct{}),
		subs:    make(map[int]chan Snapshot),
	}
}

// Start begins a new generation in the background and returns its id. The
// flow is detached from ctx cancellation but keeps its values.
func (o *Orchestrator) Start(ctx context.Context, req recipe.Request) (uint64, error) {
	id, runCtx, cancel, err := o.begin(ctx, req)
	if err != nil {
		return 0, err
	}
	go func() {
		defer cancel()
		o.run(runCtx, id, req)
	}()
	return id, nil
}

// Run performs a generation synchronously and returns the resulting snapshot.
// If a newer generation started meanwhile, the newer snapshot is returned.
func (o *Orchestrator) Run(ctx context.Context, req recipe.Request) (Snapshot, error) {
	id, runCtx, cancel, err := o.begin(ctx, req)
	if err != nil {
		return o.Snapshot(), err
	}
	defer cancel()
	o.run(runCtx, id, req)
	return o.Snapshot(), nil
}

func (o *Orchestrator) begin(ctx context.Context, req recipe.Request) (uint64, context.Context, context.CancelFunc, error) {
	if req.Empty() {
		return 0, nil, nil, ErrNoInput
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.latest++
	id := o.latest

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.cancel = cancel

	o.publishLocked(Snapshot{GenerationID: id, State: StateGeneratingText, Loading: true})
	o.logger.DebugContext(ctx, "generation started", "generation_id", id)

	return id, runCtx, cancel, nil
}

func (o *Orchestrator) run(ctx context.Context, id uint64, req recipe.Request) {
	r, err := o.gen.GenerateRecipe(ctx, req)
	if err != nil {
		message := UserMessage
		if errors.Is(err, ErrNoInput) {
			message = InputMessage
		}
		o.update(ctx, id, func(s *Snapshot) {
			s.State = StateFailed
			s.Loading = false
			s.Recipe = nil
			s.Error = message
		})
		return
	}

	exposed := r.Clone()
	exposed.ImageURL = ""
	if !o.update(ctx, id, func(s *Snapshot) {
		s.State = StateTextReady
		s.Loading = false
		s.Recipe = exposed
	}) {
		return
	}

	if !o.update(ctx, id, func(s *Snapshot) { s.State = StateGeneratingImage }) {
		return
	}

	url, err := o.gen.GenerateRecipeImage(ctx, r.RecipeName, r.Description)
	if err != nil {
		o.update(ctx, id, func(s *Snapshot) {
			s.State = StateFailed
			s.Error = UserMessage
		})
		return
	}

	o.update(ctx, id, func(s *Snapshot) {
		merged := s.Recipe.Clone()
		merged.ImageURL = url
		s.Recipe = merged
		s.State = StateComplete
	})
}

// update applies fn to the current snapshot if generation id is still the
// latest one and reports whether it did.
func (o *Orchestrator) update(ctx context.Context, id uint64, fn func(*Snapshot)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if id != o.latest {
		o.logger.DebugContext(ctx, "discarding stale generation result",
			"generation_id", id,
			"latest_generation_id", o.latest)
		return false
	}

	next := o.snap
	fn(&next)
	o.publishLocked(next)

	o.logger.DebugContext(ctx, "generation state changed",
		"generation_id", id,
		"state", string(next.State))
	return true
}

// publishLocked stores s and fans it out. Each subscriber channel holds at
// most one pending snapshot, always the newest.
func (o *Orchestrator) publishLocked(s Snapshot) {
	o.snap = s
	for _, ch := range o.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
	close(o.changed)
	o.changed = make(chan struct{})
}

// Snapshot returns the current exposed state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.snap
	s.Recipe = s.Recipe.Clone()
	return s
}

// Subscribe returns a channel that first yields the current snapshot and then
// every later one. Call cancel to stop receiving.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Snapshot, 1)
	ch <- o.snap
	key := o.nextSub
	o.nextSub++
	o.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if _, ok := o.subs[key]; ok {
				delete(o.subs, key)
				close(ch)
			}
		})
	}
}

// Wait blocks until generation id reaches a terminal state or is superseded.
func (o *Orchestrator) Wait(ctx context.Context, id uint64) (Snapshot, error) {
	for {
		o.mu.Lock()
		s := o.snap
		changed := o.changed
		o.mu.Unlock()

		if s.GenerationID != id || s.Terminal() {
			s.Recipe = s.Recipe.Clone()
			return s, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Busy reports whether a generation is in flight or anyone is observing.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.snap.Terminal() || len(o.subs) > 0
}

// Close cancels any in-flight generation and ends all subscriptions.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	for key, ch := range o.subs {
		delete(o.subs, key)
		close(ch)
	}
}
