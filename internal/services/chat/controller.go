package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/rs/zerolog/log"
)

// Controller owns a single conversation: its transcript, the unsent input and
// the busy flag. At most one backend request is outstanding at any time.
type Controller struct {
	mu           sync.Mutex
	backend      chat.Backend
	timeout      time.Duration
	transcript   []models.Turn
	pendingInput string
	busy         bool

	observers    map[int]func(models.Snapshot)
	nextObserver int
}

type Option func(*Controller)

// WithTimeout bounds each backend request. An expired request settles as a
// transport failure. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

func NewController(backend chat.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		observers: make(map[int]func(models.Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit queues rawText as a user turn and blocks until the backend request
// settles. It returns false, without touching state, when the trimmed text is
// empty or a request is already in flight.
func (c *Controller) Submit(ctx context.Context, rawText string) bool {
	question, ok := c.accept(rawText)
	if !ok {
		return false
	}

	c.settle(ctx, question)
	return true
}

// Dispatch is Submit with the settlement running in its own goroutine. The
// returned channel is closed once the assistant turn has been appended; it is
// nil when the submission was rejected.
func (c *Controller) Dispatch(ctx context.Context, rawText string) (<-chan struct{}, bool) {
	question, ok := c.accept(rawText)
	if !ok {
		return nil, false
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.settle(ctx, question)
	}()
	return done, true
}

// UpdateInput replaces the unsent input. Allowed while busy.
func (c *Controller) UpdateInput(text string) {
	c.mu.Lock()
	c.pendingInput = text
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Transcript() []models.Turn {
	return c.Snapshot().Transcript
}

func (c *Controller) PendingInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingInput
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Subscribe registers fn to receive a snapshot after every state change.
// Observers run on the goroutine that made the change and must not block.
func (c *Controller) Subscribe(fn func(models.Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) accept(rawText string) (string, bool) {
	question := strings.TrimSpace(rawText)
	if question == "" {
		log.Debug().Msg("Ignoring empty submission")
		return "", false
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		log.Debug().Msg("Ignoring submission while a request is in flight")
		return "", false
	}
	c.transcript = append(c.transcript, models.NewUserTurn(rawText))
	c.pendingInput = ""
	c.busy = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	log.Debug().
		Int("question_length", len(question)).
		Int("turns", len(snapshot.Transcript)).
		Msg("Accepted submission")

	c.notify(snapshot)
	return question, true
}

func (c *Controller) settle(ctx context.Context, question string) {
	turn := c.ask(ctx, question)

	c.mu.Lock()
	c.transcript = append(c.transcript, turn)
	c.busy = false
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	log.Debug().
		Int("turns", len(snapshot.Transcript)).
		Int("citations", len(turn.Citations)).
		Msg("Request settled")

	c.notify(snapshot)
}

func (c *Controller) ask(ctx context.Context, question string) models.Turn {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := c.backend.Ask(ctx, question)
	if err == nil && answer == nil {
		err = chat.ErrProtocol
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("failure", chat.FailureKind(err)).
			Dur("elapsed", time.Since(start)).
			Msg("Backend request failed")
		return models.NewApologyTurn()
	}

	return models.NewAssistantTurn(answer)
}

func (c *Controller) snapshotLocked() models.Snapshot {
	transcript := make([]models.Turn, len(c.transcript))
	for i, turn := range c.transcript {
		transcript[i] = turn.Clone()
	}

	return models.Snapshot{
		Transcript:   transcript,
		PendingInput: c.pendingInput,
		Busy:         c.busy,
	}
}

func (c *Controller) notify(snapshot models.Snapshot) {
	c.mu.Lock()
	observers := make([]func(models.Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
