// Package typewriter animates a rotating headline: it types a phrase one
// character at a time, holds it, deletes it, and moves on to the next.
//
// An Engine is driven entirely by a Scheduler. Each tick performs exactly
// one transition of the Typing -> Pausing -> Deleting -> Typing cycle and
// notifies subscribers with the text on display afterwards.
package typewriter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidConfig is returned by New when a Config cannot drive an engine.
var ErrInvalidConfig = errors.New("typewriter: invalid config")

// Phase is the engine's position in the typing cycle.
type Phase int

const (
	Typing Phase = iota
	Pausing
	Deleting
	// Terminal is only reached with Loop disabled, once the last text is
	// fully typed. No tick fires after it.
	Terminal
)

func (p Phase) String() string {
	switch p {
	case Typing:
		return "typing"
	case Pausing:
		return "pausing"
	case Deleting:
		return "deleting"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Config is the immutable description of a headline animation.
type Config struct {
	Texts         []string
	TypingSpeed   time.Duration // per character
	DeletingSpeed time.Duration // per character
	PauseDuration time.Duration // hold after a text is fully typed
	Loop          bool
}

// Validate reports whether c can drive an engine. Empty strings inside
// Texts are allowed.
func (c Config) Validate() error {
	switch {
	case len(c.Texts) == 0:
		return fmt.Errorf("%w: no texts", ErrInvalidConfig)
	case c.TypingSpeed <= 0:
		return fmt.Errorf("%w: typing speed must be positive, got %s", ErrInvalidConfig, c.TypingSpeed)
	case c.DeletingSpeed <= 0:
		return fmt.Errorf("%w: deleting speed must be positive, got %s", ErrInvalidConfig, c.DeletingSpeed)
	case c.PauseDuration < 0:
		return fmt.Errorf("%w: pause duration must not be negative, got %s", ErrInvalidConfig, c.PauseDuration)
	}
	return nil
}

// State is a point-in-time snapshot of an engine.
type State struct {
	TextIndex int
	Text      string
	Phase     Phase
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithScheduler replaces SystemScheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithSubscriber registers fn before the first tick is armed, so it sees
// every tick from the start. fn receives the full state after each tick.
func WithSubscriber(fn func(State)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.subs = append(e.subs, &Subscription{engine: e, fn: fn, active: true})
		}
	}
}

// WithLogger attaches a logger for lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine owns one headline animation. It must not be reused after Dispose.
type Engine struct {
	cfg   Config
	texts [][]rune
	sched Scheduler
	log   zerolog.Logger

	mu       sync.Mutex
	index    int
	shown    int // runes of texts[index] on display
	phase    Phase
	timer    Timer
	subs     []*Subscription
	disposed bool

	// delivering is the goroutine running a subscriber callback, or zero.
	delivering uint64
	idle       *sync.Cond

	done     chan struct{}
	doneOnce sync.Once
}

// New validates cfg and schedules the first tick one TypingSpeed from now.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	texts := make([][]rune, len(cfg.Texts))
	for i, s := range cfg.Texts {
		texts[i] = []rune(s)
	}
	cfg.Texts = append([]string(nil), cfg.Texts...)

	e := &Engine{
		cfg:   cfg,
		texts: texts,
		sched: SystemScheduler,
		log:   zerolog.Nop(),
		phase: Typing,
		done:  make(chan struct{}),
	}
	e.idle = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}

	e.log.Debug().
		Int("texts", len(texts)).
		Bool("loop", cfg.Loop).
		Msg("typewriter started")

	e.mu.Lock()
	e.timer = e.sched.AfterFunc(cfg.TypingSpeed, e.tick)
	e.mu.Unlock()
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Texts = append([]string(nil), e.cfg.Texts...)
	return cfg
}

// CurrentText returns the text on display right now.
func (e *Engine) CurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.texts[e.index][:e.shown])
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Done is closed when the engine reaches Terminal or is disposed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Subscribe registers fn to receive the displayed text after every tick.
// Subscribers are called in registration order, outside the engine lock,
// so fn may call back into the engine. Subscribing to a disposed engine
// returns a subscription that never fires.
func (e *Engine) Subscribe(fn func(text string)) *Subscription {
	sub := &Subscription{engine: e}
	if fn != nil {
		sub.fn = func(st State) { fn(st.Text) }
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || fn == nil {
		return sub
	}
	sub.active = true
	e.subs = append(e.subs, sub)
	return sub
}

// Dispose cancels the pending tick and drops every subscription. No tick
// mutates state or starts a notification once Dispose has returned.
// Called from another goroutine while a subscriber is running, it waits for
// that callback to return, so callbacks must not block on the goroutine
// calling Dispose. Called from inside a callback it returns at once.
// Calling it again is a no-op.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	for _, s := range e.subs {
		s.active = false
	}
	e.subs = nil
	state := e.stateLocked()
	if e.delivering != 0 {
		self := goroutineID()
		for e.delivering != 0 && e.delivering != self {
			e.idle.Wait()
		}
	}
	e.mu.Unlock()

	e.closeDone()
	e.log.Debug().
		Int("index", state.TextIndex).
		Stringer("phase", state.Phase).
		Msg("typewriter disposed")
}

func (e *Engine) tick() {
	e.mu.Lock()
	e.timer = nil
	if e.disposed || e.phase == Terminal {
		e.mu.Unlock()
		return
	}

	delay := e.advanceLocked()
	state := e.stateLocked()
	subs := append([]*Subscription(nil), e.subs...)
	e.mu.Unlock()

	e.notify(subs, state)

	if state.Phase == Terminal {
		e.log.Debug().Int("index", state.TextIndex).Msg("typewriter finished")
		e.closeDone()
		return
	}

	// The next tick is armed only after every subscriber has seen this one,
	// which keeps notifications in tick order on any scheduler.
	e.mu.Lock()
	if !e.disposed {
		e.timer = e.sched.AfterFunc(delay, e.tick)
	}
	e.mu.Unlock()
}

// notify calls each subscriber still registered. The disposed check and the
// in-flight mark happen under one lock, so Dispose either stops a callback
// before it starts or waits for it to finish.
func (e *Engine) notify(subs []*Subscription, state State) {
	var self uint64
	for _, s := range subs {
		e.mu.Lock()
		if e.disposed {
			e.mu.Unlock()
			return
		}
		if !s.active {
			e.mu.Unlock()
			continue
		}
		if self == 0 {
			self = goroutineID()
		}
		e.delivering = self
		e.mu.Unlock()

		s.fn(state)

		e.mu.Lock()
		e.delivering = 0
		e.idle.Broadcast()
		e.mu.Unlock()
	}
}

// advanceLocked applies one transition and returns the delay before the
// next tick. Callers hold e.mu.
func (e *Engine) advanceLocked() time.Duration {
	target := e.texts[e.index]

	switch e.phase {
	case Typing:
		delay := e.cfg.TypingSpeed
		if e.shown < len(target) {
			e.shown++
		} else {
			e.phase = Pausing
			delay = e.cfg.PauseDuration
		}
		if e.shown == len(target) && !e.cfg.Loop && e.index == len(e.texts)-1 {
			e.phase = Terminal
		}
		return delay

	case Pausing:
		e.phase = Deleting
		return e.cfg.DeletingSpeed

	case Deleting:
		if e.shown > 0 {
			e.shown--
			return e.cfg.DeletingSpeed
		}
		e.index = (e.index + 1) % len(e.texts)
		e.phase = Typing
		return e.cfg.TypingSpeed
	}
	return 0
}

func (e *Engine) stateLocked() State {
	return State{
		TextIndex: e.index,
		Text:      string(e.texts[e.index][:e.shown]),
		Phase:     e.phase,
	}
}

func (e *Engine) closeDone() {
	e.doneOnce.Do(func() { close(e.done) })
}

// Subscription is a handle returned by Engine.Subscribe.
type Subscription struct {
	engine *Engine
	fn     func(State)
	active bool // guarded by engine.mu
}

// Unsubscribe stops future callbacks. The engine keeps running.
func (s *Subscription) Unsubscribe() {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	for i, sub := range e.subs {
		if sub == s {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			break
		}
	}
}
