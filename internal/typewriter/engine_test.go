package typewriter

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	e, err := New(cfg, WithScheduler(sched))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e, sched
}

// recorder collects notifications from one subscription.
type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) add(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func record(e *Engine) *recorder {
	r := &recorder{}
	e.Subscribe(r.add)
	return r
}

func fastConfig(loop bool, texts ...string) Config {
	return Config{
		Texts:         texts,
		TypingSpeed:   100 * time.Millisecond,
		DeletingSpeed: 50 * time.Millisecond,
		PauseDuration: time.Second,
		Loop:          loop,
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no texts", Config{Texts: nil, TypingSpeed: 100 * time.Millisecond, DeletingSpeed: 50 * time.Millisecond, PauseDuration: time.Second}},
		{"empty texts", Config{Texts: []string{}, TypingSpeed: 100 * time.Millisecond, DeletingSpeed: 50 * time.Millisecond, PauseDuration: time.Second}},
		{"zero typing speed", Config{Texts: []string{"a"}, TypingSpeed: 0, DeletingSpeed: 50 * time.Millisecond}},
		{"negative typing speed", Config{Texts: []string{"a"}, TypingSpeed: -time.Millisecond, DeletingSpeed: 50 * time.Millisecond}},
		{"zero deleting speed", Config{Texts: []string{"a"}, TypingSpeed: time.Millisecond, DeletingSpeed: 0}},
		{"negative pause", Config{Texts: []string{"a"}, TypingSpeed: time.Millisecond, DeletingSpeed: time.Millisecond, PauseDuration: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := NewManualScheduler()
			e, err := New(tt.cfg, WithScheduler(sched))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("New err = %v, want ErrInvalidConfig", err)
			}
			if e != nil {
				t.Fatal("New returned an engine alongside an error")
			}
			if sched.Pending() != 0 {
				t.Fatalf("pending = %d, want nothing scheduled", sched.Pending())
			}
		})
	}
}

func TestNewAcceptsZeroPause(t *testing.T) {
	cfg := fastConfig(true, "a")
	cfg.PauseDuration = 0
	if _, err := New(cfg, WithScheduler(NewManualScheduler())); err != nil {
		t.Fatalf("New with zero pause: %v", err)
	}
}

func TestInitialState(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "hello"))

	got := e.State()
	if got != (State{TextIndex: 0, Text: "", Phase: Typing}) {
		t.Fatalf("initial state = %+v", got)
	}
	if sched.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", sched.Pending())
	}
}

func TestTypingAppendsOneCharacterPerTick(t *testing.T) {
	const text = "héllo, 世界"
	e, sched := newTestEngine(t, fastConfig(false, text))
	rec := record(e)

	for sched.Step() {
	}

	got := rec.all()
	if len(got) != utf8.RuneCountInString(text) {
		t.Fatalf("got %d notifications, want %d", len(got), utf8.RuneCountInString(text))
	}
	prev := ""
	for i, s := range got {
		if !strings.HasPrefix(text, s) {
			t.Fatalf("tick %d: %q is not a prefix of %q", i, s, text)
		}
		if utf8.RuneCountInString(s) != utf8.RuneCountInString(prev)+1 || !strings.HasPrefix(s, prev) {
			t.Fatalf("tick %d: %q does not extend %q by one character", i, s, prev)
		}
		prev = s
	}
}

func TestDeletingRemovesOneCharacterPerTick(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "abcd", "z"))

	var deleting []string
	e.Subscribe(func(text string) {
		if e.State().Phase == Deleting {
			deleting = append(deleting, text)
		}
	})

	for e.State().TextIndex == 0 {
		if !sched.Step() {
			t.Fatal("scheduler ran dry before the first text was deleted")
		}
	}

	want := []string{"abcd", "abc", "ab", "a", ""}
	if !equalStrings(deleting, want) {
		t.Fatalf("deleting sequence = %q, want %q", deleting, want)
	}
}

func TestCycleRepeats(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "AB", "C"))
	rec := record(e)

	cycle := []string{"A", "AB", "AB", "AB", "A", "", "", "C", "C", "C", "", ""}
	for i := range cycle {
		if !sched.Step() {
			t.Fatalf("scheduler ran dry at tick %d", i)
		}
	}
	if got := e.State(); got != (State{TextIndex: 0, Text: "", Phase: Typing}) {
		t.Fatalf("state after one cycle = %+v", got)
	}
	for range cycle {
		sched.Step()
	}

	got := rec.all()
	if !equalStrings(got[:len(cycle)], cycle) {
		t.Fatalf("first cycle = %q, want %q", got[:len(cycle)], cycle)
	}
	if !equalStrings(got[len(cycle):], cycle) {
		t.Fatalf("second cycle = %q, want %q", got[len(cycle):], cycle)
	}
}

func TestPhaseSequence(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "AB", "C"))

	var phases []Phase
	e.Subscribe(func(string) { phases = append(phases, e.State().Phase) })
	for range 12 {
		sched.Step()
	}

	want := []Phase{
		Typing, Typing, Pausing, Deleting, Deleting, Deleting,
		Typing, Typing, Pausing, Deleting, Deleting, Typing,
	}
	if len(phases) != len(want) {
		t.Fatalf("got %d phases, want %d", len(phases), len(want))
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("tick %d phase = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestTickTiming(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "ab"))

	steps := []struct {
		advance time.Duration
		fired   int
		text    string
		phase   Phase
	}{
		{99 * time.Millisecond, 0, "", Typing},
		{time.Millisecond, 1, "a", Typing},
		{100 * time.Millisecond, 1, "ab", Typing},
		{100 * time.Millisecond, 1, "ab", Pausing},
		{999 * time.Millisecond, 0, "ab", Pausing},
		{time.Millisecond, 1, "ab", Deleting},
		{50 * time.Millisecond, 1, "a", Deleting},
		{50 * time.Millisecond, 1, "", Deleting},
		{50 * time.Millisecond, 1, "", Typing},
		{100 * time.Millisecond, 1, "a", Typing},
	}
	for i, st := range steps {
		if n := sched.Advance(st.advance); n != st.fired {
			t.Fatalf("step %d: fired %d ticks, want %d", i, n, st.fired)
		}
		got := e.State()
		if got.Text != st.text || got.Phase != st.phase {
			t.Fatalf("step %d: state = %+v, want text %q phase %s", i, got, st.text, st.phase)
		}
	}
}

func TestNonLoopingStopsAfterLastText(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(false, "X"))
	rec := record(e)

	if !sched.Step() {
		t.Fatal("no first tick scheduled")
	}
	if got := e.State(); got.Text != "X" || got.Phase != Terminal {
		t.Fatalf("state = %+v, want X/terminal", got)
	}
	if sched.Pending() != 0 {
		t.Fatalf("pending = %d after terminal", sched.Pending())
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("Done not closed at terminal")
	}

	if n := sched.Advance(time.Hour); n != 0 {
		t.Fatalf("fired %d ticks after terminal", n)
	}
	if e.CurrentText() != "X" {
		t.Fatalf("CurrentText = %q, want X", e.CurrentText())
	}
	if got := rec.all(); !equalStrings(got, []string{"X"}) {
		t.Fatalf("notifications = %q", got)
	}
}

func TestNonLoopingDeletesAllButLastText(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(false, "ab", "c"))
	rec := record(e)

	for sched.Step() {
	}

	want := []string{"a", "ab", "ab", "ab", "a", "", "", "c"}
	if got := rec.all(); !equalStrings(got, want) {
		t.Fatalf("notifications = %q, want %q", got, want)
	}
	if got := e.State(); got != (State{TextIndex: 1, Text: "c", Phase: Terminal}) {
		t.Fatalf("final state = %+v", got)
	}
}

func TestSingleEmptyTextNonLooping(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(false, ""))

	sched.Step()
	if got := e.State(); got != (State{TextIndex: 0, Text: "", Phase: Terminal}) {
		t.Fatalf("state = %+v", got)
	}
	if sched.Pending() != 0 {
		t.Fatal("tick scheduled after terminal")
	}
}

func TestEmptyTextEntry(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "", "B"))

	var states []State
	e.Subscribe(func(string) { states = append(states, e.State()) })
	for range 4 {
		sched.Step()
	}

	want := []State{
		{TextIndex: 0, Text: "", Phase: Pausing},
		{TextIndex: 0, Text: "", Phase: Deleting},
		{TextIndex: 1, Text: "", Phase: Typing},
		{TextIndex: 1, Text: "B", Phase: Typing},
	}
	if len(states) != len(want) {
		t.Fatalf("got %d states, want %d", len(states), len(want))
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("tick %d state = %+v, want %+v", i, states[i], want[i])
		}
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "abc"))
	rec := record(e)

	sched.Step()
	e.Dispose()
	e.Dispose()

	if sched.Pending() != 0 {
		t.Fatalf("pending = %d after dispose", sched.Pending())
	}
	if n := sched.Advance(time.Hour); n != 0 {
		t.Fatalf("fired %d ticks after dispose", n)
	}
	if got := rec.all(); !equalStrings(got, []string{"a"}) {
		t.Fatalf("notifications = %q, want only the pre-dispose tick", got)
	}
	if e.CurrentText() != "a" {
		t.Fatalf("CurrentText = %q after dispose", e.CurrentText())
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("Done not closed after dispose")
	}
}

func TestDisposeFromSubscriber(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "abc"))

	var first, second []string
	e.Subscribe(func(text string) {
		first = append(first, text)
		if text == "ab" {
			e.Dispose()
		}
	})
	e.Subscribe(func(text string) { second = append(second, text) })

	sched.Advance(time.Minute)

	if !equalStrings(first, []string{"a", "ab"}) {
		t.Fatalf("first = %q", first)
	}
	// the second subscriber never sees the tick during which the engine was disposed
	if !equalStrings(second, []string{"a"}) {
		t.Fatalf("second = %q", second)
	}
	if sched.Pending() != 0 {
		t.Fatal("tick rescheduled after dispose")
	}
}

func TestSubscribeAfterDispose(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "abc"))
	e.Dispose()

	called := false
	sub := e.Subscribe(func(string) { called = true })
	sub.Unsubscribe()
	sched.Advance(time.Minute)
	if called {
		t.Fatal("subscriber on disposed engine was called")
	}
}

func TestSubscriberFanOut(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "AB", "C"))

	a := &recorder{}
	b := &recorder{}
	e.Subscribe(a.add)
	subB := e.Subscribe(b.add)

	for range 5 {
		sched.Step()
	}
	if !equalStrings(a.all(), b.all()) {
		t.Fatalf("subscribers diverged: %q vs %q", a.all(), b.all())
	}

	subB.Unsubscribe()
	subB.Unsubscribe()
	for range 5 {
		sched.Step()
	}

	if got := len(a.all()); got != 10 {
		t.Fatalf("a received %d notifications, want 10", got)
	}
	if got := len(b.all()); got != 5 {
		t.Fatalf("b received %d notifications, want 5", got)
	}
	if e.State().TextIndex != 1 {
		t.Fatalf("engine stopped progressing after unsubscribe: %+v", e.State())
	}
}

func TestSubscribersCalledInRegistrationOrder(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "x"))

	var order []int
	for i := range 3 {
		e.Subscribe(func(string) { order = append(order, i) })
	}
	sched.Step()

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("order = %v", order)
	}
}

func TestUnsubscribeFromCallback(t *testing.T) {
	e, sched := newTestEngine(t, fastConfig(true, "abc"))

	var sub *Subscription
	n := 0
	sub = e.Subscribe(func(string) {
		n++
		sub.Unsubscribe()
	})
	sched.Step()
	sched.Step()
	if n != 1 {
		t.Fatalf("callback ran %d times, want 1", n)
	}
}

func TestConfigIsCopied(t *testing.T) {
	texts := []string{"one", "two"}
	e, sched := newTestEngine(t, fastConfig(true, texts...))
	texts[0] = "changed"

	sched.Step()
	if got := e.CurrentText(); got != "o" {
		t.Fatalf("CurrentText = %q, engine saw caller mutation", got)
	}
	cfg := e.Config()
	cfg.Texts[1] = "mutated"
	if e.Config().Texts[1] != "two" {
		t.Fatal("Config returned shared slice")
	}
}

func TestSystemSchedulerRunsToTerminal(t *testing.T) {
	e, err := New(Config{
		Texts:         []string{"hi", "go"},
		TypingSpeed:   time.Millisecond,
		DeletingSpeed: time.Millisecond,
		PauseDuration: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not finish, state %+v", e.State())
	}

	if got := e.State(); got != (State{TextIndex: 1, Text: "go", Phase: Terminal}) {
		t.Fatalf("final state = %+v", got)
	}
}

func TestNoNotificationAfterDisposeReturns(t *testing.T) {
	for i := 0; i < 500; i++ {
		e, err := New(Config{
			Texts:         []string{"abcdef"},
			TypingSpeed:   time.Nanosecond,
			DeletingSpeed: time.Nanosecond,
			Loop:          true,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		var disposed atomic.Bool
		var late atomic.Int64
		started := make(chan struct{})
		var once sync.Once
		e.Subscribe(func(string) {
			if disposed.Load() {
				late.Add(1)
			}
			once.Do(func() { close(started) })
		})

		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("engine never ticked")
		}
		e.Dispose()
		disposed.Store(true)

		// give a stray tick the chance to show up
		time.Sleep(50 * time.Microsecond)
		if n := late.Load(); n != 0 {
			t.Fatalf("iteration %d: %d notifications began after Dispose returned", i, n)
		}
	}
}

func TestDisposeWaitsForRunningSubscriber(t *testing.T) {
	e, err := New(Config{
		Texts:         []string{"abc"},
		TypingSpeed:   time.Millisecond,
		DeletingSpeed: time.Millisecond,
		Loop:          true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	e.Subscribe(func(string) {
		first := false
		once.Do(func() { first = true })
		if !first {
			return
		}
		close(entered)
		<-release
		finished.Store(true)
	})

	<-entered
	disposeDone := make(chan struct{})
	go func() {
		e.Dispose()
		close(disposeDone)
	}()

	select {
	case <-disposeDone:
		t.Fatal("Dispose returned while a subscriber was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-disposeDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Dispose never returned")
	}
	if !finished.Load() {
		t.Fatal("Dispose returned before the subscriber finished")
	}
}

func TestDisposeFromSubscriberOnSystemScheduler(t *testing.T) {
	e, err := New(Config{
		Texts:         []string{"abc"},
		TypingSpeed:   time.Millisecond,
		DeletingSpeed: time.Millisecond,
		Loop:          true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var calls atomic.Int64
	e.Subscribe(func(string) {
		calls.Add(1)
		e.Dispose()
	})

	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Dispose from a subscriber deadlocked")
	}
	time.Sleep(10 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("subscriber called %d times, want 1", n)
	}
}

func TestWithSubscriberSeesFirstTick(t *testing.T) {
	var states []State
	sched := NewManualScheduler()
	e, err := New(fastConfig(false, "ab"),
		WithScheduler(sched),
		WithSubscriber(func(st State) { states = append(states, st) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	sched.Advance(time.Minute)

	want := []State{
		{TextIndex: 0, Text: "a", Phase: Typing},
		{TextIndex: 0, Text: "ab", Phase: Terminal},
	}
	if len(states) != len(want) {
		t.Fatalf("states = %+v, want %+v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state %d = %+v, want %+v", i, states[i], want[i])
		}
	}
}

func TestWithSubscriberOnSystemScheduler(t *testing.T) {
	first := make(chan State, 1)
	e, err := New(Config{
		Texts:         []string{"xyz"},
		TypingSpeed:   time.Nanosecond,
		DeletingSpeed: time.Nanosecond,
	}, WithSubscriber(func(st State) {
		select {
		case first <- st:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	select {
	case st := <-first:
		if st.Text != "x" {
			t.Fatalf("first notification = %+v, want the first tick", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification")
	}
}

func TestGoroutineID(t *testing.T) {
	here := goroutineID()
	if here == 0 {
		t.Fatal("goroutineID returned zero")
	}
	if goroutineID() != here {
		t.Fatal("goroutineID not stable")
	}
	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	if id := <-other; id == here || id == 0 {
		t.Fatalf("other goroutine id = %d, here = %d", id, here)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Typing:    "typing",
		Pausing:   "pausing",
		Deleting:  "deleting",
		Terminal:  "terminal",
		Phase(42): "phase(42)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
