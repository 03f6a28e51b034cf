package transition

import (
	"sync"
	"time"
)

// EventKind classifies a recorded target operation.
type EventKind string

const (
	EventSet    EventKind = "set"
	EventText   EventKind = "text"
	EventStart  EventKind = "start"
	EventDone   EventKind = "done"
	EventCancel EventKind = "cancel"
)

// Event is one operation observed on a HeadlessTarget.
type Event struct {
	At       time.Duration
	Target   string
	Kind     EventKind
	Props    Props
	Text     string
	Duration time.Duration
	Easing   Easing
}

// Recorder collects events from headless targets sharing one clock.
type Recorder struct {
	clock Clock
	start time.Time

	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a recorder timed by clock.
func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		clock = RealClock()
	}
	return &Recorder{clock: clock, start: clock.Now()}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *Recorder) record(ev Event) {
	ev.At = r.clock.Now().Sub(r.start)
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Target returns a new headless target named name.
func (r *Recorder) Target(name string) *HeadlessTarget {
	return &HeadlessTarget{name: name, rec: r, state: Props{}}
}

// Scene builds the standard overlay scene from headless targets.
func (r *Recorder) Scene() (Scene, map[string]*HeadlessTarget) {
	targets := map[string]*HeadlessTarget{}
	for _, name := range []string{"content", "overlay", "title", "subtitle", "indicator", "line_left", "line_right"} {
		targets[name] = r.Target(name)
	}
	return Scene{
		Content:     targets["content"],
		Overlay:     targets["overlay"],
		Title:       targets["title"],
		Subtitle:    targets["subtitle"],
		Decorations: []Target{targets["indicator"], targets["line_left"], targets["line_right"]},
	}, targets
}

// HeadlessTarget is a TextTarget without a rendering engine. Animations
// complete after their duration on the recorder's clock and apply their end
// values; cancelled animations leave state untouched.
type HeadlessTarget struct {
	name string
	rec  *Recorder

	mu    sync.Mutex
	state Props
	text  string
}

// Name returns the target's name.
func (t *HeadlessTarget) Name() string { return t.name }

// State returns a copy of the current property values.
func (t *HeadlessTarget) State() Props {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Merge(nil)
}

// Text returns the displayed text.
func (t *HeadlessTarget) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

func (t *HeadlessTarget) Set(props Props) {
	t.mu.Lock()
	t.state = t.state.Merge(props)
	t.mu.Unlock()
	t.rec.record(Event{Target: t.name, Kind: EventSet, Props: props})
}

func (t *HeadlessTarget) SetText(text string) {
	t.mu.Lock()
	t.text = text
	t.mu.Unlock()
	t.rec.record(Event{Target: t.name, Kind: EventText, Text: text})
}

func (t *HeadlessTarget) AnimateTo(props Props, duration time.Duration, easing Easing) Animation {
	anim := &headlessAnimation{done: make(chan struct{}), stop: make(chan struct{})}
	t.rec.record(Event{Target: t.name, Kind: EventStart, Props: props, Duration: duration, Easing: easing})
	timer := t.rec.clock.After(duration)
	go func() {
		select {
		case <-timer:
			t.mu.Lock()
			t.state = t.state.Merge(props)
			t.mu.Unlock()
			t.rec.record(Event{Target: t.name, Kind: EventDone, Props: props})
		case <-anim.stop:
			t.rec.record(Event{Target: t.name, Kind: EventCancel, Props: props})
		}
		close(anim.done)
	}()
	return anim
}

type headlessAnimation struct {
	done chan struct{}
	stop chan struct{}
	once sync.Once
}

func (a *headlessAnimation) Done() <-chan struct{} { return a.done }

// Cancel stops the animation and waits until it has settled.
func (a *headlessAnimation) Cancel() {
	a.once.Do(func() { close(a.stop) })
	<-a.done
}
