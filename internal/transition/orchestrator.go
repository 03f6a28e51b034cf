package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"clapper/internal/logging"
)

// Phase is the stage of the active sequence.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseExitingContent
	PhaseOverlayEntering
	PhaseOverlayHolding
	PhaseOverlayExiting
	PhaseContentEntering
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseExitingContent:
		return "exiting_content"
	case PhaseOverlayEntering:
		return "overlay_entering"
	case PhaseOverlayHolding:
		return "overlay_holding"
	case PhaseOverlayExiting:
		return "overlay_exiting"
	case PhaseContentEntering:
		return "content_entering"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Request is one navigation-triggered transition.
type Request struct {
	ID    uint64
	From  string
	To    string
	Label Label
}

var errSuperseded = errors.New("transition superseded")

// Orchestrator runs at most one transition sequence at a time for a Scene.
type Orchestrator struct {
	scene    Scene
	clock    Clock
	timings  Timings
	logger   *slog.Logger
	observer func(Request, Phase)

	// routeMu serializes OnRouteChange, CancelActive and Reset.
	routeMu sync.Mutex

	mu           sync.Mutex
	phase        Phase
	active       *Request
	nextID       uint64
	previousPath string
	hasPrevious  bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for offsets and dwell time.
func WithClock(clock Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithTimings overrides the default stage timings.
func WithTimings(t Timings) Option {
	return func(o *Orchestrator) { o.timings = t }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithPhaseObserver registers fn for every phase change. fn runs on the
// sequence goroutine and must not call OnRouteChange or CancelActive.
func WithPhaseObserver(fn func(Request, Phase)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New returns an idle orchestrator for scene.
func New(scene Scene, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scene:   scene,
		clock:   RealClock(),
		timings: DefaultTimings(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "transition")
	return o
}

// OnRouteChange reacts to the router's active path. The first path is
// recorded without animation and a repeated path is ignored. Otherwise any
// running sequence is cancelled and reset before the new one starts.
func (o *Orchestrator) OnRouteChange(path string) {
	o.routeMu.Lock()
	defer o.routeMu.Unlock()

	o.mu.Lock()
	if !o.hasPrevious {
		o.previousPath, o.hasPrevious = path, true
		o.mu.Unlock()
		return
	}
	if path == o.previousPath {
		o.mu.Unlock()
		return
	}
	from := o.previousPath
	o.previousPath = path
	o.mu.Unlock()

	o.stopActive()

	if !o.scene.complete() {
		o.logger.Debug("scene incomplete, swapping instantly",
			logging.String(logging.FieldEventType, "transition_instant_swap"),
			logging.String("to", path),
		)
		o.scene.resetNeutral()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	o.mu.Lock()
	o.nextID++
	req := Request{ID: o.nextID, From: from, To: path, Label: PageLabel(path)}
	o.active = &req
	o.phase = PhaseExitingContent
	o.cancel, o.done = cancel, done
	o.mu.Unlock()

	o.logger.Debug("transition started",
		logging.String(logging.FieldEventType, "transition_started"),
		logging.Uint64(logging.FieldTransitionID, req.ID),
		logging.String("from", from),
		logging.String("to", path),
	)
	o.notify(req, PhaseExitingContent)
	go o.run(ctx, req, done)
}

// CancelActive halts any running sequence and snaps the scene to rest.
func (o *Orchestrator) CancelActive() {
	o.routeMu.Lock()
	defer o.routeMu.Unlock()
	o.stopActive()
}

// Reset cancels and forgets the previous path, so the next route change is
// treated as the first.
func (o *Orchestrator) Reset() {
	o.routeMu.Lock()
	defer o.routeMu.Unlock()
	o.stopActive()
	o.mu.Lock()
	o.previousPath, o.hasPrevious = "", false
	o.mu.Unlock()
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// ActiveRequest returns the request owning the timeline, if any.
func (o *Orchestrator) ActiveRequest() (Request, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return Request{}, false
	}
	return *o.active, true
}

// Wait blocks until the current sequence, if any, has exited.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopActive cancels the running sequence, waits for its goroutine to exit
// and resets the scene. Callers hold routeMu.
func (o *Orchestrator) stopActive() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	superseded := o.active
	o.cancel, o.done, o.active = nil, nil, nil
	o.phase = PhaseIdle
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	o.scene.resetNeutral()
	if superseded != nil {
		o.logger.Debug("transition cancelled",
			logging.String(logging.FieldEventType, "transition_cancelled"),
			logging.Uint64(logging.FieldTransitionID, superseded.ID),
		)
		o.notify(*superseded, PhaseIdle)
	}
}

func (o *Orchestrator) run(ctx context.Context, req Request, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(o.logger, "transition target panicked", "transition_panic",
				logging.Uint64(logging.FieldTransitionID, req.ID),
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "scene left at rest"),
			)
			o.scene.resetNeutral()
			o.finish(req)
		}
	}()

	err := o.sequence(ctx, req)
	switch {
	case err == nil:
	case ctx.Err() != nil, errors.Is(err, errSuperseded):
		return
	default:
		logging.WarnWithContext(o.logger, "transition aborted", "transition_aborted",
			logging.Uint64(logging.FieldTransitionID, req.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "content shown without animation"),
		)
		o.scene.resetNeutral()
	}
	o.finish(req)
}

// enter moves the active request into phase. A stale request is rejected.
func (o *Orchestrator) enter(ctx context.Context, req Request, phase Phase) error {
	if err := o.guard(ctx, req); err != nil {
		return err
	}
	o.mu.Lock()
	o.phase = phase
	o.mu.Unlock()
	o.notify(req, phase)
	return nil
}

func (o *Orchestrator) guard(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil || o.active.ID != req.ID {
		return errSuperseded
	}
	return nil
}

func (o *Orchestrator) finish(req Request) {
	o.mu.Lock()
	if o.active == nil || o.active.ID != req.ID {
		o.mu.Unlock()
		return
	}
	o.active = nil
	o.phase = PhaseIdle
	o.mu.Unlock()
	o.logger.Debug("transition finished",
		logging.String(logging.FieldEventType, "transition_finished"),
		logging.Uint64(logging.FieldTransitionID, req.ID),
	)
	o.notify(req, PhaseIdle)
}

func (o *Orchestrator) notify(req Request, phase Phase) {
	if o.observer != nil {
		o.observer(req, phase)
	}
}
