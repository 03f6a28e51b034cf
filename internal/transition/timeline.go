package transition

import (
	"context"
	"time"
)

// tween is one animation inside a stage. From, when set, is applied at the
// moment the tween starts.
type tween struct {
	target   Target
	from     Props
	to       Props
	duration time.Duration
	easing   Easing
	at       time.Duration
}

// stage plays tweens in offset order and waits for all of them. On
// cancellation every started animation is cancelled before returning.
// guard is consulted before each mutation; false aborts the stage.
type stage struct {
	clock  Clock
	guard  func() error
	tweens []tween
}

func (s stage) play(ctx context.Context) error {
	started := make([]Animation, 0, len(s.tweens))
	abort := func(err error) error {
		for _, anim := range started {
			anim.Cancel()
		}
		return err
	}

	var elapsed time.Duration
	for _, tw := range s.tweens {
		if tw.target == nil {
			continue
		}
		if wait := tw.at - elapsed; wait > 0 {
			if err := sleep(ctx, s.clock, wait); err != nil {
				return abort(err)
			}
			elapsed = tw.at
		}
		if err := s.guard(); err != nil {
			return abort(err)
		}
		if tw.from != nil {
			tw.target.Set(tw.from)
		}
		started = append(started, tw.target.AnimateTo(tw.to, tw.duration, tw.easing))
	}

	for _, anim := range started {
		select {
		case <-anim.Done():
		case <-ctx.Done():
			return abort(ctx.Err())
		}
	}
	return s.guard()
}

func sleep(ctx context.Context, clock Clock, d time.Duration) error {
	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
