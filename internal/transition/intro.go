package transition

import (
	"context"
	"fmt"
	"time"

	"clapper/internal/config"
)

// IntroPhase is the state of the first-load screen.
type IntroPhase int

const (
	IntroLoading IntroPhase = iota
	IntroFadingOut
	IntroRevealed
)

func (p IntroPhase) String() string {
	switch p {
	case IntroLoading:
		return "loading"
	case IntroFadingOut:
		return "fading_out"
	case IntroRevealed:
		return "revealed"
	default:
		return fmt.Sprintf("intro(%d)", int(p))
	}
}

// IntroTimings controls the first-load screen.
type IntroTimings struct {
	MinDisplay  time.Duration
	FadeOut     time.Duration
	RevealDelay time.Duration
}

// DefaultIntroTimings matches the site's loader.
func DefaultIntroTimings() IntroTimings {
	return IntroTimings{MinDisplay: 2500 * time.Millisecond, FadeOut: 1000 * time.Millisecond, RevealDelay: 500 * time.Millisecond}
}

// IntroTimingsFromConfig reads the [transition] intro settings.
func IntroTimingsFromConfig(cfg *config.Config) IntroTimings {
	t := DefaultIntroTimings()
	if cfg == nil {
		return t
	}
	if cfg.Transition.IntroMinMS > 0 {
		t.MinDisplay = time.Duration(cfg.Transition.IntroMinMS) * time.Millisecond
	}
	if cfg.Transition.IntroFadeMS > 0 {
		t.FadeOut = time.Duration(cfg.Transition.IntroFadeMS) * time.Millisecond
	}
	return t
}

// RunIntro shows loader for at least MinDisplay and until ready closes (nil
// means already ready), fades it out and reveals the content after
// RevealDelay. loader may be nil. observe receives each phase.
func RunIntro(ctx context.Context, clock Clock, t IntroTimings, loader Target, ready <-chan struct{}, observe func(IntroPhase)) error {
	if clock == nil {
		clock = RealClock()
	}
	if observe == nil {
		observe = func(IntroPhase) {}
	}
	if loader != nil {
		loader.Set(Props{Opacity: 1, Visible: 1, Interactive: 1})
	}
	observe(IntroLoading)

	if err := sleep(ctx, clock, t.MinDisplay); err != nil {
		return err
	}
	if ready != nil {
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	observe(IntroFadingOut)
	var fade Animation
	if loader != nil {
		loader.Set(Props{Interactive: 0})
		fade = loader.AnimateTo(Props{Opacity: 0}, t.FadeOut, EaseOut)
	}
	if err := sleep(ctx, clock, t.RevealDelay); err != nil {
		if fade != nil {
			fade.Cancel()
		}
		return err
	}
	observe(IntroRevealed)

	if fade != nil {
		select {
		case <-fade.Done():
		case <-ctx.Done():
			fade.Cancel()
			return ctx.Err()
		}
		loader.Set(Props{Opacity: 0, Visible: 0})
	}
	return nil
}
