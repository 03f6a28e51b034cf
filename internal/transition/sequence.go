package transition

import (
	"context"
	"time"

	"clapper/internal/config"
)

// Timings holds durations and start offsets of each stage. Offsets are
// relative to the start of their stage.
type Timings struct {
	ContentExit time.Duration

	OverlayIn       time.Duration
	TitleIn         time.Duration
	TitleInAt       time.Duration
	SubtitleStagger time.Duration
	IndicatorIn     time.Duration
	IndicatorInAt   time.Duration
	LinesIn         time.Duration
	LinesInAt       time.Duration

	Hold time.Duration

	DecorationsOut time.Duration
	LabelOut       time.Duration
	LabelOutAt     time.Duration
	OverlayOut     time.Duration
	OverlayOutAt   time.Duration

	ContentEnter time.Duration
}

// DefaultTimings returns the studio site's cinematic timings.
func DefaultTimings() Timings {
	return Timings{
		ContentExit:     300 * time.Millisecond,
		OverlayIn:       400 * time.Millisecond,
		TitleIn:         600 * time.Millisecond,
		TitleInAt:       200 * time.Millisecond,
		SubtitleStagger: 100 * time.Millisecond,
		IndicatorIn:     300 * time.Millisecond,
		IndicatorInAt:   500 * time.Millisecond,
		LinesIn:         500 * time.Millisecond,
		LinesInAt:       700 * time.Millisecond,
		Hold:            500 * time.Millisecond,
		DecorationsOut:  300 * time.Millisecond,
		LabelOut:        400 * time.Millisecond,
		LabelOutAt:      200 * time.Millisecond,
		OverlayOut:      500 * time.Millisecond,
		OverlayOutAt:    600 * time.Millisecond,
		ContentEnter:    600 * time.Millisecond,
	}
}

// TimingsFromConfig applies the configured dwell time to the defaults.
func TimingsFromConfig(cfg *config.Config) Timings {
	t := DefaultTimings()
	if cfg != nil && cfg.Transition.HoldMillis > 0 {
		t.Hold = time.Duration(cfg.Transition.HoldMillis) * time.Millisecond
	}
	return t
}

// Total is the length of an uninterrupted sequence.
func (t Timings) Total() time.Duration {
	enter := max(t.OverlayIn, t.TitleInAt+t.TitleIn+t.SubtitleStagger, t.IndicatorInAt+t.IndicatorIn, t.LinesInAt+t.LinesIn)
	exit := max(t.DecorationsOut, t.LabelOutAt+t.LabelOut, t.OverlayOutAt+t.OverlayOut)
	return t.ContentExit + enter + t.Hold + exit + t.ContentEnter
}

func (o *Orchestrator) sequence(ctx context.Context, req Request) error {
	s, t := o.scene, o.timings
	guard := func() error { return o.guard(ctx, req) }
	play := func(tweens ...tween) error {
		return stage{clock: o.clock, guard: guard, tweens: tweens}.play(ctx)
	}

	// ExitingContent was entered synchronously by OnRouteChange.
	if err := play(tween{target: s.Content, to: Props{Opacity: 0, Scale: 0.95}, duration: t.ContentExit, easing: EaseInOut}); err != nil {
		return err
	}

	if err := o.enter(ctx, req, PhaseOverlayEntering); err != nil {
		return err
	}
	s.Overlay.Set(Props{Visible: 1, Interactive: 1})
	s.Title.SetText(req.Label.Title)
	if s.Subtitle != nil {
		s.Subtitle.SetText(req.Label.Subtitle)
	}
	labelFrom := Props{TranslateY: 50, Opacity: 0, Scale: 0.8, RotateX: 45}
	labelTo := Props{TranslateY: 0, Opacity: 1, Scale: 1, RotateX: 0}
	entering := []tween{
		{target: s.Overlay, from: Props{Opacity: 0}, to: Props{Opacity: 1}, duration: t.OverlayIn, easing: EaseInOut},
		{target: s.Title, from: labelFrom, to: labelTo, duration: t.TitleIn, easing: EaseBackOut, at: t.TitleInAt},
	}
	if s.Subtitle != nil {
		entering = append(entering, tween{target: s.Subtitle, from: labelFrom, to: labelTo, duration: t.TitleIn, easing: EaseBackOut, at: t.TitleInAt + t.SubtitleStagger})
	}
	if ind := s.indicator(); ind != nil {
		entering = append(entering, tween{target: ind, from: Props{Scale: 0, Opacity: 0}, to: Props{Scale: 1, Opacity: 1}, duration: t.IndicatorIn, easing: EaseBackOutXL, at: t.IndicatorInAt})
	}
	for _, line := range s.lines() {
		entering = append(entering, tween{target: line, from: Props{ScaleX: 0, Opacity: 0}, to: Props{ScaleX: 1, Opacity: 0.7}, duration: t.LinesIn, easing: EaseOut, at: t.LinesInAt})
	}
	if err := play(entering...); err != nil {
		return err
	}

	if err := o.enter(ctx, req, PhaseOverlayHolding); err != nil {
		return err
	}
	if err := sleep(ctx, o.clock, t.Hold); err != nil {
		return err
	}

	if err := o.enter(ctx, req, PhaseOverlayExiting); err != nil {
		return err
	}
	exiting := make([]tween, 0, len(s.Decorations)+3)
	for _, d := range s.Decorations {
		exiting = append(exiting, tween{target: d, to: Props{Opacity: 0, Scale: 0.8}, duration: t.DecorationsOut, easing: EaseIn})
	}
	labelOut := Props{TranslateY: -30, Opacity: 0, Scale: 1.1}
	exiting = append(exiting, tween{target: s.Title, to: labelOut, duration: t.LabelOut, easing: EaseIn, at: t.LabelOutAt})
	if s.Subtitle != nil {
		exiting = append(exiting, tween{target: s.Subtitle, to: labelOut, duration: t.LabelOut, easing: EaseIn, at: t.LabelOutAt})
	}
	exiting = append(exiting, tween{target: s.Overlay, to: Props{Opacity: 0}, duration: t.OverlayOut, easing: EaseInOut, at: t.OverlayOutAt})
	if err := play(exiting...); err != nil {
		return err
	}
	s.Overlay.Set(Props{Visible: 0, Interactive: 0})

	if err := o.enter(ctx, req, PhaseContentEntering); err != nil {
		return err
	}
	return play(tween{
		target:   s.Content,
		from:     Props{Opacity: 0, Scale: 1.05, TranslateY: 20},
		to:       Props{Opacity: 1, Scale: 1, TranslateY: 0},
		duration: t.ContentEnter,
		easing:   EaseOut,
	})
}
