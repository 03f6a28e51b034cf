package transition

import "time"

// Property is a visual property owned by the orchestrator.
type Property string

const (
	Opacity     Property = "opacity"
	Scale       Property = "scale"
	ScaleX      Property = "scale_x"
	TranslateY  Property = "translate_y"
	RotateX     Property = "rotate_x"
	Visible     Property = "visible"
	Interactive Property = "interactive"
)

// Props maps properties to values. Visible and Interactive use 0 and 1.
type Props map[Property]float64

// Merge returns a copy of p overlaid with other.
func (p Props) Merge(other Props) Props {
	out := make(Props, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Easing names a tween curve.
type Easing string

const (
	EaseLinear    Easing = "none"
	EaseInOut     Easing = "power2.inOut"
	EaseOut       Easing = "power2.out"
	EaseIn        Easing = "power2.in"
	EaseBackOut   Easing = "back.out(1.7)"
	EaseBackOutXL Easing = "back.out(2)"
)

// Animation is a running tween. Done closes when it completes or is cancelled.
type Animation interface {
	Done() <-chan struct{}
	Cancel()
}

// Target is something the orchestrator can style and animate.
type Target interface {
	Set(props Props)
	AnimateTo(props Props, duration time.Duration, easing Easing) Animation
}

// TextTarget is a Target that also displays text.
type TextTarget interface {
	Target
	SetText(text string)
}

// Scene groups the targets of one mounted view. Decorations[0] is the
// centre indicator; the rest are divider lines.
type Scene struct {
	Content     Target
	Overlay     Target
	Title       TextTarget
	Subtitle    TextTarget
	Decorations []Target
}

func (s Scene) complete() bool {
	return s.Content != nil && s.Overlay != nil && s.Title != nil
}

func (s Scene) indicator() Target {
	if len(s.Decorations) == 0 {
		return nil
	}
	return s.Decorations[0]
}

func (s Scene) lines() []Target {
	if len(s.Decorations) < 2 {
		return nil
	}
	return s.Decorations[1:]
}

// Neutral resting values.
var (
	neutralContent    = Props{Opacity: 1, Scale: 1, TranslateY: 0}
	hiddenOverlay     = Props{Opacity: 0, Visible: 0, Interactive: 0}
	neutralLabel      = Props{Opacity: 0, Scale: 1, TranslateY: 0, RotateX: 0}
	neutralDecoration = Props{Opacity: 0, Scale: 1, ScaleX: 1}
)

// resetNeutral snaps every transition-owned property to rest.
func (s Scene) resetNeutral() {
	if s.Content != nil {
		s.Content.Set(neutralContent)
	}
	if s.Overlay != nil {
		s.Overlay.Set(hiddenOverlay)
	}
	if s.Title != nil {
		s.Title.Set(neutralLabel)
	}
	if s.Subtitle != nil {
		s.Subtitle.Set(neutralLabel)
	}
	for _, d := range s.Decorations {
		if d != nil {
			d.Set(neutralDecoration)
		}
	}
}
