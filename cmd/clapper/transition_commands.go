package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"clapper/internal/transition"
)

func newTransitionCommand(ctx *commandContext) *cobra.Command {
	transitionCmd := &cobra.Command{
		Use:   "transition",
		Short: "Inspect and preview page transitions",
	}
	transitionCmd.AddCommand(
		newTransitionRoutesCommand(),
		newTransitionPreviewCommand(ctx),
		newTransitionIntroCommand(ctx),
	)
	return transitionCmd
}

func newTransitionRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "routes",
		Short:       "List routes and their overlay labels",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes := transition.KnownRoutes()
			rows := make([][]string, 0, len(routes)+1)
			for _, route := range routes {
				label := transition.PageLabel(route)
				rows = append(rows, []string{route, label.Title, label.Subtitle})
			}
			rows = append(rows, []string{"(other)", transition.FallbackLabel.Title, transition.FallbackLabel.Subtitle})
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{col("Route"), col("Title"), col("Subtitle")}, rows))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

type phaseMark struct {
	at    time.Duration
	phase string
}

type phaseLog struct {
	mu    sync.Mutex
	clock transition.Clock
	start time.Time
	marks []phaseMark
}

func newPhaseLog(clock transition.Clock) *phaseLog {
	return &phaseLog{clock: clock, start: clock.Now()}
}

func (l *phaseLog) add(phase string) {
	at := l.clock.Now().Sub(l.start)
	l.mu.Lock()
	l.marks = append(l.marks, phaseMark{at: at, phase: phase})
	l.mu.Unlock()
}

func (l *phaseLog) rows() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([][]string, 0, len(l.marks))
	for _, mark := range l.marks {
		rows = append(rows, []string{formatOffset(mark.at), mark.phase})
	}
	return rows
}

func newTransitionPreviewCommand(ctx *commandContext) *cobra.Command {
	var scale float64
	var showEvents bool
	cmd := &cobra.Command{
		Use:   "preview <from> <to>",
		Short: "Play a route transition headlessly and print its timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if scale <= 0 {
				scale = cfg.Transition.TimeScale
			}
			from, to := args[0], args[1]
			out := cmd.OutOrStdout()
			if suggestion, ok := transition.SuggestRoute(to); ok {
				fmt.Fprintf(out, "Unknown route %q; did you mean %q?\n", to, suggestion)
			}

			clock := transition.NewScaledClock(scale)
			recorder := transition.NewRecorder(clock)
			scene, _ := recorder.Scene()
			phases := newPhaseLog(clock)
			timings := transition.TimingsFromConfig(cfg)
			orchestrator := transition.New(scene,
				transition.WithClock(clock),
				transition.WithTimings(timings),
				transition.WithLogger(ctx.logger()),
				transition.WithPhaseObserver(func(_ transition.Request, phase transition.Phase) {
					phases.add(phase.String())
				}),
			)
			defer orchestrator.Reset()

			orchestrator.OnRouteChange(from)
			orchestrator.OnRouteChange(to)

			waitCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(float64(timings.Total())*scale)+10*time.Second)
			defer cancel()
			if err := orchestrator.Wait(waitCtx); err != nil {
				return fmt.Errorf("wait for transition: %w", err)
			}

			label := transition.PageLabel(to)
			fmt.Fprintf(out, "%s -> %s  [%s / %s]  planned %s\n", from, to, label.Title, label.Subtitle, timings.Total())
			fmt.Fprint(out, renderTable([]column{numCol("At"), col("Phase")}, phases.rows()))
			fmt.Fprintln(out)
			if showEvents {
				renderEvents(out, recorder.Events())
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 0, "Time scale (0.1 plays ten times faster; defaults to transition.time_scale)")
	cmd.Flags().BoolVar(&showEvents, "events", false, "Print every target operation")
	return cmd
}

func newTransitionIntroCommand(ctx *commandContext) *cobra.Command {
	var scale float64
	var readyAfter time.Duration
	cmd := &cobra.Command{
		Use:   "intro",
		Short: "Play the loading screen headlessly and print its timeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ctx.configValue()
			if scale <= 0 {
				scale = cfg.Transition.TimeScale
			}
			clock := transition.NewScaledClock(scale)
			recorder := transition.NewRecorder(clock)
			phases := newPhaseLog(clock)

			var ready chan struct{}
			if readyAfter > 0 {
				ready = make(chan struct{})
				go func() {
					<-clock.After(readyAfter)
					close(ready)
				}()
			}
			err := transition.RunIntro(cmd.Context(), clock, transition.IntroTimingsFromConfig(cfg),
				recorder.Target("loader"), ready, func(phase transition.IntroPhase) {
					phases.add(phase.String())
				})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]column{numCol("At"), col("Phase")}, phases.rows()))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 0, "Time scale (defaults to transition.time_scale)")
	cmd.Flags().DurationVar(&readyAfter, "ready-after", 0, "Simulate the page becoming ready after this long")
	return cmd
}

func renderEvents(out io.Writer, events []transition.Event) {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		detail := ev.Text
		if len(ev.Props) > 0 {
			detail = formatProps(ev.Props)
		}
		if ev.Kind == transition.EventStart {
			detail = fmt.Sprintf("%s over %s (%s)", detail, ev.Duration, ev.Easing)
		}
		rows = append(rows, []string{formatOffset(ev.At), ev.Target, string(ev.Kind), detail})
	}
	fmt.Fprint(out, renderTable([]column{numCol("At"), col("Target"), col("Kind"), wideCol("Detail", 72)}, rows))
	fmt.Fprintln(out)
}

func formatProps(props transition.Props) string {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", key, props[transition.Property(key)]))
	}
	return strings.Join(parts, " ")
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Round(time.Millisecond).Milliseconds())
}
