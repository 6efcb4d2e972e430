package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/drivemind/internal/domain/simulation"
)

const defaultPollInterval = 100 * time.Millisecond

func (c *cli) newPlayCommand() *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "play <scenario-id>",
		Short: "Play a scenario interactively in the terminal",
		Long: `Play a scenario in real time. When a decision appears, type the number of
an option and press enter. Type f to end the run early or q to quit without
recording a result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("scenario id %q: %w", args[0], err)
			}
			if poll <= 0 {
				poll = defaultPollInterval
			}
			return c.play(cmd.Context(), id, poll)
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", defaultPollInterval, "how often the run is advanced")
	return cmd
}

// playView remembers what was last printed so only changes are shown.
type playView struct {
	countdown int
	remaining int
	pending   int
	started   bool
}

func (c *cli) play(ctx context.Context, scenarioID int, poll time.Duration) error {
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer stopService(ctx, svc)

	sc, err := svc.Scenario(scenarioID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n%s\n", sc.Icon, bold(sc.Name), gray(sc.Description))
	fmt.Fprintln(c.out, gray("option number + enter to decide, f to finish, q to quit"))

	snap, err := svc.StartRun(ctx, scenarioID)
	if err != nil {
		return err
	}
	runID := snap.RunID

	lines := make(chan string)
	go scanLines(ctx, c.in, lines)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	view := playView{countdown: -1, remaining: -1, pending: -1}
	c.render(&view, snap)
	for snap.Phase.Active() {
		select {
		case <-ctx.Done():
			_ = svc.Abandon(context.WithoutCancel(ctx), runID)
			return fmt.Errorf("play interrupted: %w", ctx.Err())
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
			case "":
				continue
			case "q":
				if err := svc.Abandon(ctx, runID); err != nil {
					return err
				}
				fmt.Fprintln(c.out, red("run abandoned"))
				return nil
			case "f":
				if _, err := svc.Finish(ctx, runID); err != nil {
					if errors.Is(err, simulation.ErrNotRunning) {
						fmt.Fprintln(c.out, yellow("the run has not started yet"))
						continue
					}
					return err
				}
			default:
				n, err := strconv.Atoi(cmd)
				if err != nil {
					fmt.Fprintln(c.out, yellow("type an option number, f or q"))
					continue
				}
				_, next, err := svc.Resolve(ctx, runID, n-1)
				if errors.Is(err, simulation.ErrInvalidOption) {
					fmt.Fprintln(c.out, yellow(fmt.Sprintf("no option %d", n)))
					continue
				}
				if err != nil {
					return err
				}
				snap = next
				c.render(&view, snap)
				continue
			}
		case <-ticker.C:
		}

		if snap, err = svc.Run(ctx, runID); err != nil {
			return err
		}
		c.render(&view, snap)
	}

	if snap.Phase != simulation.PhaseFinished || snap.Result == nil {
		fmt.Fprintln(c.out, red("run abandoned"))
		return nil
	}
	printResult(c.out, sc.Name, *snap.Result)
	return nil
}

// render prints whatever changed since the previous snapshot.
func (c *cli) render(v *playView, snap simulation.Snapshot) {
	switch snap.Phase {
	case simulation.PhaseCountdown:
		if snap.Countdown != v.countdown && snap.Countdown > 0 {
			fmt.Fprintf(c.out, "%s\n", bold(fmt.Sprintf("%d...", snap.Countdown)))
		}
		v.countdown = snap.Countdown
		return
	case simulation.PhaseRunning, simulation.PhasePending:
		if !v.started {
			v.started = true
			fmt.Fprintln(c.out, green("GO!"))
		}
	default:
		return
	}

	if snap.Remaining != v.remaining {
		v.remaining = snap.Remaining
		fmt.Fprintln(c.out, gray(fmt.Sprintf("%ds left", snap.Remaining)))
	}
	if snap.Pending != nil && snap.Pending.Index != v.pending {
		v.pending = snap.Pending.Index
		fmt.Fprintf(c.out, "%s\n", bold("Decide now:"))
		for i, o := range snap.Pending.Options {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, o.Label)
		}
	}
}

// scanLines forwards input lines until EOF or ctx is done, then closes out.
func scanLines(ctx context.Context, in io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}
