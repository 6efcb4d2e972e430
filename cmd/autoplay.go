package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/drivemind/internal/app"
	"github.com/okian/drivemind/internal/autoplay"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
)

const defaultRemoteTimeout = 10 * time.Second

type autoplayFlags struct {
	policy    string
	rounds    int
	scenarios []int
	reaction  time.Duration
	jitter    time.Duration
	seed      uint64
	url       string
	realtime  bool
}

func (c *cli) newAutoplayCommand() *cobra.Command {
	var f autoplayFlags
	cmd := &cobra.Command{
		Use:   "autoplay",
		Short: "Let a scripted driver play scenarios",
		Long: `Play scenarios with a scripted driver and record the results in the profile.

Locally the runs use a synthetic clock and finish instantly unless --realtime
is set. With --url the bot plays against a running server in real time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.autoplay(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.policy, "policy", string(autoplay.PolicySafe), "decision policy: safe, risky, random, neutral-first")
	fl.IntVar(&f.rounds, "rounds", 1, "times to play each scenario")
	fl.IntSliceVar(&f.scenarios, "scenarios", nil, "scenario ids to play (default: the whole catalog)")
	fl.DurationVar(&f.reaction, "reaction", 800*time.Millisecond, "delay before answering a decision")
	fl.DurationVar(&f.jitter, "jitter", 0, "random extra reaction delay, up to this much")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (0 picks one)")
	fl.StringVar(&f.url, "url", "", "base URL of a running server, e.g. http://localhost:9080")
	fl.BoolVar(&f.realtime, "realtime", false, "play locally on the wall clock")
	return cmd
}

func (c *cli) autoplay(ctx context.Context, f autoplayFlags) error {
	policy, err := autoplay.ParsePolicy(f.policy)
	if err != nil {
		return err
	}
	if f.rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", f.rounds)
	}

	log := logger.Get().Named("autoplay")
	opts := []autoplay.Option{
		autoplay.WithPolicy(policy),
		autoplay.WithReactionDelay(f.reaction),
		autoplay.WithJitter(f.jitter),
		autoplay.WithLogger(log),
	}
	if f.seed != 0 {
		opts = append(opts, autoplay.WithSeed(f.seed))
	}

	var (
		player *autoplay.Player
		ids    = f.scenarios
		names  = map[int]string{}
	)

	if f.url != "" {
		client := autoplay.NewClient(f.url, defaultRemoteTimeout)
		scenarios, err := client.Scenarios(ctx)
		if err != nil {
			return err
		}
		for _, s := range scenarios {
			names[s.ID] = s.Name
			if len(f.scenarios) == 0 {
				ids = append(ids, s.ID)
			}
		}
		player = autoplay.New(client, autoplay.Wall(), opts...)
	} else {
		var (
			clock     autoplay.Clock
			svcOption service.Option
		)
		if f.realtime {
			clock = autoplay.Wall()
			svcOption = service.WithClock(simulation.SystemClock{})
		} else {
			manual := simulation.NewManualClock(time.Now())
			clock = autoplay.Synthetic(manual)
			svcOption = service.WithClock(manual)
		}

		svc, err := c.openService(ctx, svcOption)
		if err != nil {
			return err
		}
		defer stopService(ctx, svc)

		for _, s := range svc.Scenarios() {
			names[s.ID] = s.Name
			if len(f.scenarios) == 0 {
				ids = append(ids, s.ID)
			}
		}
		player = autoplay.New(svc, clock, opts...)
	}

	stats, err := player.PlayAll(ctx, ids, f.rounds)
	for _, r := range stats.Results {
		fmt.Fprintf(c.out, "%-28s %3d %-2s %5dms  %d decisions\n",
			names[r.ScenarioID], r.Score, gradeColor(r.Grade), r.ReactionTime, len(r.Decisions))
	}
	fmt.Fprintf(c.out, "%s %d runs, mean score %.1f, policy %s\n",
		bold("Done:"), stats.Runs, stats.MeanScore(), stats.Policy)
	stats.Log(ctx, log)
	return err
}
