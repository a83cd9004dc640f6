// Command hasim runs hybrid automata against a simulated robot. Definitions
// are read from the files given as arguments and hot-swapped from the
// configured definition directories while the control loop runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gonum.org/v1/gonum/floats"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/builder"
	"github.com/comalice/hybridx/internal/config"
	"github.com/comalice/hybridx/internal/core"
	"github.com/comalice/hybridx/internal/extensibility"
	"github.com/comalice/hybridx/internal/production"
	"github.com/comalice/hybridx/internal/sim"
	"github.com/comalice/hybridx/realtime"
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	duration := flag.Duration("duration", 0, "stop after this long (0: run until interrupted)")
	exitAtGoal := flag.Bool("exit-at-goal", false, "stop once the goal milestone is reached")
	every := flag.Duration("print-every", 100*time.Millisecond, "telemetry interval")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if err := run(*configPath, *duration, *every, *exitAtGoal, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "hasim:", err)
		os.Exit(1)
	}
}

func run(configPath string, duration, every time.Duration, exitAtGoal bool, files []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(log)

	period := cfg.Scheduler.Period
	robot := sim.NewRobot(cfg.Robot.Dof, period, sim.WithInitial(cfg.Robot.Initial...))
	exprCache, err := extensibility.NewProgramCache(cfg.Definitions.ExprCacheSize)
	if err != nil {
		return err
	}
	compiler := core.NewCompiler(
		core.WithPeriod(period),
		core.WithExprCache(exprCache),
		core.WithLogger(log),
		core.WithEpsilon(cfg.Convergence.Epsilon),
		core.WithInterpolationDefaults(cfg.InterpolationDefaults()),
	)

	decimation := uint64(max(1, every.Seconds()/period))
	pub := production.NewChannelPublisher(64, decimation)
	sensors := hybridx.NewBlackboard()

	sched, err := realtime.NewScheduler(robot, cfg.RealtimeConfig(),
		realtime.WithLogger(log),
		realtime.WithParser(compiler.CompileBytes),
		realtime.WithPublisher(pub),
		realtime.WithBlackboard(sensors),
		realtime.WithCriterion(extensibility.NewLoggingCriterion(hybridx.LocalCriterion{}, log)),
		realtime.WithIdleSet(builder.HoldSet(period)),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("stop failed", "error", err)
		}
		pub.Close()
	}()

	for _, f := range files {
		if err := submitFile(sched, f); err != nil {
			return err
		}
	}

	if len(cfg.Definitions.Dirs) > 0 {
		src, err := extensibility.NewDirectorySource(log, cfg.Definitions.Dirs...)
		if err != nil {
			return err
		}
		defer src.Close()
		go func() {
			if err := src.Run(ctx, sched); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("definition source stopped", "error", err)
			}
		}()
	}

	return monitor(ctx, pub, sensors, log, exitAtGoal)
}

func submitFile(sched *realtime.Scheduler, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	id, err := sched.SubmitDefinition(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("definition submitted", "file", path, "job", id)
	return nil
}

// monitor prints telemetry and feeds the commanded force back as the
// "force" sensor.
func monitor(ctx context.Context, pub *production.ChannelPublisher, sensors *hybridx.Blackboard, log *slog.Logger, exitAtGoal bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-pub.Snapshots():
			sensors.Set("force", floats.Norm(snap.Command, 2))
			log.Info("tick",
				"t", snap.T,
				"automaton", snap.Automaton,
				"behaviour", snap.Behaviour,
				"q", snap.Configuration,
				"cmd", snap.Command,
				"elapsed", snap.Elapsed,
				"ttc", snap.TimeToConverge,
			)
			if exitAtGoal && snap.Automaton != "" && !snap.Active {
				log.Info("goal reached, exiting", "t", snap.T)
				return nil
			}
		}
	}
}
