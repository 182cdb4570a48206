package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwillem/lerobot-filter/pkg/filter"
	"github.com/gwillem/lerobot-filter/pkg/motion"
	"github.com/gwillem/lerobot-filter/pkg/robot"
)

type ReplayCommand struct {
	Input      string `long:"input" short:"i" required:"true" description:"Recording file to replay"`
	Loop       bool   `long:"loop" description:"Loop the replay until interrupted"`
	WithFilter bool   `long:"with-filter" description:"Run the interference filter over the recorded frames"`
}

func (c *ReplayCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}
	if !cfg.Follower.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Follower arm not calibrated. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}

	rec, err := motion.Load(c.Input)
	if err != nil {
		log.Fatalf("Failed to load recording: %v", err)
	}
	fmt.Printf("Loaded %s: %d frames, %.2fs at %d Hz\n",
		c.Input, len(rec.Frames), rec.Duration(), rec.FPS)

	arm, err := robot.NewArm(cfg.Follower.Port, cfg.Follower.Calibration)
	if err != nil {
		log.Fatalf("Failed to connect to follower arm: %v", err)
	}
	defer arm.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := arm.Enable(ctx); err != nil {
		log.Fatalf("Failed to enable follower: %v", err)
	}
	defer arm.Disable(context.Background())

	for {
		if err := c.replayOnce(ctx, arm, rec, cfg.Filter); err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nReplay interrupted.")
				return nil
			}
			return err
		}
		if !c.Loop {
			break
		}
	}

	fmt.Println("Replay finished.")
	return nil
}

func (c *ReplayCommand) replayOnce(ctx context.Context, arm *robot.Arm, rec *motion.Recording, filterCfg filter.Config) error {
	var pipeline *filter.Pipeline
	if c.WithFilter {
		// Fresh pipeline per pass so loops do not share history
		p, err := filter.NewPipeline(filterCfg)
		if err != nil {
			return fmt.Errorf("create filter pipeline: %w", err)
		}
		pipeline = p
	}

	ticker := time.NewTicker(time.Second / time.Duration(rec.FPS))
	defer ticker.Stop()

	for i, f := range rec.Frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		positions := f.Positions
		if pipeline != nil {
			out, err := pipeline.Process(filter.Frame{
				Seq:       uint64(i + 1),
				Positions: toFilterFrame(positions),
			})
			if err != nil {
				return fmt.Errorf("filter frame %d: %w", i, err)
			}
			positions = fromFilterFrame(out.Positions)
		}

		if err := arm.WritePositions(ctx, positions); err != nil {
			log.Printf("Write error at frame %d: %v", i, err)
		}
	}

	if pipeline != nil {
		s := pipeline.Snapshot()
		fmt.Printf("Filter: %d/%d frames corrected (%.1f%%)\n",
			s.FilteredFrames, s.TotalFrames, s.FilterRate*100)
	}
	return nil
}

func toFilterFrame(positions map[robot.MotorName]float64) map[filter.Joint]float64 {
	out := make(map[filter.Joint]float64, len(positions))
	for name, pos := range positions {
		out[filter.Joint(name)] = pos
	}
	return out
}

func fromFilterFrame(positions map[filter.Joint]float64) map[robot.MotorName]float64 {
	out := make(map[robot.MotorName]float64, len(positions))
	for j, pos := range positions {
		out[robot.MotorName(j)] = pos
	}
	return out
}
