package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwillem/lerobot-filter/pkg/motion"
	"github.com/gwillem/lerobot-filter/pkg/robot"
)

type RecordCommand struct {
	Output string `long:"output" short:"o" default:"recorded_motion.json" description:"Output file path"`
	FPS    int    `long:"fps" default:"30" description:"Recording frequency in Hz"`
}

func (c *RecordCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}
	if !cfg.Leader.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Leader arm not calibrated. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}
	if c.FPS < 1 {
		return fmt.Errorf("fps must be at least 1")
	}

	arm, err := robot.NewArm(cfg.Leader.Port, cfg.Leader.Calibration)
	if err != nil {
		log.Fatalf("Failed to connect to leader arm: %v", err)
	}
	defer arm.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Torque off so the arm can be moved by hand
	if err := arm.Disable(ctx); err != nil {
		log.Printf("Warning: failed to disable leader: %v", err)
	}

	fmt.Printf("Recording leader motion at %d Hz. Move the arm; Ctrl-C to stop.\n", c.FPS)

	rec := motion.Recording{FPS: c.FPS, Motors: robot.AllMotors()}
	start := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(c.FPS))
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			positions, err := arm.ReadPositions(ctx)
			if err != nil {
				if ctx.Err() != nil {
					break loop
				}
				log.Printf("Read error: %v", err)
				continue
			}
			rec.Frames = append(rec.Frames, motion.Frame{
				T:         time.Since(start).Seconds(),
				Positions: positions,
			})
		}
	}

	if len(rec.Frames) == 0 {
		fmt.Println("\nNothing recorded.")
		return nil
	}

	if err := rec.Save(c.Output); err != nil {
		log.Fatalf("Failed to save recording: %v", err)
	}

	fmt.Printf("\nRecording saved to %s\n", c.Output)
	fmt.Printf("Frames: %d, duration: %.2fs\n", len(rec.Frames), rec.Duration())
	return nil
}
