package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup       SetupCommand       `command:"setup" description:"Scan for arms, calibrate them, and pick the filtered joints"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"teleop" description:"Start filtered teleoperation (leader-follower control)"`
	Record      RecordCommand      `command:"record" description:"Record leader arm motion to a file"`
	Replay      ReplayCommand      `command:"replay" description:"Replay a recorded motion on the follower arm"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "LeRobot Filter - SO-101 teleoperation with adaptive cross-joint interference filtering"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
