package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/lerobot-filter/pkg/filter"
	"github.com/gwillem/lerobot-filter/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("LeRobot Filter Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	// Step 1: Scan for arms and identify leader/follower
	config := scanForArms()

	// Step 2+3: Calibrate both arms, saving after each
	for _, step := range []struct {
		arm  *robot.ArmConfig
		name string
	}{
		{&config.Leader, "leader"},
		{&config.Follower, "follower"},
	} {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render(fmt.Sprintf("━━━ Calibrating %s arm ━━━", step.name)))
		fmt.Println()
		calibrateArm(step.arm, step.name)
		if err := config.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	// Step 4: Pick the filtered joints
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Interference filter ━━━"))
	fmt.Println()
	config.Filter = chooseFilterConfig()
	if err := config.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", robot.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("lerobot-filter teleoperate"))

	return nil
}

// chooseFilterConfig asks which joint pair couples and how aggressively to
// filter, starting from the SO-101 defaults (elbow_flex leaks into
// wrist_roll, gripper activity locks it).
func chooseFilterConfig() filter.Config {
	cfg := filter.DefaultConfig()

	jointOptions := func() []huh.Option[string] {
		var opts []huh.Option[string]
		for _, m := range robot.AllMotors() {
			opts = append(opts, huh.NewOption(string(m), string(m)))
		}
		return opts
	}()

	trigger := string(cfg.TriggerJoint)
	victim := string(cfg.VictimJoint)
	lock := string(cfg.LockJoint)
	adaptive := cfg.AdaptiveThreshold

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Trigger joint").
				Description("The joint whose motion causes unwanted coupling").
				Options(jointOptions...).
				Value(&trigger),
			huh.NewSelect[string]().
				Title("Victim joint").
				Description("The joint that picks up the unwanted motion").
				Options(jointOptions...).
				Value(&victim),
			huh.NewSelect[string]().
				Title("Lock joint").
				Description("Freezes the victim joint while it is moving").
				Options(jointOptions...).
				Value(&lock),
			huh.NewConfirm().
				Title("Adaptive threshold").
				Description("Learn the trigger threshold from recent motion").
				Affirmative("Adaptive").
				Negative("Fixed").
				Value(&adaptive),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	cfg.TriggerJoint = filter.Joint(trigger)
	cfg.VictimJoint = filter.Joint(victim)
	cfg.LockJoint = filter.Joint(lock)
	cfg.AdaptiveThreshold = adaptive

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid filter configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func scanForArms() *robot.Config {
	fmt.Println("Scanning for robot arms...")
	fmt.Println()

	arms := findArms()
	if len(arms) == 0 {
		fmt.Println("No SO-101 arms found.")
		fmt.Println("Make sure your arms are connected and powered on.")
		os.Exit(1)
	}

	fmt.Printf("Found %d arm(s). Let's identify them...\n\n", len(arms))

	var leaderPort, followerPort string
	for _, arm := range arms {
		switch identifyArmWithWiggle(arm, leaderPort == "", followerPort == "") {
		case "leader":
			leaderPort = arm.port
		case "follower":
			followerPort = arm.port
		}
		if leaderPort != "" && followerPort != "" {
			break
		}
	}

	fmt.Println()

	if leaderPort == "" || followerPort == "" {
		fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
		if leaderPort == "" {
			fmt.Println("Leader arm not identified.")
		}
		if followerPort == "" {
			fmt.Println("Follower arm not identified.")
		}
		fmt.Println()
		fmt.Println("Both leader and follower are required for teleoperation.")
		os.Exit(1)
	}

	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Arms identified:"))
	fmt.Printf("  Leader:   %s\n", leaderPort)
	fmt.Printf("  Follower: %s\n", followerPort)

	return &robot.Config{
		Leader:   robot.ArmConfig{Port: leaderPort},
		Follower: robot.ArmConfig{Port: followerPort},
		Filter:   filter.DefaultConfig(),
	}
}

func calibrateArm(armConfig *robot.ArmConfig, armName string) {
	fmt.Printf("Calibrating %s arm on %s\n", armName, armConfig.Port)
	fmt.Println()

	bus, servos, err := connectToArm(armConfig.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to arm: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Torque off so the user can move the arm freely
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println("Explore the full range of motion for all joints.")
	fmt.Println()

	motors := robot.AllMotors()
	cm := newCalibrationModel(motors, servoMap)
	for _, name := range motors {
		pos, _ := servoMap[robot.ServoID(name)].Position(ctx)
		cm.cur[name] = pos
		cm.min[name] = pos
		cm.max[name] = pos
	}

	finalModel, err := tea.NewProgram(cm).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}
	cm = finalModel.(calibrationModel)

	calibration := make(robot.Calibration, len(motors))
	for _, name := range motors {
		calibration[name] = robot.MotorCalibration{
			ID:       robot.ServoID(name),
			RangeMin: cm.min[name],
			RangeMax: cm.max[name],
		}
	}

	armConfig.Calibration = calibration
	fmt.Println()
	fmt.Printf("%s arm calibrated.\n", strings.ToUpper(armName[:1])+armName[1:])
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func findArms() []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var arms []armInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, 1, 6)
		cancel()
		if err != nil || !isSOArm(servos) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found SO-101 arm on %s\n", port)
		arms = append(arms, armInfo{port: port, servos: servos, bus: bus})
	}

	return arms
}

// isSOArm reports whether the scan found exactly servos 1-6.
func isSOArm(servos []feetech.FoundServo) bool {
	if len(servos) != 6 {
		return false
	}
	ids := make(map[int]bool, len(servos))
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

func identifyArmWithWiggle(arm armInfo, needLeader, needFollower bool) string {
	defer arm.bus.Close()

	ctx := context.Background()

	// Wiggle shoulder_pan so the user can tell which arm this is
	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == robot.ServoID(robot.ShoulderPan) {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return ""
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return ""
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return ""
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	const (
		wiggleAmount = 30
		moveTimeMs   = 500
	)
	for _, target := range []int{originalPos + wiggleAmount, originalPos - wiggleAmount, originalPos} {
		servo.SetPositionWithTime(ctx, target, moveTimeMs)
		time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	}
	servo.Disable(ctx)

	var options []huh.Option[string]
	if needLeader {
		options = append(options, huh.NewOption("Leader (the one you move by hand)", "leader"))
	}
	if needFollower {
		options = append(options, huh.NewOption("Follower (the one that follows)", "follower"))
	}
	options = append(options, huh.NewOption("Skip this arm", "skip"))

	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which arm is on %s?", arm.port)).
				Description("The arm that just wiggled").
				Options(options...).
				Value(&role),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	if role == "skip" {
		return ""
	}
	return role
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if !isSOArm(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("not an SO-101 arm (expected 6 servos with IDs 1-6)")
	}

	return bus, servos, nil
}

// Calibration TUI: live min/max tracking table while the user moves the arm.
type calibrationModel struct {
	motors   []robot.MotorName
	servoMap map[int]*feetech.Servo
	cur      map[robot.MotorName]int
	min      map[robot.MotorName]int
	max      map[robot.MotorName]int
	quitting bool
}

type tickMsg time.Time

func newCalibrationModel(motors []robot.MotorName, servoMap map[int]*feetech.Servo) calibrationModel {
	return calibrationModel{
		motors:   motors,
		servoMap: servoMap,
		cur:      make(map[robot.MotorName]int),
		min:      make(map[robot.MotorName]int),
		max:      make(map[robot.MotorName]int),
	}
}

func (m calibrationModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, name := range m.motors {
			servo := m.servoMap[robot.ServoID(name)]
			pos, err := servo.Position(ctx)
			if err != nil {
				continue
			}
			m.cur[name] = pos
			m.min[name] = min(m.min[name], pos)
			m.max[name] = max(m.max[name], pos)
		}
		return m, tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableMotorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.motors))
	ranges := make([]int, 0, len(m.motors))
	for _, name := range m.motors {
		span := m.max[name] - m.min[name]
		ranges = append(ranges, span)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", m.cur[name]),
			fmt.Sprintf("%d", m.min[name]),
			fmt.Sprintf("%d", m.max[name]),
			fmt.Sprintf("%d", span),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableMotorStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))
	return sb.String()
}
