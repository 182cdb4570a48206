package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/lerobot-filter/pkg/filter"
	"github.com/gwillem/lerobot-filter/pkg/robot"
	"github.com/gwillem/lerobot-filter/pkg/teleop"
)

type TeleoperateCommand struct {
	Hz       int    `long:"hz" default:"60" description:"Control loop frequency"`
	Mirror   bool   `long:"mirror" description:"Mirror mode: invert shoulder_pan and wrist_roll positions"`
	NoFilter bool   `long:"no-filter" description:"Disable the interference filter (raw pass-through)"`
	Log      string `long:"log" description:"Write a CSV session log of raw and filtered positions"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	statsHeight  = 2 // filter stats row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Chart series: the victim joint before and after correction, plus the
// trigger joint causing the coupling.
const (
	seriesRaw      = "raw"
	seriesFiltered = "filtered"
	seriesTrigger  = "trigger"
)

var seriesColors = map[string]string{
	seriesRaw:      "196", // red
	seriesFiltered: "46",  // green
	seriesTrigger:  "226", // yellow
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	firedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

type teleopModel struct {
	ctrl     *teleop.Controller
	cfg      filter.Config
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	stats    filter.Snapshot
	quitting bool
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - statsHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, cfg filter.Config) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)

	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		cfg:   cfg,
		chart: &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.ctrl.ResetStats()
			return m, nil
		}

	case stateMsg:
		state := teleop.State(msg)
		if state.Raw != nil {
			m.chart.PushDataSet(seriesRaw, state.Raw[robot.MotorName(m.cfg.VictimJoint)])
			m.chart.PushDataSet(seriesFiltered, state.Filtered[robot.MotorName(m.cfg.VictimJoint)])
			m.chart.PushDataSet(seriesTrigger, state.Raw[robot.MotorName(m.cfg.TriggerJoint)])
			m.chart.DrawAll()
			m.stats = state.Stats
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("LeRobot Filter"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	// Filter stats
	sb.WriteString(m.renderStats())
	sb.WriteString("\n\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit, 'r' to reset filter stats")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m teleopModel) renderLegend() string {
	labels := map[string]string{
		seriesRaw:      fmt.Sprintf("%s (raw)", m.cfg.VictimJoint),
		seriesFiltered: fmt.Sprintf("%s (filtered)", m.cfg.VictimJoint),
		seriesTrigger:  string(m.cfg.TriggerJoint),
	}
	var items []string
	for _, name := range []string{seriesRaw, seriesFiltered, seriesTrigger} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+labels[name])
	}
	return strings.Join(items, "  ")
}

func (m teleopModel) renderStats() string {
	if !m.ctrl.Filtering() {
		return statusStyle.Render("filter: off")
	}
	s := m.stats
	line := fmt.Sprintf("filter: %d/%d (%.1f%%)  gate: %d  lock: %d  deadzone: %d  threshold: %.2f",
		s.FilteredFrames, s.TotalFrames, s.FilterRate*100,
		s.GateFrames, s.LockFrames, s.DeadzoneFrames, s.Threshold)
	if s.TotalFrames > 0 && s.FilteredFrames > 0 {
		return firedStyle.Render(line)
	}
	return statusStyle.Render(line)
}

func (c *TeleoperateCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}

	if cfg.Leader.Port == "" || cfg.Follower.Port == "" {
		fmt.Fprintln(os.Stderr, "Arms not configured. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}
	if !cfg.Leader.IsCalibrated() || !cfg.Follower.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Arms not calibrated. Run 'lerobot-filter setup' first.")
		os.Exit(1)
	}

	fmt.Printf("Loaded configuration from %s\n", robot.DefaultConfigFile)

	filterCfg := cfg.Filter
	var pipelineCfg *filter.Config
	if !c.NoFilter {
		pipelineCfg = &filterCfg
	}

	ctrl, err := teleop.NewController(teleop.Config{
		LeaderPort:          cfg.Leader.Port,
		LeaderCalibration:   cfg.Leader.Calibration,
		FollowerPort:        cfg.Follower.Port,
		FollowerCalibration: cfg.Follower.Calibration,
		Hz:                  c.Hz,
		Mirror:              c.Mirror,
		Filter:              pipelineCfg,
		LogPath:             c.Log,
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	p := tea.NewProgram(initialTeleopModel(ctrl, filterCfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
