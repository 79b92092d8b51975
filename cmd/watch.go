// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chirp-tools/budsctl/pkg/budspro"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live status dashboard",
	Long: `Watch earbud status in an interactive terminal UI.

Shows battery, placement, noise controls and touchpad state as they change,
along with a log of recent protocol messages.

Keys:
  n  cycle noise control mode (off -> anc -> ambient)
  l  toggle touchpad lock
  f  start/stop the find-my-earbuds chirp
  q  quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type watchTickMsg time.Time

type watchEventMsg struct {
	line string
}

type watchClosedMsg struct{}

type watchActionMsg struct {
	what string
	err  error
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type watchModel struct {
	dev      *budspro.Device
	connInfo string

	status  budspro.DeviceStatus
	spinner spinner.Model

	eventLog      []string
	maxLogEntries int

	chirping       bool
	pendingAction  string
	connectionLost bool
	width          int
	height         int
	quitting       bool
}

func initialWatchModel(dev *budspro.Device, connInfo string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return watchModel{
		dev:           dev,
		connInfo:      connInfo,
		spinner:       sp,
		eventLog:      make([]string, 0),
		maxLogEntries: 12,
		width:         80,
		height:        24,
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, watchTick())
}

//////////////////////////////////////////////////////////////
// Update
//////////////////////////////////////////////////////////////

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "n":
			if m.pendingAction == "" && !m.connectionLost {
				next := nextNoiseMode(m.status.NoiseControls)
				m.pendingAction = "noise"
				return m, m.setNoiseCmd(next)
			}
		case "l":
			if m.pendingAction == "" && !m.connectionLost {
				m.pendingAction = "touchpad"
				return m, m.setLockCmd(!m.status.TouchpadLocked)
			}
		case "f":
			if m.pendingAction == "" && !m.connectionLost {
				m.pendingAction = "find"
				return m, m.toggleFindCmd(!m.chirping)
			}
		}
		return m, nil

	case watchTickMsg:
		m.status = m.dev.Status().Current()
		return m, watchTick()

	case watchEventMsg:
		m.eventLog = append(m.eventLog, msg.line)
		if len(m.eventLog) > m.maxLogEntries {
			m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
		}
		return m, nil

	case watchClosedMsg:
		m.connectionLost = true
		return m, nil

	case watchActionMsg:
		m.pendingAction = ""
		if msg.err != nil {
			m.eventLog = append(m.eventLog, fmt.Sprintf("%s failed: %v", msg.what, msg.err))
		} else if msg.what == "find" {
			m.chirping = !m.chirping
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func nextNoiseMode(mode budspro.NoiseControlMode) budspro.NoiseControlMode {
	switch mode {
	case budspro.NoiseControlOff:
		return budspro.NoiseControlANC
	case budspro.NoiseControlANC:
		return budspro.NoiseControlAmbient
	default:
		return budspro.NoiseControlOff
	}
}

func (m watchModel) setNoiseCmd(mode budspro.NoiseControlMode) tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		return watchActionMsg{what: "noise", err: dev.SetNoiseControls(mode, requestTimeout)}
	}
}

func (m watchModel) setLockCmd(locked bool) tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		return watchActionMsg{what: "touchpad", err: dev.SetTouchpadLock(locked, requestTimeout)}
	}
}

func (m watchModel) toggleFindCmd(start bool) tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		var err error
		if start {
			err = dev.StartFindMyEarbuds(requestTimeout)
		} else {
			err = dev.StopFindMyEarbuds(requestTimeout)
		}
		return watchActionMsg{what: "find", err: err}
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("BUDSCTL - STATUS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | n: noise  l: lock  f: find  q: quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.connectionLost {
		s.WriteString(errorStyle.Render("✗ Connection lost"))
		s.WriteString("\n\n")
	} else if !m.status.HasExtended {
		s.WriteString(m.spinner.View())
		s.WriteString(warningStyle.Render(" Waiting for status..."))
		s.WriteString("\n\n")
	}

	if m.status.HasExtended {
		content := strings.Builder{}
		content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			labelStyle.Render("Left:"), renderBattery(valueStyle, warningStyle, errorStyle, m.status.BatteryLeft),
			labelStyle.Render("Right:"), renderBattery(valueStyle, warningStyle, errorStyle, m.status.BatteryRight),
			labelStyle.Render("Case:"), renderCase(valueStyle, headerStyle, m.status.BatteryCase),
		))
		content.WriteString(fmt.Sprintf("%s %s / %s\n",
			labelStyle.Render("Placement:"),
			valueStyle.Render(budspro.FormatPlacement(m.status.PlacementLeft)),
			valueStyle.Render(budspro.FormatPlacement(m.status.PlacementRight)),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Noise:"), valueStyle.Render(budspro.FormatNoiseControls(m.status.NoiseControls)),
			labelStyle.Render("Equalizer:"), valueStyle.Render(budspro.FormatEqualizer(m.status.EqualizerType)),
		))
		content.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Touchpad:"), func() string {
				if m.status.TouchpadLocked {
					return warningStyle.Render("locked")
				}
				return valueStyle.Render("unlocked")
			}(),
		))
		if m.chirping {
			content.WriteString(fmt.Sprintf("   %s %s", labelStyle.Render("Find:"), warningStyle.Render("chirping")))
		}
		s.WriteString(boxStyle.Render(content.String()))
		s.WriteString("\n\n")
	}

	if len(m.eventLog) > 0 {
		s.WriteString(labelStyle.Render("Recent messages:"))
		s.WriteString("\n")
		for _, line := range m.eventLog {
			s.WriteString(headerStyle.Render(line))
			s.WriteString("\n")
		}
	}

	return s.String()
}

func renderBattery(valueStyle, warningStyle, errorStyle lipgloss.Style, pct int) string {
	text := fmt.Sprintf("%d%%", pct)
	switch {
	case pct <= 10:
		return errorStyle.Render(text)
	case pct <= 25:
		return warningStyle.Render(text)
	default:
		return valueStyle.Render(text)
	}
}

func renderCase(valueStyle, headerStyle lipgloss.Style, pct int) string {
	if pct < 0 {
		return headerStyle.Render("unknown")
	}
	return valueStyle.Render(fmt.Sprintf("%d%%", pct))
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

func runWatch(cmd *cobra.Command, args []string) error {
	dev, connInfo, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	m := initialWatchModel(dev, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Feed protocol events into the TUI as they arrive.
	sub := dev.Subscribe(budspro.MatchAny, budspro.WithBuffer(64))
	go func() {
		for msg := range sub.Messages() {
			p.Send(watchEventMsg{
				line: fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), budspro.FormatMessage(msg)),
			})
		}
		p.Send(watchClosedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
