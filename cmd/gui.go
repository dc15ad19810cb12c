package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/logger"
	"mod-aggregator/search"
	"mod-aggregator/ui"
)

// guiCmd represents the gui command
var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Launch the interactive search interface",
	Long:  `Launch an interactive TUI that searches both platforms live and shows merged results.`,
	Run: func(_ *cobra.Command, _ []string) {
		runGUI()
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

const guiSearchLimit = 20

// Model represents the state of the TUI
type Model struct {
	input     textinput.Model
	spin      spinner.Model
	results   []search.Result
	followups []search.Followup
	searching bool
	error     string
	message   string
	width     int
	height    int
	app       *app
	svc       *search.Service
}

type resultsMsg struct {
	results   []search.Result
	followups []search.Followup
}

type errorMsg string

type followupsDoneMsg int

type clearMessageMsg struct{}

// Initialize the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" || m.searching {
				return m, nil
			}
			m.searching = true
			m.error = ""
			m.message = ""
			return m, tea.Batch(m.runSearch(query), m.spin.Tick)
		case "ctrl+r":
			if len(m.followups) == 0 || m.searching {
				return m, nil
			}
			followups := m.followups
			m.followups = nil
			return m, m.runFollowups(followups)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case resultsMsg:
		m.searching = false
		m.results = msg.results
		m.followups = msg.followups
	case errorMsg:
		m.searching = false
		m.error = string(msg)
	case followupsDoneMsg:
		m.message = fmt.Sprintf("Dispatched %d catalog updates", int(msg))
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearMessageMsg{}
		})
	case clearMessageMsg:
		m.message = ""
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.searching {
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		results, followups, err := m.svc.Search(context.Background(), query, guiSearchLimit)
		if err != nil {
			logger.Log.Errorw("Search failed", zap.String("query", query), zap.Error(err))
			return errorMsg(fmt.Sprintf("Search failed: %v", err))
		}
		return resultsMsg{results: results, followups: followups}
	}
}

func (m Model) runFollowups(followups []search.Followup) tea.Cmd {
	return func() tea.Msg {
		dispatchFollowups(context.Background(), m.app, followups)
		return followupsDoneMsg(len(followups))
	}
}

// View renders the UI
func (m Model) View() string {
	var output string
	output += ui.TitleStyle.Render("mod-aggregator") + "\n\n"
	output += m.input.View() + "\n\n"

	if m.searching {
		output += m.spin.View() + " Searching...\n"
		return output
	}

	if m.error != "" {
		output += fmt.Sprintf("Error: %s\n", m.error)
		return output
	}

	for _, r := range m.results {
		output += m.renderResultRow(r) + "\n"
	}
	if len(m.results) == 0 && m.input.Value() != "" {
		output += ui.FaintStyle.Render("No results.") + "\n"
	}

	output += "\n" + renderGUIFooter(len(m.followups))
	if m.message != "" {
		output += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.message)
	}
	return output
}

func (m Model) renderResultRow(r search.Result) string {
	platforms := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		platforms = append(platforms, s.Platform)
	}
	return fmt.Sprintf(" %-45s %8s  %s",
		truncate(r.Name, 43),
		ui.FormatDownloads(r.TotalDownloads),
		ui.Badges(platforms),
	)
}

func renderGUIFooter(pendingFollowups int) string {
	help := "enter: search  ctrl+r: dispatch catalog updates  esc: quit"
	if pendingFollowups > 0 {
		help += fmt.Sprintf("  (%d pending)", pendingFollowups)
	}
	return ui.FaintStyle.Render(help)
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

func runGUI() {
	a := bootstrap(".")
	svc, c := a.searchService()
	defer func() { _ = c.Close() }()

	input := textinput.New()
	input.Placeholder = "Search mods..."
	input.Focus()
	input.CharLimit = 100
	input.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		input:  input,
		spin:   spin,
		width:  80,
		height: 24,
		app:    a,
		svc:    svc,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("Failed to run GUI", zap.Error(err))
	}
}
