package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Brand colors for the platform badges.
var (
	modrinthStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1BD96A")).Bold(true)
	curseforgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F16436")).Bold(true)
	unknownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	SummaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	FaintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	AccentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// PlatformBadge renders a platform identifier in its brand color.
func PlatformBadge(platform string) string {
	switch strings.ToLower(platform) {
	case "modrinth":
		return modrinthStyle.Render("[modrinth]")
	case "curseforge":
		return curseforgeStyle.Render("[curseforge]")
	}
	return unknownStyle.Render("[" + platform + "]")
}

// Badges renders the badge row for a set of platforms.
func Badges(platforms []string) string {
	badges := make([]string, 0, len(platforms))
	for _, p := range platforms {
		badges = append(badges, PlatformBadge(p))
	}
	return strings.Join(badges, " ")
}

// FormatDownloads humanizes a download count: 1234 -> "1.2K",
// 7000000 -> "7.0M".
func FormatDownloads(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}
