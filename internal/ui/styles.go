package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the reading view.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

type styles struct {
	Title         lipgloss.Style
	Page          lipgloss.Style
	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	Announcement  lipgloss.Style
	StatusBar     lipgloss.Style
	StatusBarKey  lipgloss.Style
	StatusBarText lipgloss.Style
	Match         lipgloss.Style
	Prompt        lipgloss.Style
	Help          lipgloss.Style
	On            lipgloss.Style
}

// newStyles builds the palette for the current theme and contrast setting.
func newStyles(dark, highContrast bool) styles {
	fg, bg := lipgloss.Color("235"), lipgloss.Color("255")
	if dark {
		fg, bg = lipgloss.Color("252"), lipgloss.Color("235")
	}
	accent, muted := colorPrimary, colorSecondary
	if highContrast {
		fg, bg = lipgloss.Color("15"), lipgloss.Color("0")
		accent, muted = lipgloss.Color("11"), lipgloss.Color("15")
	}

	s := styles{}
	s.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Background(accent).
		Padding(0, 1)
	s.Page = lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Padding(1, 2)
	s.Sidebar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		MarginLeft(1)
	s.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorHighlight)
	s.Announcement = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorHighlight).
		Padding(0, 1)
	s.StatusBar = lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color("236")).
		Padding(0, 1)
	s.StatusBarKey = lipgloss.NewStyle().
		Foreground(colorHighlight).
		Bold(true)
	s.StatusBarText = lipgloss.NewStyle().
		Foreground(muted)
	s.Match = lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(colorHighlight)
	s.Prompt = lipgloss.NewStyle().
		Foreground(colorHighlight).
		Bold(true)
	s.Help = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)
	s.On = lipgloss.NewStyle().
		Foreground(colorSuccess)

	if highContrast {
		s.Title = s.Title.Foreground(lipgloss.Color("0"))
		s.Page = s.Page.Bold(true)
		s.Announcement = s.Announcement.Foreground(lipgloss.Color("11"))
	}
	return s
}
