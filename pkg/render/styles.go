package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Warm earth-tone palette shared by every view
var (
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground
	ColorBase07 = lipgloss.Color("#f5d7b9") // Lightest foreground

	ColorRed    = lipgloss.Color("#d95f5f")
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761")
	ColorGreen  = lipgloss.Color("#93b56b")
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorBlue   = lipgloss.Color("#6b93b5")

	ColorBorder = ColorBase03
	ColorError  = ColorRed
	ColorMuted  = ColorBase03
	ColorFocus  = ColorOrange
)

// Styles holds the lipgloss styles used for transcript output
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorLabel     lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	ErrorMessage     lipgloss.Style

	CodeBlock  lipgloss.Style
	InlineCode lipgloss.Style

	DocumentTitle lipgloss.Style
	DocumentMeta  lipgloss.Style
	DocumentBlurb lipgloss.Style
	DocumentBox   lipgloss.Style
	Citation      lipgloss.Style

	Status lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the default styles
func DefaultStyles() *Styles {
	return &Styles{
		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(ColorOrange),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(ColorBlue),
		ErrorLabel:     lipgloss.NewStyle().Bold(true).Foreground(ColorError),

		UserMessage:      lipgloss.NewStyle().Foreground(ColorBase07),
		AssistantMessage: lipgloss.NewStyle().Foreground(ColorBase05),
		ErrorMessage:     lipgloss.NewStyle().Foreground(ColorError),

		CodeBlock: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorYellow).
			Padding(0, 1),
		InlineCode: lipgloss.NewStyle().Foreground(ColorYellow),

		DocumentTitle: lipgloss.NewStyle().Bold(true).Foreground(ColorCyan),
		DocumentMeta:  lipgloss.NewStyle().Foreground(ColorMuted),
		DocumentBlurb: lipgloss.NewStyle().Foreground(ColorBase05),
		DocumentBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		Citation: lipgloss.NewStyle().Foreground(ColorGreen),

		Status: lipgloss.NewStyle().Foreground(ColorFocus).Italic(true),
		Muted:  lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// PlainStyles returns styles that add no colour or borders
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		UserLabel:        plain,
		AssistantLabel:   plain,
		ErrorLabel:       plain,
		UserMessage:      plain,
		AssistantMessage: plain,
		ErrorMessage:     plain,
		CodeBlock:        plain,
		InlineCode:       plain,
		DocumentTitle:    plain,
		DocumentMeta:     plain,
		DocumentBlurb:    plain,
		DocumentBox:      plain,
		Citation:         plain,
		Status:           plain,
		Muted:            plain,
	}
}
