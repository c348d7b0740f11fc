package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title       lipgloss.Style
	ModePill    lipgloss.Style
	Section     lipgloss.Style
	MetaLabel   lipgloss.Style
	MetaValue   lipgloss.Style
	StateIdle   lipgloss.Style
	StateWarn   lipgloss.Style
	StateLoad   lipgloss.Style
	ActiveLine  lipgloss.Style
	Thumb       lipgloss.Style
	ThumbActive lipgloss.Style
	Control     lipgloss.Style
	ControlOff  lipgloss.Style
	Caption     lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:    lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:     lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		MetaLabel:   lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:   lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:   lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:   lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:   lipgloss.NewStyle().Foreground(cpPeach),
		ActiveLine:  lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		Thumb:       lipgloss.NewStyle().Foreground(cpSubtext1),
		ThumbActive: lipgloss.NewStyle().Bold(true).Foreground(cpYellow),
		Control:     lipgloss.NewStyle().Foreground(cpText),
		ControlOff:  lipgloss.NewStyle().Foreground(cpOverlay1).Strikethrough(true),
		Caption:     lipgloss.NewStyle().Foreground(cpSubtext1),
	}
}

// StylePageLabel renders a thumbnail label, highlighting the page the pane
// currently shows.
func (t Theme) StylePageLabel(active bool, label string) string {
	if active {
		return t.ThumbActive.Render(label)
	}
	return t.Thumb.Render(label)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
