package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette()

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	favorite lipgloss.Style
}

func newPalette() *Palette {
	return &Palette{
		title:    NewBold("#7D56F4").MarginBottom(1),
		ok:       NewBold("#04B575"),
		err:      NewBold("#FF5F56"),
		warn:     NewStyle("#FFA500"),
		help:     NewEm("#626262"),
		favorite: NewBold("#FFD700"),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
