package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/notenexus/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	kinds map[models.Kind]lipgloss.Style
}

// NewPalette builds a [Palette] from title, success, error, warning and help colors.
// Kind badges reuse the title, success and warning colors.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		kinds: map[models.Kind]lipgloss.Style{
			models.KindNote:     NewStyle(t),
			models.KindSyllabus: NewStyle(s),
			models.KindPaper:    NewStyle(w),
		},
	}
}

// badge renders the kind's label in its color.
func (p *Palette) badge(kind models.Kind) string {
	style, ok := p.kinds[kind]
	if !ok {
		return kind.Label()
	}
	return style.Render(kind.Label())
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
