package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// ui renders command output. Styles degrade to plain text when w is not a
// terminal.
type ui struct {
	w      io.Writer
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	dim    lipgloss.Style
}

func newUI(w io.Writer) *ui {
	r := lipgloss.NewRenderer(w)
	return &ui{
		w:      w,
		header: r.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("245")).Width(12),
		value:  r.NewStyle().Foreground(lipgloss.Color("252")),
		good:   r.NewStyle().Foreground(lipgloss.Color("82")),
		bad:    r.NewStyle().Foreground(lipgloss.Color("203")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

func (u *ui) title(text string) {
	fmt.Fprintln(u.w, u.header.Render(text))
}

func (u *ui) field(label string, value any) {
	fmt.Fprintln(u.w, u.label.Render(label)+u.value.Render(fmt.Sprint(value)))
}

func (u *ui) status(label string, ok bool, text string) {
	style := u.good
	if !ok {
		style = u.bad
	}
	fmt.Fprintln(u.w, u.label.Render(label)+style.Render(text))
}

// plot draws up to maxSeries energy traces, one per annealing chain.
func (u *ui) plot(series [][]float64, caption string) {
	const maxSeries = 4
	var data [][]float64
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, s)
		}
		if len(data) == maxSeries {
			break
		}
	}
	if len(data) == 0 {
		fmt.Fprintln(u.w, u.dim.Render("no energy trace recorded"))
		return
	}
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(u.w)
	fmt.Fprintln(u.w, graph)
}
