package foreground

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
)

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#7f849c"
	colorAccent  lipgloss.Color = "#f5c2e7"
	colorFocus   lipgloss.Color = "#b4befe"
	colorPeach   lipgloss.Color = "#fab387"
)

// NoFocus renders every button unfocused
const NoFocus = -1

// Terminal renders snapshots as styled terminal text. Views, headers and
// paragraphs are blocks; spans, raw text and buttons flow inline.
type Terminal struct {
	header    lipgloss.Style
	paragraph lipgloss.Style
	span      lipgloss.Style
	button    lipgloss.Style
	focused   lipgloss.Style
	border    lipgloss.Style
}

// NewTerminal creates a renderer with the default palette
func NewTerminal() *Terminal {
	return &Terminal{
		header:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		paragraph: lipgloss.NewStyle().Foreground(colorSubtext),
		span:      lipgloss.NewStyle().Foreground(colorText),
		button:    lipgloss.NewStyle().Foreground(colorPeach),
		focused:   lipgloss.NewStyle().Bold(true).Reverse(true).Foreground(colorFocus),
		border:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorOverlay).Padding(0, 1),
	}
}

// Render draws the payload. The button whose id equals focus is
// highlighted; pass NoFocus for none.
func (t *Terminal) Render(p snapshot.Payload, focus int) string {
	return t.block(p.Elements, focus)
}

func isBlock(n snapshot.Node) bool {
	switch v := n.(type) {
	case snapshot.View:
		return true
	case snapshot.Text:
		return v.Type == host.TextHeader || v.Type == host.TextParagraph
	}
	return false
}

// block stacks block children and joins runs of inline children into lines
func (t *Terminal) block(nodes []snapshot.Node, focus int) string {
	var lines []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			lines = append(lines, run.String())
			run.Reset()
		}
	}
	for _, n := range nodes {
		if isBlock(n) {
			flush()
			lines = append(lines, t.node(n, focus))
			continue
		}
		if run.Len() > 0 {
			run.WriteString(" ")
		}
		run.WriteString(t.node(n, focus))
	}
	flush()
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (t *Terminal) inline(nodes []snapshot.Node, focus int) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(t.node(n, focus))
	}
	return b.String()
}

func (t *Terminal) node(n snapshot.Node, focus int) string {
	switch v := n.(type) {
	case snapshot.View:
		body := t.block(v.Children, focus)
		if v.Border != nil && *v.Border > 0 {
			return t.border.Render(body)
		}
		return body
	case snapshot.Text:
		var content string
		if v.Text != nil {
			content = v.Text.String()
		}
		content += t.inline(v.Children, focus)
		switch v.Type {
		case host.TextHeader:
			return t.header.Render(content)
		case host.TextParagraph:
			return t.paragraph.Render(content)
		}
		return t.span.Render(content)
	case snapshot.Button:
		label := "[" + t.inline(v.Children, focus) + "]"
		if v.ID == focus {
			return t.focused.Render(label)
		}
		return t.button.Render(label)
	case snapshot.Raw:
		return v.Text.String()
	}
	panic(fmt.Sprintf("foreground: unknown snapshot node %T", n))
}

// Buttons returns every button id in document order
func Buttons(nodes []snapshot.Node) []int {
	var ids []int
	for _, n := range nodes {
		switch v := n.(type) {
		case snapshot.View:
			ids = append(ids, Buttons(v.Children)...)
		case snapshot.Text:
			ids = append(ids, Buttons(v.Children)...)
		case snapshot.Button:
			ids = append(ids, v.ID)
			ids = append(ids, Buttons(v.Children)...)
		}
	}
	return ids
}
