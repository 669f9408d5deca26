package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# girder

## Navigate

| Key | Action |
|-----|--------|
| ↑/↓, k/j | select row |
| ←/→, h/l | scroll timeline |
| space | collapse / expand container |
| d / w / m | day / week / month cells |
| p | switch project |
| r | refresh from store |

## Edit

| Key | Action |
|-----|--------|
| H / L | shift plan bar one day (children and successors follow) |
| < / > | shrink / grow plan end (successors follow) |
| [ / ] | shrink / grow actual bar (recomputes progress) |
| K / J | move row up / down |
| N | nest row under the container above |
| esc | cancel drag |

Mouse: drag a bar to move it, grab an end to resize, shift-drag for the
actual bar. Drag a name cell onto another row to reorder, onto a container
to nest.
`

func (m appModel) helpView() string {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(w),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out + styleMuted().Render("  press any key to close")
}
