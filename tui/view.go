package tui

import (
	"fmt"
	"strings"

	"github.com/brensch/snekterm/game"
	"github.com/charmbracelet/lipgloss"
)

const (
	snakeGlyph = '█'
	foodGlyph  = '●'
	emptyGlyph = ' '
)

var (
	scoreStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Foreground(lipgloss.Color("2"))
	fieldStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Foreground(lipgloss.Color("2"))
	overStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Foreground(lipgloss.Color("1"))
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.winWidth == 0 && m.winHeight == 0 {
		return "starting..."
	}
	width, height := m.Board()
	if width <= 0 || height <= 0 {
		return "window too small"
	}

	f := m.state.Snapshot()
	header := fmt.Sprintf("Score: %d", f.Score)
	if m.lastOutcome == game.OutcomeAte {
		header += "  +1"
	}
	score := scoreStyle.Width(int(width)).Render(header)

	var body string
	if f.Over {
		msg := fmt.Sprintf("Game Over! %s\nScore %d in %d turns\nPress 'r' to restart or 'q' to quit",
			describeReason(f.Reason), f.Score, f.Turn)
		body = overStyle.Width(int(width)).Height(int(height)).Render(msg)
	} else {
		body = fieldStyle.Render(strings.Join(RenderField(f, width, height), "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, score, body)
}

// RenderField draws the frame into width x height rows of glyphs.
// Cells outside the current board are skipped.
func RenderField(f game.Frame, width, height int32) []string {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(string(emptyGlyph), int(width)))
	}
	for _, p := range f.Body {
		if p.In(width, height) {
			grid[p.Y][p.X] = snakeGlyph
		}
	}
	if f.Food.In(width, height) {
		grid[f.Food.Y][f.Food.X] = foodGlyph
	}

	rows := make([]string, height)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return rows
}

func describeReason(r game.Reason) string {
	switch r {
	case game.ReasonWall:
		return "You hit the wall."
	case game.ReasonSelf:
		return "You ran into yourself."
	case game.ReasonBoardFull:
		return "The board is full, you win!"
	}
	return ""
}
