package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

const (
	minCellsPerGrid = 1
	maxCellsPerGrid = 64
	footerLines     = 1
)

var footerStyle = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#888888"))

// Explorer is an interactive bubbletea model for panning and zooming the
// field. Keys: arrows or hjkl pan, + and - zoom, r reseeds with the next
// seed, d restores the default table, g toggles grid lines, c toggles color,
// q quits.
type Explorer struct {
	table  *noise.Table
	frame  Frame
	seed   int64
	seeded bool
	opts   Options
	ready  bool
}

// NewExplorer starts at the grid origin with the given table.
func NewExplorer(seed int64, seeded bool, opts Options) Explorer {
	return Explorer{
		table:  noise.TableFor(seed, seeded),
		frame:  Frame{CellsPerGrid: 8},
		seed:   seed,
		seeded: seeded,
		opts:   opts,
	}
}

func (m Explorer) Init() tea.Cmd {
	return nil
}

func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame.Cols = msg.Width
		m.frame.Rows = max(msg.Height-footerLines, 1)
		m.ready = true

	case tea.KeyMsg:
		// pan by a quarter of the view
		dx := float64(max(m.frame.Cols, 4)) / 4 / m.frame.CellsPerGrid
		dy := float64(max(m.frame.Rows, 4)) / 4 * CellAspect / m.frame.CellsPerGrid

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.frame.X -= dx
		case "right", "l":
			m.frame.X += dx
		case "up", "k":
			m.frame.Y -= dy
		case "down", "j":
			m.frame.Y += dy
		case "+", "=":
			m.frame.CellsPerGrid = min(m.frame.CellsPerGrid*2, maxCellsPerGrid)
		case "-", "_":
			m.frame.CellsPerGrid = max(m.frame.CellsPerGrid/2, minCellsPerGrid)
		case "r":
			if m.seeded {
				m.seed++
			}
			m.seeded = true
			m.table = noise.NewSeededTable(m.seed)
		case "d":
			m.seed, m.seeded = 0, false
			m.table = noise.NewTable()
		case "g":
			m.opts.Grid = !m.opts.Grid
		case "c":
			m.opts.Color = !m.opts.Color
		}
	}
	return m, nil
}

func (m Explorer) View() string {
	if !m.ready {
		return "Initializing explorer..."
	}
	status := fmt.Sprintf("%s | x=%.2f y=%.2f | %g cells/grid | arrows pan, +/- zoom, r reseed, d default, g grid, c color, q quit",
		noise.SeedLabel(m.seed, m.seeded), m.frame.X, m.frame.Y, m.frame.CellsPerGrid)
	if len(status) > m.frame.Cols && m.frame.Cols > 0 {
		status = status[:m.frame.Cols]
	}

	var b strings.Builder
	b.WriteString(Render(m.table, m.frame, m.opts))
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render(status))
	return b.String()
}

// Frame returns the current view.
func (m Explorer) Frame() Frame {
	return m.frame
}

// Seed returns the current seed and whether the table is seeded.
func (m Explorer) Seed() (int64, bool) {
	return m.seed, m.seeded
}
