package plotting

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const paletteColours = 20

// Goal cell markers used by MarkGoals
const (
	CorrectGoal   = -0.5
	IncorrectGoal = -1.0
)

// grid implements plotter.GridXYZ for one goal column of a [states,
// goals] table whose states are the cells of a rows x cols grid. Row 0
// of the grid is drawn at the top.
type grid struct {
	table      mat.Matrix
	rows, cols int
	goal       int
}

var _ plotter.GridXYZ = grid{}

func (g grid) Dims() (c, r int) {
	return g.cols, g.rows
}

func (g grid) Z(c, r int) float64 {
	return g.table.At((g.rows-1-r)*g.cols+c, g.goal)
}

func (g grid) X(c int) float64 {
	return float64(c)
}

func (g grid) Y(r int) float64 {
	return float64(r)
}

// Table writes a heat map of the values of table for goal to path. The
// table has one row per state and one column per goal, with state
// row*cols+col at the given row and column of the grid world.
func Table(table mat.Matrix, rows, cols, goal int, title,
	path string) error {
	states, goals := table.Dims()
	if rows*cols != states {
		return fmt.Errorf("table: cannot draw %d states on a %dx%d grid",
			states, rows, cols)
	}
	if goal < 0 || goal >= goals {
		return fmt.Errorf("table: goal %d not in [0, %d)", goal, goals)
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	h := plotter.NewHeatMap(grid{table, rows, cols, goal},
		palette.Heat(paletteColours, 1))
	if h.Max == h.Min {
		h.Max = h.Min + 1
	}
	p.Add(h)

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("table: could not create directory: %v", err)
	}

	// Keep cells square
	width := vg.Length(cols) * vg.Inch
	height := vg.Length(rows) * vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("table: could not save %v: %v", path, err)
	}
	return nil
}

// MarkGoals returns a copy of a [states, goals] table with the goal
// cells marked. In the column of each goal, the cell of that goal is
// set to CorrectGoal and the cells of every other goal are set to
// IncorrectGoal.
func MarkGoals(table mat.Matrix, locations []int) (*mat.Dense, error) {
	states, goals := table.Dims()
	if len(locations) != goals {
		return nil, fmt.Errorf("markGoals: have %d locations for %d goals",
			len(locations), goals)
	}
	for _, l := range locations {
		if l < 0 || l >= states {
			return nil, fmt.Errorf("markGoals: location %d not in [0, %d)",
				l, states)
		}
	}

	marked := mat.DenseCopyOf(table)
	for g := 0; g < goals; g++ {
		for other, l := range locations {
			if other == g {
				marked.Set(l, g, CorrectGoal)
			} else {
				marked.Set(l, g, IncorrectGoal)
			}
		}
	}
	return marked, nil
}
