package app

import (
	"math"

	"github.com/yourusername/editions-go/internal/domain"
)

const (
	cellSpacing       = 10
	narrowGridWidth   = 550
	narrowGridColumns = 2
	wideGridColumns   = 5
	coverAspectRatio  = 1.8
)

// Layout computes grid cell sizes for an available width
type Layout struct {
	Width int
}

// Columns returns the number of grid columns
func (l Layout) Columns() int {
	if l.Width <= narrowGridWidth {
		return narrowGridColumns
	}
	return wideGridColumns
}

// CellSize returns the size of one grid cell
func (l Layout) CellSize() domain.Size {
	columns := l.Columns()
	width := math.Floor(float64(l.Width-(columns+1)*cellSpacing) / float64(columns))
	if width < 0 {
		width = 0
	}
	return domain.Size{
		Width:  int(math.Round(width)),
		Height: int(math.Round(width * coverAspectRatio)),
	}
}

// CoverBoundingBox returns the box cover images are scaled into
func (l Layout) CoverBoundingBox() domain.Size {
	return l.CellSize()
}
