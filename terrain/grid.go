package terrain

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// CellKey - Coordinates of a column of the grid in the XZ plane
type CellKey struct {
	X, Z int
}

// Cell - Container of triangle indices
type Cell struct {
	indices []int
}

// Grid - Uniform spatial hash over the XZ plane, used to find the triangles under a point
type Grid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewGrid - Creates an empty grid
func NewGrid(cellSize float64, numCells int) *Grid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}

	return &Grid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - Rounds up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert - Registers an index in every column its bounds cover
func (g *Grid) Insert(index int, bounds AABB) {
	minCell := g.worldToCell(bounds.Min)
	maxCell := g.worldToCell(bounds.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for z := minCell.Z; z <= maxCell.Z; z++ {
			cellIdx := g.hashCell(CellKey{x, z})
			g.cells[cellIdx].indices = append(g.cells[cellIdx].indices, index)
		}
	}
}

// Seal - Sorts and deduplicates every cell. The grid must not be modified afterwards.
func (g *Grid) Seal() {
	for i := range g.cells {
		indices := g.cells[i].indices
		if len(indices) < 2 {
			continue
		}
		sort.Ints(indices)

		n := 1
		for _, idx := range indices[1:] {
			if idx != indices[n-1] {
				indices[n] = idx
				n++
			}
		}
		g.cells[i].indices = indices[:n]
	}
}

// Query - Returns the indices registered in the column containing the point.
// Hash collisions may add unrelated indices; callers test each candidate.
func (g *Grid) Query(point mgl64.Vec3) []int {
	return g.cells[g.hashCell(g.worldToCell(point))].indices
}

// worldToCell - Converts a world position to grid coordinates
func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

// hashCell - Hashes a column to an index in the cell array
func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Z * 83492791)
	return h & g.cellMask
}
