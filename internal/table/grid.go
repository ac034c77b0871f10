package table

import (
	"sort"

	"github.com/spherical/table-extractor/internal/domain"
)

// tableGrid is a bordered table: column boundaries xs, row boundaries ys and
// the rulings that produced them.
type tableGrid struct {
	xs, ys []int
	h, v   []ruling

	cells []domain.Cell
	owner [][]int // grid position -> index into cells
}

func (g *tableGrid) rows() int { return len(g.ys) - 1 }
func (g *tableGrid) cols() int { return len(g.xs) - 1 }

func (g *tableGrid) contains(x, y int) bool {
	return x >= g.xs[0] && x < g.xs[len(g.xs)-1] && y >= g.ys[0] && y < g.ys[len(g.ys)-1]
}

// locate returns the grid position holding pixel (x, y).
func (g *tableGrid) locate(x, y int) (row, col int, ok bool) {
	if !g.contains(x, y) {
		return 0, 0, false
	}
	col = sort.SearchInts(g.xs, x+1) - 1
	row = sort.SearchInts(g.ys, y+1) - 1
	return row, col, row >= 0 && row < g.rows() && col >= 0 && col < g.cols()
}

// detectTables finds bordered tables in m, ordered top-to-bottom then
// left-to-right.
func detectTables(m *inkMap, opts Options) []*tableGrid {
	h := detectRulings(m, true, opts)
	v := detectRulings(m, false, opts)
	if len(h) < 2 || len(v) < 2 {
		return nil
	}

	uf := newUnionFind(len(h) + len(v))
	for i := range h {
		for j := range v {
			if intersects(h[i], v[j], opts.Tolerance) {
				uf.union(i, len(h)+j)
			}
		}
	}

	groups := make(map[int]*tableGrid)
	var roots []int
	group := func(i int) *tableGrid {
		root := uf.find(i)
		g, ok := groups[root]
		if !ok {
			g = &tableGrid{}
			groups[root] = g
			roots = append(roots, root)
		}
		return g
	}
	for i := range h {
		g := group(i)
		g.h = append(g.h, h[i])
	}
	for j := range v {
		g := group(len(h) + j)
		g.v = append(g.v, v[j])
	}

	var tables []*tableGrid
	for _, root := range roots {
		g := groups[root]
		if len(g.h) < 2 || len(g.v) < 2 {
			continue
		}
		g.ys = clusterPositions(g.h, opts.Tolerance)
		g.xs = clusterPositions(g.v, opts.Tolerance)
		if len(g.xs) < 2 || len(g.ys) < 2 {
			continue
		}
		g.layout(opts.Tolerance)
		tables = append(tables, g)
	}

	sort.SliceStable(tables, func(a, b int) bool {
		if tables[a].ys[0] != tables[b].ys[0] {
			return tables[a].ys[0] < tables[b].ys[0]
		}
		return tables[a].xs[0] < tables[b].xs[0]
	})
	return tables
}

func intersects(h, v ruling, tol int) bool {
	return v.pos >= h.start-tol && v.pos < h.end+tol &&
		h.pos >= v.start-tol && h.pos < v.end+tol
}

// clusterPositions collapses ruling positions closer than tol into their mean.
func clusterPositions(lines []ruling, tol int) []int {
	pos := make([]int, len(lines))
	for i, l := range lines {
		pos[i] = l.pos
	}
	sort.Ints(pos)

	var out []int
	sum, n := 0, 0
	for i, p := range pos {
		if i > 0 && p-pos[i-1] > tol {
			out = append(out, sum/n)
			sum, n = 0, 0
		}
		sum += p
		n++
	}
	if n > 0 {
		out = append(out, sum/n)
	}
	return out
}

// coverage returns how many pixels of [lo, hi) are covered by rulings lying
// within tol of pos.
func coverage(lines []ruling, pos, lo, hi, tol int) int {
	type span struct{ a, b int }
	var spans []span
	for _, l := range lines {
		if l.pos < pos-tol || l.pos > pos+tol {
			continue
		}
		a, b := max(l.start, lo), min(l.end, hi)
		if a < b {
			spans = append(spans, span{a, b})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].a < spans[j].a })

	total, cur := 0, lo
	for _, s := range spans {
		if s.b <= cur {
			continue
		}
		total += s.b - max(s.a, cur)
		cur = s.b
	}
	return total
}

func shrink(lo, hi, tol int) (int, int) {
	if hi-lo > 2*tol {
		return lo + tol, hi - tol
	}
	return lo, hi
}

// separated reports whether a ruling divides the two neighbouring grid cells.
// When vertical is true the boundary lies between columns c and c+1 in row
// r; otherwise between rows r and r+1 in column c.
func (g *tableGrid) separated(r, c int, vertical bool, tol int) bool {
	var lines []ruling
	var pos, lo, hi int
	if vertical {
		lines, pos = g.v, g.xs[c+1]
		lo, hi = shrink(g.ys[r], g.ys[r+1], tol)
	} else {
		lines, pos = g.h, g.ys[r+1]
		lo, hi = shrink(g.xs[c], g.xs[c+1], tol)
	}
	return float64(coverage(lines, pos, lo, hi, tol)) >= 0.9*float64(hi-lo)
}

// layout merges grid cells with no ruling between them into spanning cells.
// Non-rectangular merges are split back into single cells since a
// spreadsheet cannot represent them.
func (g *tableGrid) layout(tol int) {
	rows, cols := g.rows(), g.cols()
	id := func(r, c int) int { return r*cols + c }

	uf := newUnionFind(rows * cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols && !g.separated(r, c, true, tol) {
				uf.union(id(r, c), id(r, c+1))
			}
			if r+1 < rows && !g.separated(r, c, false, tol) {
				uf.union(id(r, c), id(r+1, c))
			}
		}
	}

	type box struct{ minR, minC, maxR, maxC, n int }
	boxes := make(map[int]*box)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			root := uf.find(id(r, c))
			b, ok := boxes[root]
			if !ok {
				boxes[root] = &box{minR: r, minC: c, maxR: r, maxC: c, n: 1}
				continue
			}
			b.minR, b.minC = min(b.minR, r), min(b.minC, c)
			b.maxR, b.maxC = max(b.maxR, r), max(b.maxC, c)
			b.n++
		}
	}

	g.owner = make([][]int, rows)
	for r := range g.owner {
		g.owner[r] = make([]int, cols)
		for c := range g.owner[r] {
			g.owner[r][c] = -1
		}
	}
	g.cells = g.cells[:0]

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if g.owner[r][c] >= 0 {
				continue
			}
			b := boxes[uf.find(id(r, c))]
			rect := (b.maxR-b.minR+1)*(b.maxC-b.minC+1) == b.n
			if !rect || b.n == 1 {
				g.owner[r][c] = len(g.cells)
				g.cells = append(g.cells, domain.Cell{Row: r, Col: c, RowSpan: 1, ColSpan: 1})
				continue
			}
			idx := len(g.cells)
			g.cells = append(g.cells, domain.Cell{
				Row:     b.minR,
				Col:     b.minC,
				RowSpan: b.maxR - b.minR + 1,
				ColSpan: b.maxC - b.minC + 1,
			})
			for rr := b.minR; rr <= b.maxR; rr++ {
				for cc := b.minC; cc <= b.maxC; cc++ {
					g.owner[rr][cc] = idx
				}
			}
		}
	}
}

// table converts the grid to its domain form.
func (g *tableGrid) table() domain.Table {
	cells := make([]domain.Cell, len(g.cells))
	copy(cells, g.cells)
	return domain.Table{Rows: g.rows(), Cols: g.cols(), Cells: cells}
}

type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
