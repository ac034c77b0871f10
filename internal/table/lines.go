package table

// ruling is a straight table border detected in the image. For horizontal
// rulings pos is a y coordinate and [start, end) an x range; for vertical
// rulings the axes swap.
type ruling struct {
	pos    int
	start  int
	end    int
	minPos int
	maxPos int
}

func (r ruling) thickness() int { return r.maxPos - r.minPos + 1 }

type run struct{ start, end int }

// runsAt returns ink runs of at least minLen pixels along one scanline of
// length n. Gaps of up to maxGap background pixels are bridged.
func runsAt(n int, ink func(i int) bool, minLen, maxGap int) []run {
	var runs []run
	start, last := -1, -1
	for i := 0; i < n; i++ {
		if ink(i) {
			if start < 0 {
				start = i
			}
			last = i
			continue
		}
		if start >= 0 && i-last > maxGap {
			if last+1-start >= minLen {
				runs = append(runs, run{start: start, end: last + 1})
			}
			start = -1
		}
	}
	if start >= 0 && last+1-start >= minLen {
		runs = append(runs, run{start: start, end: last + 1})
	}
	return runs
}

// detectRulings finds horizontal (or vertical) borders by merging long ink
// runs on consecutive scanlines.
func detectRulings(m *inkMap, horizontal bool, opts Options) []ruling {
	outerN, innerN := m.h, m.w
	if !horizontal {
		outerN, innerN = m.w, m.h
	}
	minLen := opts.minLineLength(m.w, m.h)

	var lines []ruling
	var active []int
	for o := 0; o < outerN; o++ {
		var ink func(int) bool
		if horizontal {
			y := o
			ink = func(x int) bool { return m.at(x, y) }
		} else {
			x := o
			ink = func(y int) bool { return m.at(x, y) }
		}

		var next []int
		extended := make(map[int]bool)
		for _, r := range runsAt(innerN, ink, minLen, opts.MaxGap) {
			idx := -1
			for _, a := range active {
				if r.start < lines[a].end && lines[a].start < r.end {
					idx = a
					break
				}
			}
			if idx < 0 {
				lines = append(lines, ruling{start: r.start, end: r.end, minPos: o, maxPos: o})
				next = append(next, len(lines)-1)
				continue
			}
			l := &lines[idx]
			l.start = min(l.start, r.start)
			l.end = max(l.end, r.end)
			l.maxPos = o
			if !extended[idx] {
				extended[idx] = true
				next = append(next, idx)
			}
		}
		active = next
	}

	out := make([]ruling, 0, len(lines))
	for _, l := range lines {
		// solid blocks are shading, not borders
		if l.thickness() > opts.MaxLineThickness {
			continue
		}
		l.pos = (l.minPos + l.maxPos) / 2
		out = append(out, l)
	}
	return out
}
