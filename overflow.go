package shapedtext

import "sort"

// Range is a half-open [Start, End) glyph index range.
type Range struct {
	Start, End int
}

// TextOverflowInfo describes where text must be truncated to fit a box,
// with room reserved for an overflow suffix (e.g. an ellipsis run).
type TextOverflowInfo struct {
	// Line is the last visible line.
	Line int

	// TextChar is the byte offset in the source text of the first
	// truncated character.
	TextChar int

	// IncludedGlyphs are the glyph ranges still rendered on the cut
	// line. Bidi lines can produce more than one range: the visually
	// clipped region need not be textually contiguous.
	IncludedGlyphs []Range

	// SuffixOrigin is the top-left point for the overflow suffix, in
	// block coordinates.
	SuffixOrigin Point
}

// OverflowInfo computes truncation for the given box, reserving
// suffixWidth at the cut. The second result is false when nothing
// overflows.
func (t *ShapedText) OverflowInfo(maxSize Size, suffixWidth float64) (TextOverflowInfo, bool) {
	if len(t.lines) == 0 || !t.debugAssertRanges() {
		return TextOverflowInfo{}, false
	}

	cutLine := len(t.lines) - 1
	heightCut := false
	if line, over := t.OverflowLine(maxSize.Height); over {
		heightCut = true
		cutLine = line - 1
		if cutLine < 0 {
			cutLine = 0
		}
	}

	budget := maxSize.Width - suffixWidth
	lineWidth := t.lines[cutLine].Width
	if !heightCut && lineWidth <= budget {
		return TextOverflowInfo{}, false
	}

	top := t.lineTop(cutLine)
	xOff := t.lines[cutLine].XOffset

	if lineWidth <= budget {
		// The whole cut line fits; the suffix hangs after it.
		start, end := t.lineGlyphRange(cutLine)
		info := TextOverflowInfo{
			Line:     cutLine,
			TextChar: t.lineEndByte(cutLine),
			SuffixOrigin: Point{
				X: xOff + lineWidth,
				Y: top,
			},
		}
		if start < end {
			info.IncludedGlyphs = []Range{{Start: start, End: end}}
		}
		return info, true
	}

	if t.lines[cutLine].Directions == LineBidi {
		return t.overflowBidi(cutLine, budget, suffixWidth), true
	}
	return t.overflowSingleDir(cutLine, budget, suffixWidth), true
}

// lineEndByte returns the exclusive end byte of line i's text.
func (t *ShapedText) lineEndByte(i int) int {
	end := t.lines[i].End
	if end == 0 {
		return 0
	}
	return t.segments[end-1].TextSegment.End
}

// overflowSingleDir cuts a one-direction line: walk segments from the
// logical start subtracting advances until the budget runs out, then cut
// inside the boundary segment at a cluster edge.
func (t *ShapedText) overflowSingleDir(line int, budget, suffixWidth float64) TextOverflowInfo {
	rtl := t.lines[line].Directions == LineRTL
	xOff := t.lines[line].XOffset
	top := t.lineTop(line)
	lineGlyphStart, _ := t.lineGlyphRange(line)

	info := TextOverflowInfo{Line: line, TextChar: t.lineEndByte(line)}

	consumed := 0.0
	for s := t.lineStartSeg(line); s < t.lines[line].End; s++ {
		seg := t.segments[s]
		if consumed+seg.Advance <= budget {
			consumed += seg.Advance
			continue
		}
		gRange, byteChar, used := t.overflowCharGlyph(s, budget-consumed)
		consumed += used
		info.TextChar = byteChar
		segStart := t.segStartGlyph(s)
		if segStart > lineGlyphStart {
			info.IncludedGlyphs = append(info.IncludedGlyphs, Range{Start: lineGlyphStart, End: segStart})
		}
		if gRange.End > gRange.Start {
			if n := len(info.IncludedGlyphs); n > 0 && info.IncludedGlyphs[n-1].End == gRange.Start {
				info.IncludedGlyphs[n-1].End = gRange.End
			} else {
				info.IncludedGlyphs = append(info.IncludedGlyphs, gRange)
			}
		}
		info.SuffixOrigin = t.suffixPoint(line, consumed, suffixWidth, rtl, xOff, top)
		return info
	}

	if start, end := t.lineGlyphRange(line); start < end {
		info.IncludedGlyphs = []Range{{Start: start, End: end}}
	}
	info.SuffixOrigin = t.suffixPoint(line, consumed, suffixWidth, rtl, xOff, top)
	return info
}

// suffixPoint anchors the suffix at the cut edge: after the kept region
// for LTR, before it for RTL.
func (t *ShapedText) suffixPoint(line int, consumed, suffixWidth float64, rtl bool, xOff, top float64) Point {
	if rtl {
		return Point{X: xOff + t.lines[line].Width - consumed - suffixWidth, Y: top}
	}
	return Point{X: xOff + consumed, Y: top}
}

// overflowCharGlyph finds the cluster-boundary cut inside segment s for
// the remaining budget. Clusters are scanned in logical (byte) order; a
// right-to-left segment thus keeps a visual suffix of its glyphs.
// Returns the kept glyph range, the byte offset of the first dropped
// character and the advance consumed.
func (t *ShapedText) overflowCharGlyph(s int, remaining float64) (Range, int, float64) {
	seg := t.segments[s]
	start, end := t.segStartGlyph(s), seg.End
	segStartByte := t.segStartByte(s)
	if start >= end {
		return Range{Start: start, End: start}, seg.TextSegment.End, 0
	}

	groups := t.clusterGroups(s)

	// Group widths derive from visual x order; logical order follows
	// cluster byte offsets.
	byVisual := make([]int, len(groups))
	for i := range byVisual {
		byVisual[i] = i
	}
	sort.Slice(byVisual, func(a, b int) bool { return groups[byVisual[a]].x < groups[byVisual[b]].x })
	segEnd := seg.X + seg.Advance
	for k, gi := range byVisual {
		if k+1 < len(byVisual) {
			groups[gi].width = groups[byVisual[k+1]].x - groups[gi].x
		} else {
			groups[gi].width = segEnd - groups[gi].x
		}
	}

	byLogical := make([]int, len(groups))
	for i := range byLogical {
		byLogical[i] = i
	}
	sort.Slice(byLogical, func(a, b int) bool { return groups[byLogical[a]].cluster < groups[byLogical[b]].cluster })

	consumed := 0.0
	keptStart, keptEnd := end, start
	cutByte := seg.TextSegment.End
	for _, gi := range byLogical {
		g := groups[gi]
		if consumed+g.width > remaining {
			cutByte = segStartByte + g.cluster
			break
		}
		consumed += g.width
		if g.glyphStart < keptStart {
			keptStart = g.glyphStart
		}
		if g.glyphEnd > keptEnd {
			keptEnd = g.glyphEnd
		}
	}
	if keptEnd <= keptStart {
		return Range{Start: start, End: start}, segStartByte + groups[byLogical[0]].cluster, 0
	}
	return Range{Start: keptStart, End: keptEnd}, cutByte, consumed
}

// clusterGroup is one cluster's contiguous glyph span inside a segment.
type clusterGroup struct {
	cluster    int // byte offset within the segment text
	glyphStart int
	glyphEnd   int
	x          float64 // line-relative left edge
	width      float64
}

// clusterGroups splits segment s's glyphs into cluster groups.
func (t *ShapedText) clusterGroups(s int) []clusterGroup {
	start, end := t.segStartGlyph(s), t.segments[s].End
	line := t.lineOfSegment(s)
	xOff := t.lines[line].XOffset

	var groups []clusterGroup
	for g := start; g < end; g++ {
		if len(groups) > 0 && groups[len(groups)-1].cluster == t.clusters[g] {
			grp := &groups[len(groups)-1]
			grp.glyphEnd = g + 1
			if x := t.glyphs[g].Point.X - xOff; x < grp.x {
				grp.x = x
			}
			continue
		}
		groups = append(groups, clusterGroup{
			cluster:    t.clusters[g],
			glyphStart: g,
			glyphEnd:   g + 1,
			x:          t.glyphs[g].Point.X - xOff,
		})
	}
	return groups
}

// lineOfSegment returns the index of the line containing segment s.
func (t *ShapedText) lineOfSegment(s int) int {
	return sort.Search(len(t.lines), func(i int) bool { return t.lines[i].End > s })
}

// overflowBidi cuts a mixed-direction line by walking its segments in
// visual order against the cut window. The window keeps the start edge
// of the base direction: left for LTR, right for RTL. Included glyph
// ranges may be non-contiguous.
func (t *ShapedText) overflowBidi(line int, budget, suffixWidth float64) TextOverflowInfo {
	rtl := t.direction == DirectionRTL
	width := t.lines[line].Width
	lo, hi := 0.0, budget
	if rtl {
		lo, hi = width-budget, width
	}
	xOff := t.lines[line].XOffset
	top := t.lineTop(line)

	info := TextOverflowInfo{Line: line, TextChar: t.lineEndByte(line)}
	var ranges []Range
	cutByte := -1
	inEdge := hi // leftmost kept edge for RTL, rightmost for LTR
	if !rtl {
		inEdge = lo
	}

	for _, s := range t.lineVisualOrder(line) {
		seg := t.segments[s]
		segLo, segHi := seg.X, seg.X+seg.Advance
		switch {
		case segHi <= lo || segLo >= hi:
			// Dropped whole; the earliest dropped byte is the cut point.
			if b := t.segStartByte(s); cutByte < 0 || b < cutByte {
				cutByte = b
			}
		case segLo >= lo && segHi <= hi:
			start, end := t.segStartGlyph(s), seg.End
			if start < end {
				ranges = append(ranges, Range{Start: start, End: end})
			}
			if !rtl && segHi > inEdge {
				inEdge = segHi
			}
			if rtl && segLo < inEdge {
				inEdge = segLo
			}
		default:
			// Boundary segment: keep the clusters inside the window.
			remaining := hi - segLo
			if rtl {
				remaining = segHi - lo
			}
			gRange, byteChar, used := t.overflowCharGlyph(s, remaining)
			if gRange.End > gRange.Start {
				ranges = append(ranges, gRange)
			}
			if cutByte < 0 || byteChar < cutByte {
				cutByte = byteChar
			}
			if !rtl {
				edge := segLo + used
				if edge > inEdge {
					inEdge = edge
				}
			} else {
				edge := segHi - used
				if edge < inEdge {
					inEdge = edge
				}
			}
		}
	}

	sort.Slice(ranges, func(a, b int) bool { return ranges[a].Start < ranges[b].Start })
	for _, r := range ranges {
		if n := len(info.IncludedGlyphs); n > 0 && info.IncludedGlyphs[n-1].End >= r.Start {
			if r.End > info.IncludedGlyphs[n-1].End {
				info.IncludedGlyphs[n-1].End = r.End
			}
			continue
		}
		info.IncludedGlyphs = append(info.IncludedGlyphs, r)
	}
	if cutByte >= 0 {
		info.TextChar = cutByte
	}
	if rtl {
		info.SuffixOrigin = Point{X: xOff + inEdge - suffixWidth, Y: top}
	} else {
		info.SuffixOrigin = Point{X: xOff + inEdge, Y: top}
	}
	return info
}
