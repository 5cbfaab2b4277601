package shapedtext

import "sort"

// CaretOrigin returns the caret position for the given byte offset into
// the source text, at the top of the caret's line. text must be the
// string the block was shaped from; it is consulted when the caret falls
// inside a ligature and the split point has to be counted in characters.
func (t *ShapedText) CaretOrigin(caret int, text string) Point {
	if len(t.segments) == 0 {
		return Point{X: t.lines[0].XOffset, Y: t.lineTop(0)}
	}

	s := sort.Search(len(t.segments), func(i int) bool {
		return t.segments[i].TextSegment.End > caret
	})
	if s == len(t.segments) {
		// Past the end: sit at the trailing edge of the last segment.
		s = len(t.segments) - 1
		line := t.lineOfSegment(s)
		seg := t.segments[s]
		x := seg.X + seg.Advance
		if seg.Direction() == DirectionRTL {
			x = seg.X
		}
		return Point{X: t.lines[line].XOffset + x, Y: t.lineTop(line)}
	}

	line := t.lineOfSegment(s)
	x := t.caretXInSegment(s, caret, text)
	return Point{X: t.lines[line].XOffset + x, Y: t.lineTop(line)}
}

// caretXInSegment computes the line-relative caret x for a byte offset
// inside segment s.
func (t *ShapedText) caretXInSegment(s, caret int, text string) float64 {
	seg := t.segments[s]
	rtl := seg.Direction() == DirectionRTL
	byteInSeg := caret - t.segStartByte(s)

	groups := t.clusterGroupsWithWidth(s)
	if len(groups) == 0 {
		return seg.X
	}

	// Logical scan for the cluster holding the caret and, failing an
	// exact boundary, the cluster it falls inside.
	byLogical := make([]int, len(groups))
	for i := range byLogical {
		byLogical[i] = i
	}
	sort.Slice(byLogical, func(a, b int) bool { return groups[byLogical[a]].cluster < groups[byLogical[b]].cluster })

	holder := byLogical[0]
	for _, gi := range byLogical {
		g := groups[gi]
		if g.cluster == byteInSeg {
			if rtl {
				return g.x + g.width
			}
			return g.x
		}
		if g.cluster < byteInSeg {
			holder = gi
			continue
		}
		break
	}

	if byteInSeg <= groups[holder].cluster {
		// Before the first cluster: segment start edge.
		if rtl {
			return seg.X + seg.Advance
		}
		return seg.X
	}
	segLen := seg.TextSegment.End - t.segStartByte(s)
	if byteInSeg >= clusterEnd(groups, byLogical, holder, segLen) {
		if rtl {
			return seg.X
		}
		return seg.X + seg.Advance
	}

	return t.ligatureCaretX(s, groups[holder], clusterEnd(groups, byLogical, holder, segLen), byteInSeg, text, rtl)
}

// clusterEnd returns the exclusive byte end of a cluster group within
// its segment: the next cluster's start in logical order, or the
// segment's text length.
func clusterEnd(groups []clusterGroup, byLogical []int, holder, segLen int) int {
	for k, gi := range byLogical {
		if gi == holder && k+1 < len(byLogical) {
			return groups[byLogical[k+1]].cluster
		}
	}
	return segLen
}

// ligatureCaretX splits a ligature cluster's advance for a caret inside
// it, preferring font-provided ligature caret offsets and falling back
// on an even split by character count.
func (t *ShapedText) ligatureCaretX(s int, group clusterGroup, groupEnd, byteInSeg int, text string, rtl bool) float64 {
	segStart := t.segStartByte(s)
	clusterText := sliceText(text, segStart+group.cluster, segStart+groupEnd)

	total := 0
	index := 0
	for off := range clusterText {
		if off > 0 {
			total++
		}
		if group.cluster+off == byteInSeg {
			index = total
		}
	}
	total++
	if index == 0 || total < 2 {
		if rtl {
			return group.x + group.width
		}
		return group.x
	}

	offset := group.width * float64(index) / float64(total)
	if f := t.fontForGlyph(group.glyphStart); f != nil {
		if cf, ok := f.(CaretFont); ok {
			dir := DirectionLTR
			if rtl {
				dir = DirectionRTL
			}
			if carets := cf.LigatureCarets(dir, t.glyphs[group.glyphStart].GID); len(carets) >= total-1 {
				offset = carets[index-1]
			}
		}
	}
	if rtl {
		return group.x + group.width - offset
	}
	return group.x + offset
}

// sliceText clips [start, end) to the text bounds.
func sliceText(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

// clusterGroupsWithWidth returns segment s's cluster groups with visual
// widths resolved.
func (t *ShapedText) clusterGroupsWithWidth(s int) []clusterGroup {
	groups := t.clusterGroups(s)
	if len(groups) == 0 {
		return groups
	}
	byVisual := make([]int, len(groups))
	for i := range byVisual {
		byVisual[i] = i
	}
	sort.Slice(byVisual, func(a, b int) bool { return groups[byVisual[a]].x < groups[byVisual[b]].x })
	seg := t.segments[s]
	segEnd := seg.X + seg.Advance
	for k, gi := range byVisual {
		if k+1 < len(byVisual) {
			groups[gi].width = groups[byVisual[k+1]].x - groups[gi].x
		} else {
			groups[gi].width = segEnd - groups[gi].x
		}
	}
	return groups
}

// fontForGlyph returns the font that shaped glyph g.
func (t *ShapedText) fontForGlyph(g int) Font {
	for _, fr := range t.fonts {
		if g < fr.End {
			return fr.Font
		}
	}
	return nil
}

// HighlightRects returns the rectangles covering the byte range
// [start, end) of the source text, one or more per line, with adjacent
// same-row rectangles merged. Partially selected segments are clipped at
// exact caret positions.
func (t *ShapedText) HighlightRects(start, end int, text string) []Rect {
	if start >= end || len(t.segments) == 0 {
		return nil
	}

	var rects []Rect
	for i := range t.lines {
		top := t.lineTop(i)
		xOff := t.lines[i].XOffset

		var row []Rect
		for s := t.lineStartSeg(i); s < t.lines[i].End; s++ {
			seg := t.segments[s]
			sb, se := t.segStartByte(s), seg.TextSegment.End
			if se <= start || sb >= end || sb == se {
				continue
			}
			lo := xOff + seg.X
			hi := lo + seg.Advance
			rtl := seg.Direction() == DirectionRTL
			if sb < start {
				cx := xOff + t.caretXInSegment(s, start, text)
				if rtl {
					hi = cx
				} else {
					lo = cx
				}
			}
			if se > end {
				cx := xOff + t.caretXInSegment(s, end, text)
				if rtl {
					lo = cx
				} else {
					hi = cx
				}
			}
			if hi > lo {
				row = append(row, NewRect(lo, top, hi-lo, t.lineHeight))
			}
		}

		sort.Slice(row, func(a, b int) bool { return row[a].Origin.X < row[b].Origin.X })
		for _, r := range row {
			if n := len(rects); n > 0 && rects[n-1].Origin.Y == r.Origin.Y && rects[n-1].MaxX() >= r.Origin.X {
				if r.MaxX() > rects[n-1].MaxX() {
					rects[n-1].Size.Width = r.MaxX() - rects[n-1].Origin.X
				}
				continue
			}
			rects = append(rects, r)
		}
	}
	return rects
}
