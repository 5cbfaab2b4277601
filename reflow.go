package shapedtext

// ReshapeLines repositions the existing lines for new bounds, alignment,
// direction and line metrics without re-wrapping. Glyph, segment, line
// and font arrays keep their content; only positions move.
//
// Any active justification is cleared first: justify state is tied to
// the previous geometry. Callers that want the block justified must call
// [ShapedText.ReshapeLinesJustify] again afterward.
//
// lineHeight <= 0 resets to the height the block was first shaped with.
// Passing the same arguments twice is a no-op on the second call.
func (t *ShapedText) ReshapeLines(bounds Size, align Align, direction Direction, lineHeight, lineSpacing float64, inline *InlineConstraintsLayout) {
	if !t.debugAssertRanges() {
		return
	}
	t.ClearJustify()
	t.direction = direction

	if lineHeight <= 0 {
		lineHeight = t.origLineHeight
	}
	t.reshapeLineHeightAndSpacing(lineHeight, lineSpacing)

	var firstRect, lastRect Rect
	if inline != nil {
		t.isInlined = true
		t.midClear = inline.MidClear
		firstRect = inline.FirstLine
		lastRect = inline.LastLine
		t.baselineShift = 0
	} else {
		t.isInlined = false
		t.midClear = 0
		firstRect, lastRect = t.alignedRects(bounds, align)
	}

	t.applyLineRects(bounds, align, firstRect, lastRect)
	t.align = align
	t.midSize = t.MidSize()
	t.debugAssertRanges()
}

// SetOverflowAlign records the alignment a renderer should use when
// placing content that [ShapedText.OverflowInfo] reports as truncated.
// The value is carried state read back via
// [ShapedText.OverflowAlignValue]; it does not change the cut itself.
func (t *ShapedText) SetOverflowAlign(align Align) {
	t.overflowAlign = align
}

// reshapeLineHeightAndSpacing applies a pure line-metric change: every
// line's glyphs shift down by the cumulative height delta of the lines
// above plus the line's own height delta (the baseline rides the line
// bottom).
func (t *ShapedText) reshapeLineHeightAndSpacing(lineHeight, lineSpacing float64) {
	dLH := lineHeight - t.lineHeight
	dLS := lineSpacing - t.lineSpacing
	if dLH == 0 && dLS == 0 {
		return
	}
	for i := range t.lines {
		dy := float64(i)*(dLH+dLS) + dLH
		t.shiftLineGlyphs(i, 0, dy)
	}
	n := len(t.lines)
	t.lineHeight = lineHeight
	t.lineSpacing = lineSpacing
	t.firstLine.Size.Height = lineHeight
	t.lastLine.Size.Height = lineHeight
	t.lastLine.Origin.Y += float64(n-1) * (dLH + dLS)
	t.midSize = t.MidSize()
}

// alignedRects computes the first and last line rectangles for a
// self-aligned (non-inline) block within bounds.
func (t *ShapedText) alignedRects(bounds Size, align Align) (first, last Rect) {
	n := len(t.lines)
	flowHeight := float64(n)*t.lineHeight + float64(n-1)*t.lineSpacing

	var blockY float64
	if !align.FillY && isFinite(bounds.Height) {
		blockY = (bounds.Height - flowHeight) * align.Y
	}
	t.baselineShift = 0
	if align.Baseline {
		// Anchor the last line's baseline at the Y-aligned position.
		anchorY := 0.0
		if isFinite(bounds.Height) {
			anchorY = bounds.Height * align.Y
		}
		lastTopWanted := anchorY - t.lineHeight + t.baseline
		baselineBlockY := lastTopWanted - float64(n-1)*(t.lineHeight+t.lineSpacing)
		t.baselineShift = baselineBlockY - blockY
		blockY = baselineBlockY
	}

	first = NewRect(t.alignedLineX(0, bounds.Width, align), blockY, t.lines[0].Width, t.lineHeight)
	lastTop := blockY + float64(n-1)*(t.lineHeight+t.lineSpacing)
	last = NewRect(t.alignedLineX(n-1, bounds.Width, align), lastTop, t.lines[n-1].Width, t.lineHeight)
	return first, last
}

// alignedLineX computes a line's horizontal offset for the given width.
// Fill alignment keeps lines flush at the start edge; justification
// fills the slack instead.
func (t *ShapedText) alignedLineX(i int, width float64, align Align) float64 {
	if align.FillX || !isFinite(width) {
		return 0
	}
	return (width - t.lines[i].Width) * align.X
}

// applyLineRects moves every line to its new position. First and last
// lines take their rects directly; interior lines flow below the first
// line plus the interior clearance and are aligned to bounds on their
// own.
func (t *ShapedText) applyLineRects(bounds Size, align Align, firstRect, lastRect Rect) {
	n := len(t.lines)

	oldTops := make([]float64, n)
	for i := range oldTops {
		oldTops[i] = t.lineTop(i)
	}
	oldFirstX := make([]float64, n)
	for i := range oldFirstX {
		oldFirstX[i] = t.lines[i].XOffset
	}

	t.firstLine = firstRect
	t.lastLine = lastRect
	if n == 1 {
		t.lastLine = firstRect
	}

	for i := range t.lines {
		var newX, newTop float64
		switch {
		case i == 0:
			newX, newTop = firstRect.Origin.X, firstRect.Origin.Y
		case i == n-1:
			newX, newTop = lastRect.Origin.X, lastRect.Origin.Y
		default:
			newX = t.alignedLineX(i, bounds.Width, align)
			newTop = firstRect.Origin.Y + float64(i)*(t.lineHeight+t.lineSpacing) + t.midClear
		}
		dx := newX - oldFirstX[i]
		dy := newTop - oldTops[i]
		t.shiftLineGlyphs(i, dx, dy)
		t.lines[i].XOffset = newX
	}
}

// shiftLineGlyphs translates all glyphs of line i.
func (t *ShapedText) shiftLineGlyphs(i int, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	start, end := t.lineGlyphRange(i)
	for g := start; g < end; g++ {
		t.glyphs[g].Point.X += dx
		t.glyphs[g].Point.Y += dy
	}
}
