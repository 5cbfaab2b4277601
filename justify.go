package shapedtext

import "github.com/go-text/typesetting/language"

// ReshapeLinesJustify redistributes glyph advances in place so each
// eligible line fills width. Only fill-on-x aligned blocks justify;
// other alignments make this a no-op.
//
// Every value subtracted from a segment advance and every distributed
// step is recorded so [ShapedText.ClearJustify] can apply the exact
// inverse and restore the pre-justify layout bit for bit.
func (t *ShapedText) ReshapeLinesJustify(justify Justify, lang language.Language, width float64) {
	if !t.align.IsFillX() || !isFinite(width) {
		return
	}
	if !t.debugAssertRanges() {
		return
	}
	if len(t.justified) > 0 {
		t.ClearJustify()
	}
	mode := resolveJustify(justify, lang)
	if mode == JustifyNone {
		return
	}
	t.justify = mode

	for i := range t.lines {
		if !t.justifyEligible(i) {
			continue
		}
		t.justifyLine(i, mode, width)
	}
	t.debugAssertRanges()
}

// ClearJustify undoes an active justification pass, replaying the same
// structural traversal and applying the inverse of every recorded delta.
// Without an active pass it is a no-op.
func (t *ShapedText) ClearJustify() {
	if len(t.justified) == 0 {
		t.justify = JustifyNone
		return
	}
	mode := t.justify
	idx := 0
	pop := func() float64 {
		if idx >= len(t.justified) {
			return 0
		}
		v := t.justified[idx]
		idx++
		return v
	}

	for i := range t.lines {
		if !t.justifyEligible(i) {
			continue
		}
		t.unjustifyLine(i, mode, pop)
	}
	t.justified = nil
	t.justify = JustifyNone
}

// resolveJustify maps JustifyAuto to a concrete mode for the language:
// scripts written without inter-word spaces stretch between letters.
func resolveJustify(justify Justify, lang language.Language) Justify {
	if justify != JustifyAuto {
		return justify
	}
	switch lang.Primary() {
	case "ja", "zh", "th", "km", "lo", "my":
		return JustifyInterLetter
	default:
		return JustifyInterWord
	}
}

// justifyEligible reports whether line i takes justification: every line
// of an inline-anchored block, otherwise every line but the last.
func (t *ShapedText) justifyEligible(i int) bool {
	if t.isInlined {
		return true
	}
	return i < len(t.lines)-1
}

// trimLeading reports whether line i's visually leading space segment is
// trimmed to zero advance. The first line of an inline continuation
// keeps its leading space.
func (t *ShapedText) trimLeading(i int) bool {
	return !(i == 0 && t.isInlined && !t.firstWrapped)
}

// trimTrailing reports whether line i's visually trailing space segment
// is trimmed. The last line of an inline block feeds into the parent
// row, so its trailing space stays.
func (t *ShapedText) trimTrailing(i int) bool {
	return !(i == len(t.lines)-1 && t.isInlined)
}

// lineVisualOrder returns line i's segment indices sorted by their x
// offset. Built lines are packed cumulatively, so this recovers the
// visual order for both reordered bidi lines and plain ones.
func (t *ShapedText) lineVisualOrder(i int) []int {
	start, end := t.lineStartSeg(i), t.lines[i].End
	order := make([]int, 0, end-start)
	for s := start; s < end; s++ {
		order = append(order, s)
	}
	for a := 1; a < len(order); a++ {
		for b := a; b > 0 && t.segments[order[b]].X < t.segments[order[b-1]].X; b-- {
			order[b], order[b-1] = order[b-1], order[b]
		}
	}
	return order
}

// clusterBoundaries counts interior cluster boundaries of segment s.
func (t *ShapedText) clusterBoundaries(s int) int {
	start, end := t.segStartGlyph(s), t.segments[s].End
	if end-start < 2 {
		return 0
	}
	n := 0
	for g := start + 1; g < end; g++ {
		if t.clusters[g] != t.clusters[g-1] {
			n++
		}
	}
	return n
}

// justifyLine stretches line i to width, recording each applied delta.
func (t *ShapedText) justifyLine(i int, mode Justify, width float64) {
	order := t.lineVisualOrder(i)
	if len(order) == 0 {
		t.justified = append(t.justified, 0)
		return
	}

	space := width - t.lines[i].Width

	// Trim the visually leading/trailing space segments, folding their
	// advance into the distributable slack.
	trimmed := make(map[int]bool, 2)
	if first := order[0]; t.segments[first].TextSegment.Kind == SegmentSpace && t.trimLeading(i) {
		adv := t.segments[first].Advance
		t.justified = append(t.justified, adv)
		t.segments[first].Advance = 0
		space += adv
		trimmed[first] = true
	}
	if last := order[len(order)-1]; len(order) > 1 &&
		t.segments[last].TextSegment.Kind == SegmentSpace && t.trimTrailing(i) {
		adv := t.segments[last].Advance
		t.justified = append(t.justified, adv)
		t.segments[last].Advance = 0
		space += adv
		trimmed[last] = true
	}

	count := 0
	for _, s := range order {
		seg := &t.segments[s]
		switch mode {
		case JustifyInterWord:
			if seg.TextSegment.Kind == SegmentSpace && !trimmed[s] {
				count++
			}
		case JustifyInterLetter:
			if seg.TextSegment.Kind == SegmentWord || seg.TextSegment.Kind == SegmentEmoji ||
				(seg.TextSegment.Kind == SegmentSpace && !trimmed[s]) {
				count += t.clusterBoundaries(s)
			}
		}
	}
	if mode == JustifyInterLetter && count == 0 {
		count = 1
	}

	var advance float64
	if count > 0 && space > 0 {
		advance = space / float64(count)
	}
	t.justified = append(t.justified, advance)

	t.repackLine(i, order, mode, advance, trimmed)
}

// unjustifyLine pops line i's recorded deltas and restores its layout.
func (t *ShapedText) unjustifyLine(i int, mode Justify, pop func() float64) {
	order := t.lineVisualOrder(i)
	if len(order) == 0 {
		pop()
		return
	}

	restored := make(map[int]float64, 2)
	if first := order[0]; t.segments[first].TextSegment.Kind == SegmentSpace && t.trimLeading(i) {
		restored[first] = pop()
	}
	if last := order[len(order)-1]; len(order) > 1 &&
		t.segments[last].TextSegment.Kind == SegmentSpace && t.trimTrailing(i) {
		restored[last] = pop()
	}
	advance := pop()

	// Undo the intra-segment stretch before repacking.
	if mode == JustifyInterLetter && advance != 0 {
		for _, s := range order {
			t.stretchSegment(s, -advance)
		}
	}
	for s, adv := range restored {
		t.segments[s].Advance = adv
	}

	t.repackLine(i, order, mode, 0, nil)
}

// repackLine lays line i's segments out left to right from the line
// origin, inserting advance at each insertion point, and refreshes the
// line width.
func (t *ShapedText) repackLine(i int, order []int, mode Justify, advance float64, trimmed map[int]bool) {
	x := 0.0
	for _, s := range order {
		seg := &t.segments[s]
		dx := x - seg.X
		t.shiftSegment(s, dx)
		seg.X = x

		if mode == JustifyInterLetter && advance != 0 &&
			(seg.TextSegment.Kind == SegmentWord || seg.TextSegment.Kind == SegmentEmoji ||
				(seg.TextSegment.Kind == SegmentSpace && !trimmed[s])) {
			t.stretchSegment(s, advance)
		}
		x += seg.Advance

		if mode == JustifyInterWord && advance != 0 &&
			seg.TextSegment.Kind == SegmentSpace && !trimmed[s] {
			x += advance
		}
	}
	t.lines[i].Width = x
}

// shiftSegment moves segment s's glyphs horizontally by dx.
func (t *ShapedText) shiftSegment(s int, dx float64) {
	if dx == 0 {
		return
	}
	for g := t.segStartGlyph(s); g < t.segments[s].End; g++ {
		t.glyphs[g].Point.X += dx
	}
}

// stretchSegment inserts (or removes, for negative advance) one advance
// step at every interior cluster boundary of segment s, growing its
// total advance accordingly.
func (t *ShapedText) stretchSegment(s int, advance float64) {
	start, end := t.segStartGlyph(s), t.segments[s].End
	extra := 0.0
	for g := start + 1; g < end; g++ {
		if t.clusters[g] != t.clusters[g-1] {
			extra += advance
		}
		t.glyphs[g].Point.X += extra
	}
	boundaries := t.clusterBoundaries(s)
	t.segments[s].Advance += float64(boundaries) * advance
}
