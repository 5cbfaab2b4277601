package shapedtext

import "iter"

// ShapedLine is a read-only window over one visual line.
type ShapedLine struct {
	text  *ShapedText
	index int
}

// Line returns a view of line i.
func (t *ShapedText) Line(i int) ShapedLine {
	return ShapedLine{text: t, index: i}
}

// Lines iterates views over all visual lines.
func (t *ShapedText) Lines() iter.Seq[ShapedLine] {
	return func(yield func(ShapedLine) bool) {
		for i := range t.lines {
			if !yield(ShapedLine{text: t, index: i}) {
				return
			}
		}
	}
}

// Index returns the line's position in the block.
func (l ShapedLine) Index() int { return l.index }

// Width returns the measured line width.
func (l ShapedLine) Width() float64 { return l.text.lines[l.index].Width }

// Directions returns the text directions present on the line.
func (l ShapedLine) Directions() LineDirections { return l.text.lines[l.index].Directions }

// Rect returns the line's rectangle in block coordinates.
func (l ShapedLine) Rect() Rect { return l.text.LineRect(l.index) }

// SegmentCount returns the number of shaped segments on the line.
func (l ShapedLine) SegmentCount() int {
	return l.text.lines[l.index].End - l.text.lineStartSeg(l.index)
}

// Segments iterates views over the line's segments in logical order.
func (l ShapedLine) Segments() iter.Seq[ShapedSegment] {
	return func(yield func(ShapedSegment) bool) {
		t := l.text
		for s := t.lineStartSeg(l.index); s < t.lines[l.index].End; s++ {
			if !yield(ShapedSegment{text: t, line: l.index, index: s}) {
				return
			}
		}
	}
}

// StartedByWrap reports whether the line begins at a soft wrap, i.e. the
// previous line did not end in an explicit line break.
func (l ShapedLine) StartedByWrap() bool {
	return l.text.lineStartedByWrap(l.index)
}

// lineFont returns a font used on the line, preferring the first glyph's
// font run. Decoration thickness comes from it.
func (l ShapedLine) lineFont() Font {
	t := l.text
	start, end := t.lineGlyphRange(l.index)
	if start < end {
		for _, fr := range t.fonts {
			if start < fr.End {
				return fr.Font
			}
		}
	}
	if len(t.fonts) > 0 {
		return t.fonts[0].Font
	}
	return nil
}

// decorationRect builds a horizontal rule across the line at the given
// offset up from the line bottom.
func (l ShapedLine) decorationRect(fromBottom float64) Rect {
	t := l.text
	thickness := 1.0
	if f := l.lineFont(); f != nil {
		if th := f.Metrics().UnderlineThickness; th > 0 {
			thickness = th
		}
	}
	r := t.LineRect(l.index)
	return NewRect(r.Origin.X, r.MaxY()-fromBottom-thickness/2, r.Size.Width, thickness)
}

// Underline returns the line's underline rectangle.
func (l ShapedLine) Underline() Rect { return l.decorationRect(l.text.underline) }

// UnderlineDescent returns the underline rectangle anchored below the
// font descent.
func (l ShapedLine) UnderlineDescent() Rect { return l.decorationRect(l.text.underlineDescent) }

// Overline returns the line's overline rectangle.
func (l ShapedLine) Overline() Rect { return l.decorationRect(l.text.overline) }

// Strikethrough returns the line's strikethrough rectangle.
func (l ShapedLine) Strikethrough() Rect { return l.decorationRect(l.text.strikethrough) }

// ShapedSegment is a read-only window over one shaped segment.
type ShapedSegment struct {
	text  *ShapedText
	line  int
	index int
}

// Index returns the segment's position in the block.
func (s ShapedSegment) Index() int { return s.index }

// Line returns the index of the line the segment sits on.
func (s ShapedSegment) Line() int { return s.line }

// Kind returns the segment's layout classification.
func (s ShapedSegment) Kind() SegmentKind { return s.text.segments[s.index].TextSegment.Kind }

// Direction returns the segment's resolved direction.
func (s ShapedSegment) Direction() Direction { return s.text.segments[s.index].Direction() }

// Advance returns the segment's total horizontal advance.
func (s ShapedSegment) Advance() float64 { return s.text.segments[s.index].Advance }

// TextRange returns the segment's [start, end) byte range in the source
// text.
func (s ShapedSegment) TextRange() (int, int) {
	return s.text.segStartByte(s.index), s.text.segments[s.index].TextSegment.End
}

// GlyphRange returns the segment's [start, end) glyph index range.
func (s ShapedSegment) GlyphRange() (int, int) {
	return s.text.segStartGlyph(s.index), s.text.segments[s.index].End
}

// Glyphs returns the segment's positioned glyphs.
func (s ShapedSegment) Glyphs() []GlyphInstance {
	start, end := s.GlyphRange()
	return s.text.glyphs[start:end]
}

// Rect returns the segment's rectangle in block coordinates.
func (s ShapedSegment) Rect() Rect {
	t := s.text
	seg := t.segments[s.index]
	return NewRect(
		t.lines[s.line].XOffset+seg.X,
		t.lineTop(s.line),
		seg.Advance,
		t.lineHeight,
	)
}

// X returns the segment's left edge in block coordinates.
func (s ShapedSegment) X() float64 {
	return s.text.lines[s.line].XOffset + s.text.segments[s.index].X
}
