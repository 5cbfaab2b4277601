package shapedtext

import (
	"fmt"
	"iter"

	"github.com/gogpu/shapedtext/emoji"
)

// GlyphInstance is one positioned glyph. Positions are absolute within
// the full shaped block, relative to its top-left corner.
type GlyphInstance struct {
	// GID is the glyph index in the owning font run's font.
	GID GlyphID

	// Point is the glyph pen position.
	Point Point
}

// GlyphSegment is one word/space/tab/line-break unit after shaping.
type GlyphSegment struct {
	// TextSegment carries the segment kind, bidi level and exclusive
	// end byte offset in the source text. Splits and merges keep End
	// accurate for the piece this GlyphSegment covers.
	TextSegment TextSegment

	// End is the exclusive end index into the glyphs array.
	End int

	// X is the segment's horizontal origin within its line; the line's
	// XOffset translates it into block coordinates.
	X float64

	// Advance is the segment's total horizontal advance.
	Advance float64
}

// Direction returns the segment direction implied by its bidi level.
func (s GlyphSegment) Direction() Direction { return s.TextSegment.Direction() }

// LineRange is one visual line as a range of segments.
type LineRange struct {
	// End is the exclusive end index into the segments array.
	End int

	// Width is the measured line width.
	Width float64

	// XOffset is the line's horizontal alignment offset.
	XOffset float64

	// Directions records which text directions occur on the line.
	Directions LineDirections
}

// FontRange run-length encodes which font produced which glyph range.
type FontRange struct {
	// Font is the font that shaped the glyphs of this run.
	Font Font

	// End is the exclusive end index into the glyphs array.
	End int
}

// imageGlyph overlays a glyph with an externally loaded image
// (color emoji fallback). Sorted by glyph index.
type imageGlyph struct {
	index  int
	image  ImageVar
	bitmap *emoji.Bitmap
}

// ShapedText is a fully positioned glyph block organized into visual
// lines. It is produced once by [Shape] and then mutated in place by the
// geometry-only transforms [ShapedText.ReshapeLines],
// [ShapedText.ReshapeLinesJustify] and [ShapedText.ClearJustify]; any
// change to text content, fonts or wrap configuration requires a new
// Shape call.
//
// A ShapedText is exclusively owned by one caller at a time; it is not
// safe for concurrent mutation.
type ShapedText struct {
	glyphs   []GlyphInstance
	clusters []int // byte offset within the owning segment's text, one per glyph
	segments []GlyphSegment
	lines    []LineRange
	fonts    []FontRange
	images   []imageGlyph

	lineHeight  float64
	lineSpacing float64

	// as first shaped, for reset on reflow
	origLineHeight  float64
	origLineSpacing float64

	// decoration offsets, measured from the line bottom
	baseline         float64
	overline         float64
	strikethrough    float64
	underline        float64
	underlineDescent float64

	align         Align
	overflowAlign Align
	justify       Justify
	justified     []float64
	direction     Direction

	// inline layout
	isInlined    bool
	firstWrapped bool
	firstLine    Rect
	midClear     float64
	midSize      Size
	lastLine     Rect

	hasColoredGlyphs bool

	// currently applied baseline-alignment shift
	baselineShift float64
}

// LineHeight returns the current line height.
func (t *ShapedText) LineHeight() float64 { return t.lineHeight }

// LineSpacing returns the current extra gap between lines.
func (t *ShapedText) LineSpacing() float64 { return t.lineSpacing }

// Baseline returns the baseline offset from the line bottom.
func (t *ShapedText) Baseline() float64 { return t.baseline }

// Overline returns the overline offset from the line bottom.
func (t *ShapedText) Overline() float64 { return t.overline }

// Strikethrough returns the strikethrough offset from the line bottom.
func (t *ShapedText) Strikethrough() float64 { return t.strikethrough }

// Underline returns the underline offset from the line bottom.
func (t *ShapedText) Underline() float64 { return t.underline }

// UnderlineDescent returns the offset from the line bottom of an
// underline anchored below the font descent.
func (t *ShapedText) UnderlineDescent() float64 { return t.underlineDescent }

// BaselineShift returns the vertical delta applied by baseline-anchored
// alignment, zero otherwise.
func (t *ShapedText) BaselineShift() float64 { return t.baselineShift }

// Direction returns the base direction the text was shaped with.
func (t *ShapedText) Direction() Direction { return t.direction }

// AlignValue returns the currently applied alignment.
func (t *ShapedText) AlignValue() Align { return t.align }

// OverflowAlignValue returns the alignment recorded for placing
// overflowing content, as set by [ShapedText.SetOverflowAlign].
func (t *ShapedText) OverflowAlignValue() Align { return t.overflowAlign }

// IsInlined reports whether the block was laid out under inline
// constraints.
func (t *ShapedText) IsInlined() bool { return t.isInlined }

// FirstWrapped reports whether the first line ended in a soft wrap.
func (t *ShapedText) FirstWrapped() bool { return t.firstWrapped }

// HasColoredGlyphs reports whether any glyph resolved to a color glyph.
func (t *ShapedText) HasColoredGlyphs() bool { return t.hasColoredGlyphs }

// IsJustified reports whether a justification pass is currently applied.
func (t *ShapedText) IsJustified() bool { return len(t.justified) > 0 }

// GlyphCount returns the number of positioned glyphs.
func (t *ShapedText) GlyphCount() int { return len(t.glyphs) }

// SegmentCount returns the number of shaped segments.
func (t *ShapedText) SegmentCount() int { return len(t.segments) }

// LineCount returns the number of visual lines.
func (t *ShapedText) LineCount() int { return len(t.lines) }

// lineStartSeg returns the first segment index of line i.
func (t *ShapedText) lineStartSeg(i int) int {
	if i == 0 {
		return 0
	}
	return t.lines[i-1].End
}

// segStartGlyph returns the first glyph index of segment i.
func (t *ShapedText) segStartGlyph(i int) int {
	if i == 0 {
		return 0
	}
	return t.segments[i-1].End
}

// segStartByte returns the start byte offset of segment i in the source
// text.
func (t *ShapedText) segStartByte(i int) int {
	if i == 0 {
		return 0
	}
	return t.segments[i-1].TextSegment.End
}

// lineGlyphRange returns the [start, end) glyph range of line i.
func (t *ShapedText) lineGlyphRange(i int) (int, int) {
	segStart := t.lineStartSeg(i)
	return t.segStartGlyph(segStart), t.segStartGlyph(t.lines[i].End)
}

// lineTop returns the top y of line i. The last line may sit away from
// the natural flow position when a parent inliner placed it.
func (t *ShapedText) lineTop(i int) float64 {
	if i > 0 && i == len(t.lines)-1 {
		return t.lastLine.Origin.Y
	}
	return t.flowLineTop(i)
}

// flowLineTop returns the natural flow top of line i: stacked below the
// first line with the interior clearance applied once.
func (t *ShapedText) flowLineTop(i int) float64 {
	y := t.firstLine.Origin.Y + float64(i)*(t.lineHeight+t.lineSpacing)
	if i > 0 {
		y += t.midClear
	}
	return y
}

// LineRect returns the rectangle of line i.
func (t *ShapedText) LineRect(i int) Rect {
	return NewRect(t.lines[i].XOffset, t.lineTop(i), t.lines[i].Width, t.lineHeight)
}

// Size returns the bounding size of the shaped block.
func (t *ShapedText) Size() Size { return t.BlockSize() }

// BlockSize returns the bounding box of all lines: the widest line by the
// total stacked line height.
func (t *ShapedText) BlockSize() Size {
	n := len(t.lines)
	if n == 0 {
		return Size{}
	}
	var w float64
	for i := range t.lines {
		if t.lines[i].Width > w {
			w = t.lines[i].Width
		}
	}
	h := t.lineTop(n-1) + t.lineHeight - t.firstLine.Origin.Y
	return Size{Width: w, Height: h}
}

// MidSize returns the bounding box of the interior lines (all but the
// first and last). It is zero for blocks of fewer than three lines.
func (t *ShapedText) MidSize() Size {
	n := len(t.lines)
	if n < 3 {
		return Size{}
	}
	count := n - 2
	var w float64
	for i := 1; i < n-1; i++ {
		if t.lines[i].Width > w {
			w = t.lines[i].Width
		}
	}
	return Size{
		Width:  w,
		Height: float64(count)*t.lineHeight + float64(count-1)*t.lineSpacing,
	}
}

// OverflowLine returns the index of the first line whose bottom edge
// exceeds maxHeight, walking line heights cumulatively from the top.
// The second result is false if every line fits.
func (t *ShapedText) OverflowLine(maxHeight float64) (int, bool) {
	for i := range t.lines {
		if t.lineTop(i)+t.lineHeight > maxHeight {
			return i, true
		}
	}
	return 0, false
}

// CanRewrap reports whether re-shaping with maxWidth could change the
// line layout: true iff some line is wider than maxWidth or some line was
// started by a soft wrap.
func (t *ShapedText) CanRewrap(maxWidth float64) bool {
	for i := range t.lines {
		if t.lines[i].Width > maxWidth {
			return true
		}
		if i > 0 && t.lineStartedByWrap(i) {
			return true
		}
	}
	return t.firstWrapped
}

// lineStartedByWrap reports whether line i begins at a soft wrap rather
// than an explicit line break.
func (t *ShapedText) lineStartedByWrap(i int) bool {
	if i == 0 {
		return false
	}
	prevEnd := t.lines[i-1].End
	if prevEnd == 0 {
		return true
	}
	return t.segments[prevEnd-1].TextSegment.Kind != SegmentLineBreak
}

// Glyphs iterates (font, glyph slice) pairs covering all glyphs, walking
// the font run-length ranges.
func (t *ShapedText) Glyphs() iter.Seq2[Font, []GlyphInstance] {
	return t.GlyphsSlice(0, len(t.glyphs))
}

// GlyphsSlice iterates (font, glyph slice) pairs clipped to the glyph
// index range [start, end).
func (t *ShapedText) GlyphsSlice(start, end int) iter.Seq2[Font, []GlyphInstance] {
	return func(yield func(Font, []GlyphInstance) bool) {
		runStart := 0
		for _, fr := range t.fonts {
			lo, hi := max(runStart, start), min(fr.End, end)
			runStart = fr.End
			if lo >= hi {
				continue
			}
			if !yield(fr.Font, t.glyphs[lo:hi]) {
				return
			}
		}
	}
}

// GlyphRunKind tags a run yielded by the color-aware iterators.
type GlyphRunKind uint8

const (
	// RunNormal is a run of plain outline glyphs.
	RunNormal GlyphRunKind = iota
	// RunColored is a single COLR layered color glyph.
	RunColored
	// RunImage is a single glyph replaced by a raster image.
	RunImage
)

// String returns the string representation of the run kind.
func (k GlyphRunKind) String() string {
	switch k {
	case RunNormal:
		return "Normal"
	case RunColored:
		return "Colored"
	case RunImage:
		return "Image"
	default:
		return unknownStr
	}
}

// GlyphRun is a maximal run of glyphs sharing one font and one rendering
// treatment.
type GlyphRun struct {
	// Font is the font of the run.
	Font Font

	// Kind selects which of the remaining fields are meaningful.
	Kind GlyphRunKind

	// Glyphs are the positioned glyphs: all of them for RunNormal, the
	// single base glyph for RunColored and RunImage.
	Glyphs []GlyphInstance

	// Point is the base glyph pen point (RunColored).
	Point Point

	// Color holds the layer components (RunColored).
	Color *emoji.ColorGlyph

	// Image is the external image handle (RunImage).
	Image ImageVar

	// Rect is the image placement box (RunImage): the image's native
	// size scaled so its height matches the font size, baseline-aligned
	// at the glyph's pen point.
	Rect Rect
}

// ColoredGlyphs iterates glyph runs, splitting at color-paletted glyphs.
// Plain glyphs come out as RunNormal runs; every colored glyph is its own
// RunColored run.
func (t *ShapedText) ColoredGlyphs() iter.Seq[GlyphRun] {
	return t.taggedRuns(false)
}

// ImageGlyphs iterates glyph runs, splitting at both color-paletted and
// image-overlaid glyphs.
func (t *ShapedText) ImageGlyphs() iter.Seq[GlyphRun] {
	return t.taggedRuns(true)
}

func (t *ShapedText) taggedRuns(withImages bool) iter.Seq[GlyphRun] {
	return func(yield func(GlyphRun) bool) {
		imgIdx := 0
		glyphIndex := 0
		for font, glyphs := range t.Glyphs() {
			runStart := 0
			cf, _ := font.(ColorFont)
			for i := range glyphs {
				abs := glyphIndex + i

				var overlay *imageGlyph
				if withImages {
					for imgIdx < len(t.images) && t.images[imgIdx].index < abs {
						imgIdx++
					}
					if imgIdx < len(t.images) && t.images[imgIdx].index == abs {
						overlay = &t.images[imgIdx]
					}
				}

				var colorGlyph *emoji.ColorGlyph
				if overlay == nil && cf != nil {
					colorGlyph, _ = cf.ColorGlyph(glyphs[i].GID)
				}
				if overlay == nil && colorGlyph == nil {
					continue
				}

				if runStart < i {
					if !yield(GlyphRun{Font: font, Kind: RunNormal, Glyphs: glyphs[runStart:i]}) {
						return
					}
				}
				runStart = i + 1

				if overlay != nil {
					if !yield(GlyphRun{
						Font:   font,
						Kind:   RunImage,
						Glyphs: glyphs[i : i+1],
						Image:  overlay.image,
						Rect:   t.imageRect(font, glyphs[i], overlay),
					}) {
						return
					}
					continue
				}
				if !yield(GlyphRun{
					Font:   font,
					Kind:   RunColored,
					Glyphs: glyphs[i : i+1],
					Point:  glyphs[i].Point,
					Color:  colorGlyph,
				}) {
					return
				}
			}
			if runStart < len(glyphs) {
				if !yield(GlyphRun{Font: font, Kind: RunNormal, Glyphs: glyphs[runStart:]}) {
					return
				}
			}
			glyphIndex += len(glyphs)
		}
	}
}

// imageRect computes the placement box of an image glyph: the image's
// native size scaled so its height matches the font size, anchored so its
// bottom sits on the glyph baseline.
func (t *ShapedText) imageRect(font Font, g GlyphInstance, overlay *imageGlyph) Rect {
	native := overlay.image.Size()
	if native.Height <= 0 {
		if overlay.bitmap != nil {
			native = Size{Width: float64(overlay.bitmap.Width), Height: float64(overlay.bitmap.Height)}
		}
		if native.Height <= 0 {
			return Rect{}
		}
	}
	scale := font.Size() / native.Height
	w, h := native.Width*scale, native.Height*scale
	return NewRect(g.Point.X, g.Point.Y-h, w, h)
}

// CheckRanges validates the parallel index-range invariants: segment,
// line and font ends must be non-decreasing, and the final ends must
// cover the owning arrays exactly. It returns a descriptive error on the
// first violation.
//
// Tests call this at full strictness. Internally the engine runs it
// through debugAssertRanges, which logs and abandons the current
// operation instead of failing.
func (t *ShapedText) CheckRanges() error {
	if len(t.clusters) != len(t.glyphs) {
		return fmt.Errorf("cluster map has %d entries for %d glyphs", len(t.clusters), len(t.glyphs))
	}
	prev := 0
	for i, s := range t.segments {
		if s.End < prev {
			return fmt.Errorf("segment %d end %d decreases below %d", i, s.End, prev)
		}
		prev = s.End
	}
	for i, s := range t.segments {
		textLen := s.TextSegment.End - t.segStartByte(i)
		for g := t.segStartGlyph(i); g < s.End && g < len(t.clusters); g++ {
			c := t.clusters[g]
			if c < 0 {
				return fmt.Errorf("glyph %d cluster %d negative", g, c)
			}
			if textLen > 0 && c >= textLen {
				return fmt.Errorf("glyph %d cluster %d outside segment %d text length %d", g, c, i, textLen)
			}
		}
	}
	if len(t.segments) > 0 && prev != len(t.glyphs) {
		return fmt.Errorf("last segment end %d != glyph count %d", prev, len(t.glyphs))
	}
	prev = 0
	for i, l := range t.lines {
		if l.End < prev {
			return fmt.Errorf("line %d end %d decreases below %d", i, l.End, prev)
		}
		prev = l.End
	}
	if len(t.lines) == 0 {
		return fmt.Errorf("shaped text has no lines")
	}
	if prev != len(t.segments) {
		return fmt.Errorf("last line end %d != segment count %d", prev, len(t.segments))
	}
	prev = 0
	for i, f := range t.fonts {
		if f.End < prev {
			return fmt.Errorf("font run %d end %d decreases below %d", i, f.End, prev)
		}
		prev = f.End
	}
	if len(t.glyphs) > 0 && prev != len(t.glyphs) {
		return fmt.Errorf("last font run end %d != glyph count %d", prev, len(t.glyphs))
	}
	for i := 1; i < len(t.images); i++ {
		if t.images[i].index <= t.images[i-1].index {
			return fmt.Errorf("image overlay %d out of order", i)
		}
	}
	return nil
}

// debugAssertRanges logs and reports range violations without failing
// the operation. Layout bugs must never crash release users.
func (t *ShapedText) debugAssertRanges() bool {
	if err := t.CheckRanges(); err != nil {
		Logger().Warn("shapedtext: range invariant violated", "err", err)
		return false
	}
	return true
}
