package shapedtext

import (
	"math"
	"testing"
)

// fakeFont shapes every rune to a fixed-advance glyph whose id is the
// rune value. Deterministic and file-free, it stands in for a real font
// in layout tests.
type fakeFont struct {
	advance float64
	size    float64
	missing map[rune]bool
}

func newFakeFont() *fakeFont {
	return &fakeFont{advance: 10, size: 16}
}

func (f *fakeFont) ShapeSegment(text string, key ShapeKey) ShapedRun {
	type glyph struct {
		r       rune
		cluster int
	}
	var logical []glyph
	byteOff := 0
	for _, r := range text {
		logical = append(logical, glyph{r: r, cluster: byteOff})
		byteOff += len(string(r))
	}
	if key.Direction == DirectionRTL {
		for i, j := 0, len(logical)-1; i < j; i, j = i+1, j-1 {
			logical[i], logical[j] = logical[j], logical[i]
		}
	}

	var run ShapedRun
	x := 0.0
	for _, g := range logical {
		gid := GlyphID(g.r)
		if f.missing[g.r] {
			gid = 0
		}
		run.Glyphs = append(run.Glyphs, ShapedGlyph{GID: gid, Cluster: g.cluster, Offset: Point{X: x}})
		x += f.advance
	}
	run.XAdvance = x
	return run
}

func (f *fakeFont) Metrics() Metrics {
	return Metrics{
		Ascent: 12, Descent: 4, LineGap: 2,
		XHeight: 8, CapHeight: 11,
		UnderlinePosition: -1, UnderlineThickness: 1,
	}
}

func (f *fakeFont) Size() float64       { return f.size }
func (f *fakeFont) SpaceIndex() GlyphID { return GlyphID(' ') }

// shapePlain shapes text left-to-right with the fake font.
func shapePlain(t *testing.T, text string, maxWidth float64) *ShapedText {
	t.Helper()
	args := DefaultShapingArgs()
	args.MaxWidth = maxWidth
	st := Shape(Segment(text, DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() after Shape(%q) = %v", text, err)
	}
	return st
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestCheckRangesMonotonic tests the range invariants over a spread of
// inputs, including the degenerate ones most likely to corrupt silently.
func TestCheckRangesMonotonic(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single word", "hello"},
		{"words and spaces", "hello brave new world"},
		{"forced breaks", "hello\nworld\n"},
		{"all line breaks", "\n\n\n"},
		{"tabs", "a\tb\tc"},
		{"spaces only", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := shapePlain(t, tt.text, 90)
			if st.LineCount() == 0 {
				t.Error("LineCount() = 0, want at least one line")
			}
		})
	}
}

// TestCheckRangesClusterBounds tests that the cluster map is validated
// against each segment's own byte range: corrupt split bookkeeping shows
// up as negative or out-of-range cluster values.
func TestCheckRangesClusterBounds(t *testing.T) {
	st := shapePlain(t, "ab", math.Inf(1))

	good := st.clusters[0]
	st.clusters[0] = -2
	if err := st.CheckRanges(); err == nil {
		t.Error("CheckRanges() = nil with a negative cluster, want error")
	}
	st.clusters[0] = good

	st.clusters[1] = 99
	if err := st.CheckRanges(); err == nil {
		t.Error("CheckRanges() = nil with a cluster past the segment text, want error")
	}
}

// TestShapeEmptyText tests that empty input still yields one empty line.
func TestShapeEmptyText(t *testing.T) {
	st := shapePlain(t, "", math.Inf(1))
	if got := st.LineCount(); got != 1 {
		t.Fatalf("LineCount() = %d, want 1", got)
	}
	if got := st.GlyphCount(); got != 0 {
		t.Errorf("GlyphCount() = %d, want 0", got)
	}
	if size := st.Size(); size.Width != 0 {
		t.Errorf("Size().Width = %v, want 0", size.Width)
	}
}

// TestBlockSize tests block and mid-lines bounding boxes.
func TestBlockSize(t *testing.T) {
	// Three lines: "aaaa", "bbbb", "cc".
	st := shapePlain(t, "aaaa bbbb cc", 45)
	if got := st.LineCount(); got != 3 {
		t.Fatalf("LineCount() = %d, want 3", got)
	}

	size := st.BlockSize()
	wantHeight := 3 * 18.0 // lineHeight = ascent+descent+gap = 18, spacing 0
	if !almostEqual(size.Height, wantHeight) {
		t.Errorf("BlockSize().Height = %v, want %v", size.Height, wantHeight)
	}

	mid := st.MidSize()
	if !almostEqual(mid.Height, 18) {
		t.Errorf("MidSize().Height = %v, want 18", mid.Height)
	}
	// The middle line carries its hanging space: "bbbb" plus one space.
	if !almostEqual(mid.Width, 50) {
		t.Errorf("MidSize().Width = %v, want 50", mid.Width)
	}
}

// TestOverflowLineByHeight tests the cumulative height walk.
func TestOverflowLineByHeight(t *testing.T) {
	st := shapePlain(t, "aaaa bbbb cccc", 45) // 3 lines, 18 each

	tests := []struct {
		name      string
		maxHeight float64
		wantLine  int
		wantOver  bool
	}{
		{"all fit", 100, 0, false},
		{"exact fit", 54, 0, false},
		{"third overflows", 53, 2, true},
		{"second overflows", 35, 1, true},
		{"nothing fits", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, over := st.OverflowLine(tt.maxHeight)
			if over != tt.wantOver || line != tt.wantLine {
				t.Errorf("OverflowLine(%v) = (%d, %v), want (%d, %v)",
					tt.maxHeight, line, over, tt.wantLine, tt.wantOver)
			}
		})
	}
}

// TestCanRewrap tests the rewrap predicate.
func TestCanRewrap(t *testing.T) {
	short := shapePlain(t, "hi", math.Inf(1))
	if short.CanRewrap(100) {
		t.Error("CanRewrap(100) on a short one-line text = true, want false")
	}

	wrapped := shapePlain(t, "aaaa bbbb cccc", 90)
	if !wrapped.CanRewrap(1000) {
		t.Error("CanRewrap(1000) on wrapped text = false, want true")
	}

	wide := shapePlain(t, "aaaaaaaaaa", math.Inf(1)) // one 100-wide line
	if !wide.CanRewrap(50) {
		t.Error("CanRewrap(50) on an overflowing line = false, want true")
	}
}

// TestGlyphsIterator tests the (font, glyphs) run walk.
func TestGlyphsIterator(t *testing.T) {
	st := shapePlain(t, "ab cd", math.Inf(1))

	total := 0
	for font, glyphs := range st.Glyphs() {
		if font == nil {
			t.Error("Glyphs() yielded a nil font")
		}
		total += len(glyphs)
	}
	if total != st.GlyphCount() {
		t.Errorf("Glyphs() covered %d glyphs, want %d", total, st.GlyphCount())
	}

	sliced := 0
	for _, glyphs := range st.GlyphsSlice(1, 4) {
		sliced += len(glyphs)
	}
	if sliced != 3 {
		t.Errorf("GlyphsSlice(1, 4) covered %d glyphs, want 3", sliced)
	}
}

// TestGlyphPositionsMonotonicPerLine tests that glyph x positions grow
// left to right within an LTR line.
func TestGlyphPositionsMonotonicPerLine(t *testing.T) {
	st := shapePlain(t, "aaaa bbbb cccc", 90)
	for i := 0; i < st.LineCount(); i++ {
		start, end := st.lineGlyphRange(i)
		for g := start + 1; g < end; g++ {
			if st.glyphs[g].Point.X < st.glyphs[g-1].Point.X {
				t.Fatalf("line %d glyph %d at x=%v is left of its predecessor at x=%v",
					i, g, st.glyphs[g].Point.X, st.glyphs[g-1].Point.X)
			}
		}
	}
}

// TestLineViews tests the line/segment view accessors.
func TestLineViews(t *testing.T) {
	st := shapePlain(t, "ab cd\nef", math.Inf(1))
	if got := st.LineCount(); got != 2 {
		t.Fatalf("LineCount() = %d, want 2", got)
	}

	var kinds []SegmentKind
	for line := range st.Lines() {
		for seg := range line.Segments() {
			kinds = append(kinds, seg.Kind())
		}
	}
	want := []SegmentKind{SegmentWord, SegmentSpace, SegmentWord, SegmentLineBreak, SegmentWord}
	if len(kinds) != len(want) {
		t.Fatalf("segment kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("segment %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}

	if st.Line(1).StartedByWrap() {
		t.Error("line after explicit break reports StartedByWrap() = true")
	}

	wrapped := shapePlain(t, "aaaa bbbb cccc", 90)
	if !wrapped.Line(1).StartedByWrap() {
		t.Error("soft-wrapped line reports StartedByWrap() = false")
	}
}

// TestDecorationRects tests the decoration line placement.
func TestDecorationRects(t *testing.T) {
	st := shapePlain(t, "ab", math.Inf(1))
	line := st.Line(0)

	under := line.Underline()
	strike := line.Strikethrough()
	over := line.Overline()
	if !(over.Origin.Y < strike.Origin.Y && strike.Origin.Y < under.Origin.Y) {
		t.Errorf("decoration order wrong: overline y=%v, strikethrough y=%v, underline y=%v",
			over.Origin.Y, strike.Origin.Y, under.Origin.Y)
	}
	if under.Size.Width != line.Width() {
		t.Errorf("Underline().Size.Width = %v, want line width %v", under.Size.Width, line.Width())
	}
}
