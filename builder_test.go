package shapedtext

import (
	"math"
	"testing"

	"github.com/go-text/typesetting/language"
)

// TestShapeASCIIWrap tests the canonical two-words-per-line wrap: the
// trailing space hangs off the first line and the wrap lands before the
// third word.
func TestShapeASCIIWrap(t *testing.T) {
	st := shapePlain(t, "aaaa bbbb cccc", 90)

	if got := st.LineCount(); got != 2 {
		t.Fatalf("LineCount() = %d, want 2", got)
	}

	var kinds []SegmentKind
	for seg := range st.Line(0).Segments() {
		kinds = append(kinds, seg.Kind())
	}
	want := []SegmentKind{SegmentWord, SegmentSpace, SegmentWord, SegmentSpace}
	if len(kinds) != len(want) {
		t.Fatalf("line 0 segment kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("line 0 segment %d = %v, want %v", i, kinds[i], want[i])
		}
	}

	for seg := range st.Line(1).Segments() {
		start, end := seg.TextRange()
		if got := "aaaa bbbb cccc"[start:end]; got != "cccc" {
			t.Errorf("line 1 segment text = %q, want %q", got, "cccc")
		}
	}
}

// TestShapeRTLSingleLine tests that a lone RTL word comes out in visual
// order with the line flagged RTL.
func TestShapeRTLSingleLine(t *testing.T) {
	text := "שלום"
	args := DefaultShapingArgs()
	args.Direction = DirectionRTL
	st := Shape(Segment(text, DirectionRTL), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}

	if got := st.Line(0).Directions(); got != LineRTL {
		t.Fatalf("line directions = %v, want RTL", got)
	}

	runes := []rune(text)
	if got, want := st.glyphs[0].GID, GlyphID(runes[len(runes)-1]); got != want {
		t.Errorf("first glyph GID = %d, want last rune %d (visual order)", got, want)
	}
	for g := 1; g < len(st.glyphs); g++ {
		if st.glyphs[g].Point.X <= st.glyphs[g-1].Point.X {
			t.Fatalf("glyph %d x=%v not right of predecessor x=%v",
				g, st.glyphs[g].Point.X, st.glyphs[g-1].Point.X)
		}
	}
}

// TestShapeTabStops tests that tabs advance by the configured width.
func TestShapeTabStops(t *testing.T) {
	args := DefaultShapingArgs()
	args.TabXAdvance = 40
	st := Shape(Segment("a\tb", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}

	if got := st.GlyphCount(); got != 3 {
		t.Fatalf("GlyphCount() = %d, want 3", got)
	}
	if x := st.glyphs[2].Point.X; x < 40 {
		t.Errorf("glyph after tab at x=%v, want >= 40", x)
	}
}

// TestHyphenationProgress tests that hyphenating an oversized word
// terminates and breaks at least once, preferring the largest fitting
// prefix.
func TestHyphenationProgress(t *testing.T) {
	args := DefaultShapingArgs()
	args.MaxWidth = 55
	args.Hyphens = HyphensAuto
	args.Hyphenate = func(lang language.Language, word string) []int {
		var cuts []int
		for i := 2; i < len(word); i += 2 {
			cuts = append(cuts, i)
		}
		return cuts
	}

	st := Shape(Segment("aaaaaaaaaa", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.LineCount(); got < 2 {
		t.Fatalf("LineCount() = %d, want >= 2", got)
	}
	// Largest prefix with the hyphen glyph that fits 55 is four chars:
	// 4*10 + 10 = 50.
	if w := st.Line(0).Width(); !almostEqual(w, 50) {
		t.Errorf("line 0 width = %v, want 50 (four chars plus hyphen)", w)
	}
	// The hyphen glyph ends the first line.
	start, end := st.lineGlyphRange(0)
	if end <= start {
		t.Fatal("line 0 has no glyphs")
	}
	if got := st.glyphs[end-1].GID; got != GlyphID('-') {
		t.Errorf("last glyph of line 0 = %d, want hyphen %d", got, GlyphID('-'))
	}
}

// TestHyphenationNoCandidates tests the fallback when the hyphenator
// returns nothing usable.
func TestHyphenationNoCandidates(t *testing.T) {
	args := DefaultShapingArgs()
	args.MaxWidth = 55
	args.Hyphens = HyphensAuto
	args.Hyphenate = func(language.Language, string) []int { return nil }

	st := Shape(Segment("aaaaaaaaaa", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	// The word cannot hyphenate or split; it overflows one line whole.
	if got := st.LineCount(); got != 1 {
		t.Errorf("LineCount() = %d, want 1", got)
	}
}

// TestShapeBreakAll tests hard word splitting under BreakAll.
func TestShapeBreakAll(t *testing.T) {
	args := DefaultShapingArgs()
	args.MaxWidth = 50
	args.LineBreak = LineBreakBreakAll

	st := Shape(Segment("aaaaaaaaaaaa", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.LineCount(); got != 3 {
		t.Fatalf("LineCount() = %d, want 3 (5+5+2 chars)", got)
	}
	for i := 0; i < st.LineCount(); i++ {
		if w := st.Line(i).Width(); w > 50 {
			t.Errorf("line %d width = %v, want <= 50", i, w)
		}
	}
}

// TestShapeRTLBreakAll tests hard-splitting an overlong RTL word. The
// shaper emits RTL runs in visual order with decreasing clusters, so
// each line must keep a logical prefix of the text while the cluster
// map stays within each piece's own byte range.
func TestShapeRTLBreakAll(t *testing.T) {
	text := "שלוםשלום" // 8 runes, 2 bytes each
	args := DefaultShapingArgs()
	args.Direction = DirectionRTL
	args.MaxWidth = 30
	args.LineBreak = LineBreakBreakAll

	st := Shape(Segment(text, DirectionRTL), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.LineCount(); got != 3 {
		t.Fatalf("LineCount() = %d, want 3 (3+3+2 runes)", got)
	}
	wantWidths := []float64{30, 30, 20}
	for i, w := range wantWidths {
		if got := st.Line(i).Width(); !almostEqual(got, w) {
			t.Errorf("line %d width = %v, want %v", i, got, w)
		}
	}

	// The pieces cover the text in logical order.
	wantRanges := [][2]int{{0, 6}, {6, 12}, {12, 16}}
	s := 0
	for i := range wantWidths {
		for seg := range st.Line(i).Segments() {
			start, end := seg.TextRange()
			if got := [2]int{start, end}; got != wantRanges[s] {
				t.Errorf("segment %d text range = %v, want %v", s, got, wantRanges[s])
			}
			s++
		}
	}
	if s != 3 {
		t.Fatalf("segment count = %d, want 3", s)
	}

	// Line 0 holds the first three runes; its rightmost glyph is the
	// logically first one.
	if got, want := st.glyphs[2].GID, GlyphID([]rune(text)[0]); got != want {
		t.Errorf("rightmost glyph of line 0 = %d, want %d", got, want)
	}
}

// TestShapeCJKSplits tests that CJK text hard-splits without BreakAll.
func TestShapeCJKSplits(t *testing.T) {
	args := DefaultShapingArgs()
	args.MaxWidth = 30

	st := Shape(Segment("日本語間隔", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.LineCount(); got < 2 {
		t.Errorf("LineCount() = %d, want >= 2", got)
	}

	keep := DefaultShapingArgs()
	keep.MaxWidth = 30
	keep.LineBreak = LineBreakKeepAll
	st = Shape(Segment("日本語間隔", DirectionLTR), []Font{newFakeFont()}, keep)
	if got := st.LineCount(); got != 1 {
		t.Errorf("KeepAll LineCount() = %d, want 1", got)
	}
}

// TestShapeObscuringChar tests password-style rendering.
func TestShapeObscuringChar(t *testing.T) {
	args := DefaultShapingArgs()
	args.ObscuringChar = '*'

	st := Shape(Segment("ab cd", DirectionLTR), []Font{newFakeFont()}, args)
	for _, g := range st.glyphs {
		if g.GID != GlyphID('*') {
			t.Fatalf("glyph GID = %d, want %d for every obscured glyph", g.GID, GlyphID('*'))
		}
	}
}

// TestShapeObscuredClusters tests that obscured glyphs keep cluster
// offsets in the source text's byte space, whatever the byte widths of
// the source and replacement characters.
func TestShapeObscuredClusters(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		obscure rune
		want    []int
	}{
		{"wide source", "日本", '*', []int{0, 3}},
		{"wide replacement", "ab", '●', []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := DefaultShapingArgs()
			args.ObscuringChar = tt.obscure
			st := Shape(Segment(tt.text, DirectionLTR), []Font{newFakeFont()}, args)
			if err := st.CheckRanges(); err != nil {
				t.Fatalf("CheckRanges() = %v", err)
			}
			if len(st.clusters) != len(tt.want) {
				t.Fatalf("clusters = %v, want %v", st.clusters, tt.want)
			}
			for i, c := range tt.want {
				if st.clusters[i] != c {
					t.Errorf("cluster %d = %d, want %d", i, st.clusters[i], c)
				}
			}
		})
	}
}

// TestShapeLetterSpacing tests extra advance at cluster boundaries.
func TestShapeLetterSpacing(t *testing.T) {
	args := DefaultShapingArgs()
	args.LetterSpacing = 3

	st := Shape(Segment("abc", DirectionLTR), []Font{newFakeFont()}, args)
	// Three clusters: spacing after each, advance 30 + 3*3.
	if w := st.Line(0).Width(); !almostEqual(w, 39) {
		t.Errorf("line width with letter spacing = %v, want 39", w)
	}
}

// TestShapeFontFallback tests that missing glyphs fall through to the
// next font and that the last font is used when all of them miss.
func TestShapeFontFallback(t *testing.T) {
	first := newFakeFont()
	first.missing = map[rune]bool{'x': true}
	second := newFakeFont()
	second.advance = 20

	st := Shape(Segment("x", DirectionLTR), []Font{first, second}, DefaultShapingArgs())
	if w := st.Line(0).Width(); !almostEqual(w, 20) {
		t.Errorf("fallback line width = %v, want 20 (second font)", w)
	}

	second.missing = map[rune]bool{'x': true}
	st = Shape(Segment("x", DirectionLTR), []Font{first, second}, DefaultShapingArgs())
	if got := st.GlyphCount(); got != 1 {
		t.Fatalf("GlyphCount() = %d, want 1 even with all fonts missing", got)
	}
	if st.glyphs[0].GID != 0 {
		t.Errorf("glyph GID = %d, want 0 (missing glyph from last font)", st.glyphs[0].GID)
	}
}

// keyRecordingFont captures the shape key of the last ShapeSegment call.
type keyRecordingFont struct {
	fakeFont
	lastKey ShapeKey
}

func (f *keyRecordingFont) ShapeSegment(text string, key ShapeKey) ShapedRun {
	f.lastKey = key
	return f.fakeFont.ShapeSegment(text, key)
}

// TestShapeKeyCarriesFeatures tests that feature settings reach the
// font, both as the cache fingerprint and as the settings themselves.
func TestShapeKeyCarriesFeatures(t *testing.T) {
	font := &keyRecordingFont{fakeFont: *newFakeFont()}
	args := DefaultShapingArgs()
	args.FontFeatures = []Feature{{Tag: "frac", Value: 1}}
	args.IgnoreLigatures = true
	args.DisableKerning = true

	Shape(Segment("ab", DirectionLTR), []Font{font}, args)

	got := font.lastKey.FontFeatures
	want := []Feature{{Tag: "frac", Value: 1}, {Tag: "liga", Value: 0}, {Tag: "kern", Value: 0}}
	if len(got) != len(want) {
		t.Fatalf("key FontFeatures = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key feature %d = %v, want %v", i, got[i], want[i])
		}
	}
	if font.lastKey.Features != HashFeatures(want) {
		t.Errorf("key fingerprint = %d, want %d", font.lastKey.Features, HashFeatures(want))
	}
}

// TestShapeMixedBidiLine tests visual reordering of a mixed line.
func TestShapeMixedBidiLine(t *testing.T) {
	text := "ab שלום cd"
	st := Shape(Segment(text, DirectionLTR), []Font{newFakeFont()}, DefaultShapingArgs())
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}

	if got := st.Line(0).Directions(); got != LineBidi {
		t.Fatalf("line directions = %v, want Bidi", got)
	}

	// Visual positions stay packed: segment x offsets must tile the
	// line without gaps when sorted.
	order := st.lineVisualOrder(0)
	x := 0.0
	for _, s := range order {
		if !almostEqual(st.segments[s].X, x) {
			t.Fatalf("segment %d at x=%v, want %v (packed visual order)", s, st.segments[s].X, x)
		}
		x += st.segments[s].Advance
	}
	if !almostEqual(x, st.Line(0).Width()) {
		t.Errorf("packed width = %v, want line width %v", x, st.Line(0).Width())
	}
}

// TestShapeInlineFirstLineWidth tests the narrower first line under
// inline constraints.
func TestShapeInlineFirstLineWidth(t *testing.T) {
	args := DefaultShapingArgs()
	args.MaxWidth = 100
	args.Inline = &InlineConstraints{FirstMaxWidth: 50, MidClear: 5}

	st := Shape(Segment("aaaa bbbb cccc", DirectionLTR), []Font{newFakeFont()}, args)
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if !st.IsInlined() {
		t.Error("IsInlined() = false, want true")
	}
	if !st.FirstWrapped() {
		t.Error("FirstWrapped() = false, want true for a soft-wrapped first line")
	}
	// Only "aaaa" plus a hanging space fits the 50-wide first line.
	var first []SegmentKind
	for seg := range st.Line(0).Segments() {
		first = append(first, seg.Kind())
	}
	if len(first) != 2 {
		t.Errorf("line 0 has %d segments %v, want 2 (word + hanging space)", len(first), first)
	}
	if math.Abs(st.lineTop(1)-(18+5)) > 1e-9 {
		t.Errorf("line 1 top = %v, want 23 (line height + mid clear)", st.lineTop(1))
	}
}

// TestTrailingHardBreak tests that text ending in a line break yields a
// trailing empty line.
func TestTrailingHardBreak(t *testing.T) {
	st := shapePlain(t, "ab\n", math.Inf(1))
	if got := st.LineCount(); got != 2 {
		t.Fatalf("LineCount() = %d, want 2", got)
	}
	if w := st.Line(1).Width(); w != 0 {
		t.Errorf("trailing line width = %v, want 0", w)
	}
}
