package shapedtext

import "testing"

func TestLigatureSpansBoundary(t *testing.T) {
	tests := []struct {
		name       string
		clusters   []int
		boundaries []int
		want       bool
	}{
		{"boundary on cluster start", []int{0, 1}, []int{1}, false},
		{"boundary inside cluster", []int{0, 3}, []int{2}, true},
		{"no boundaries", []int{0, 1, 2}, nil, false},
		{"one of several inside", []int{0, 2, 4}, []int{2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var run ShapedRun
			for _, c := range tt.clusters {
				run.Glyphs = append(run.Glyphs, ShapedGlyph{Cluster: c})
			}
			if got := ligatureSpansBoundary(run, tt.boundaries); got != tt.want {
				t.Errorf("ligatureSpansBoundary(%v, %v) = %v, want %v",
					tt.clusters, tt.boundaries, got, tt.want)
			}
		})
	}
}

// ligatingFont fuses every "ff" pair into a single glyph, like a font
// with an ff ligature would.
type ligatingFont struct {
	fakeFont
}

func (f *ligatingFont) ShapeSegment(text string, key ShapeKey) ShapedRun {
	var run ShapedRun
	x := 0.0
	i := 0
	for i < len(text) {
		if i+1 < len(text) && text[i] == 'f' && text[i+1] == 'f' {
			run.Glyphs = append(run.Glyphs, ShapedGlyph{GID: 1000, Cluster: i, Offset: Point{X: x}})
			x += 15
			i += 2
			continue
		}
		run.Glyphs = append(run.Glyphs, ShapedGlyph{GID: GlyphID(text[i]), Cluster: i, Offset: Point{X: x}})
		x += 10
		i++
	}
	run.XAdvance = x
	return run
}

// wordPair builds two abutting word segments with no space in between,
// as an editor splitting a word at a style change would.
func wordPair(text string, split int) *SegmentedText {
	return NewSegmentedText(text, []TextSegment{
		{Kind: SegmentWord, End: split},
		{Kind: SegmentWord, End: len(text)},
	}, DirectionLTR)
}

func TestLigatureMergeAccepted(t *testing.T) {
	font := &ligatingFont{fakeFont: *newFakeFont()}
	st := Shape(wordPair("af", 2), []Font{font}, DefaultShapingArgs())
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}

	// "af" + "fb" shaped together produce a-ff-b; the ff glyph straddles
	// the boundary, so the merged shape is kept. Both original segments
	// survive with their own text ranges; the straddling glyph stays
	// with the segment it began in.
	st = Shape(wordPair("affb", 2), []Font{font}, DefaultShapingArgs())
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.SegmentCount(); got != 2 {
		t.Fatalf("SegmentCount() = %d, want 2 preserved segments", got)
	}
	if got := st.GlyphCount(); got != 3 {
		t.Fatalf("GlyphCount() = %d, want 3 (a, ff, b)", got)
	}
	if st.glyphs[1].GID != 1000 {
		t.Errorf("middle glyph GID = %d, want ligature 1000", st.glyphs[1].GID)
	}
	if w := st.Line(0).Width(); !almostEqual(w, 35) {
		t.Errorf("line width = %v, want 35", w)
	}

	var ranges [][2]int
	var advances []float64
	for seg := range st.Line(0).Segments() {
		start, end := seg.TextRange()
		ranges = append(ranges, [2]int{start, end})
		advances = append(advances, seg.Advance())
	}
	wantRanges := [][2]int{{0, 2}, {2, 4}}
	for i, want := range wantRanges {
		if ranges[i] != want {
			t.Errorf("segment %d text range = %v, want %v", i, ranges[i], want)
		}
	}
	// The a and ff glyphs belong to the first segment, b to the second.
	if !almostEqual(advances[0], 25) || !almostEqual(advances[1], 10) {
		t.Errorf("segment advances = %v, want [25 10]", advances)
	}
	if got, end := st.segments[0].End, 2; got != end {
		t.Errorf("first segment glyph end = %d, want %d", got, end)
	}
}

func TestLigatureMergeRejected(t *testing.T) {
	font := &ligatingFont{fakeFont: *newFakeFont()}

	// No cluster crosses the boundary between "ab" and "cd", so the
	// segments shape separately.
	st := Shape(wordPair("abcd", 2), []Font{font}, DefaultShapingArgs())
	if err := st.CheckRanges(); err != nil {
		t.Fatalf("CheckRanges() = %v", err)
	}
	if got := st.SegmentCount(); got != 2 {
		t.Errorf("SegmentCount() = %d, want 2 separate segments", got)
	}
}

func TestLigatureMergeDisabled(t *testing.T) {
	font := &ligatingFont{fakeFont: *newFakeFont()}
	args := DefaultShapingArgs()
	args.IgnoreLigatures = true

	st := Shape(wordPair("affb", 2), []Font{font}, args)
	if got := st.SegmentCount(); got != 2 {
		t.Errorf("SegmentCount() with IgnoreLigatures = %d, want 2", got)
	}
}
