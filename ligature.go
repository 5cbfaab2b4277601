package shapedtext

// Ligatures that cross segment boundaries (the classic "ffi" split over
// what the segmenter called two words) are detected by a merge-then-
// validate pass: contiguous word segments are shaped together and the
// merged result is kept only when a glyph cluster straddles one of the
// original boundaries. The check is a heuristic over cluster byte
// ranges, not a shaping oracle.

// tryLigatureMerge attempts to shape the maximal run of contiguous word
// segments starting at i as one string. On success it returns the
// exclusive segment end of the merged run, the merged shape and its
// font.
func (b *builder) tryLigatureMerge(i int) (int, ShapedRun, Font, bool) {
	if b.args.IgnoreLigatures || b.args.ObscuringChar != 0 {
		return 0, ShapedRun{}, nil, false
	}
	seg := b.text.Segment(i)
	j := i + 1
	for j < b.text.Len() {
		next := b.text.Segment(j)
		if next.Kind != SegmentWord || next.Level != seg.Level {
			break
		}
		j++
	}
	if j-i < 2 {
		return 0, ShapedRun{}, nil, false
	}

	merged := b.mergedText(i, j)
	run, font := b.shape(merged, seg)

	start := b.text.SegmentStart(i)
	boundaries := make([]int, 0, j-i-1)
	for k := i + 1; k < j; k++ {
		boundaries = append(boundaries, b.text.SegmentStart(k)-start)
	}
	if !ligatureSpansBoundary(run, boundaries) {
		return 0, ShapedRun{}, nil, false
	}
	return j, run, font, true
}

// ligatureSpansBoundary reports whether any glyph cluster of the merged
// shape crosses one of the byte boundaries. A boundary that is not a
// cluster start means its character fused into a glyph that began
// before it.
func ligatureSpansBoundary(run ShapedRun, boundaries []int) bool {
	starts := make(map[int]bool, len(run.Glyphs))
	for i := range run.Glyphs {
		starts[run.Glyphs[i].Cluster] = true
	}
	for _, x := range boundaries {
		if !starts[x] {
			return true
		}
	}
	return false
}
