// Package shapedtext converts pre-segmented text plus a font fallback list
// into fully positioned glyphs organized into visual lines.
//
// The pipeline has two phases with different costs:
//
//   - Shaping (expensive): [Shape] consumes a [SegmentedText] and emits a
//     [ShapedText]. Per-segment shaped glyphs are cached in each font's
//     word cache, so re-shaping mostly-unchanged text is cheap.
//   - Reflow (cheap): [ShapedText.ReshapeLines] repositions existing lines
//     for new constraints, alignment or line metrics without re-shaping a
//     single glyph. [ShapedText.ReshapeLinesJustify] and
//     [ShapedText.ClearJustify] redistribute inter-word or inter-letter
//     space reversibly on top of that.
//
// A ShapedText owns flat parallel arrays (glyphs, cluster map, segments,
// lines, font runs) related by integer index ranges. Rendering and text
// interaction consume it through the read-only view types [ShapedLine] and
// [ShapedSegment] and through the overflow/caret queries.
//
// # Example
//
//	font, err := shapedtext.NewOpenTypeFont(ttfData, 14)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	args := shapedtext.DefaultShapingArgs()
//	args.MaxWidth = 200
//	seg := shapedtext.Segment("the quick brown fox", shapedtext.DirectionLTR)
//	shaped := shapedtext.Shape(seg, []shapedtext.Font{font}, args)
//	for line := range shaped.Lines() {
//	    // render line...
//	}
//
// Shaping and layout are pure CPU transforms: no I/O, no suspension, no
// error returns. Independent ShapedText builds may run concurrently; the
// word shaping caches are the only shared mutable state.
package shapedtext
