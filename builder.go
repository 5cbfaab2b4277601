package shapedtext

import (
	"strings"

	"github.com/go-text/typesetting/language"
)

// Shape lays out segmented text with the given font fallback list into a
// positioned glyph block.
//
// Shape never fails: missing glyphs fall back through the font list,
// overflowing words hyphenate, hard-split or overflow their line, and
// degenerate input still yields a block with at least one (empty) line.
func Shape(text *SegmentedText, fonts []Font, args *ShapingArgs) *ShapedText {
	if args == nil {
		args = DefaultShapingArgs()
	}
	b := &builder{
		text:  text,
		fonts: fonts,
		args:  args,
		out:   &ShapedText{},
	}
	b.run()
	b.out.debugAssertRanges()
	return b.out
}

// builder is the single-pass shaping state. It lives for one Shape call.
type builder struct {
	text  *SegmentedText
	fonts []Font
	args  *ShapingArgs
	out   *ShapedText

	origin   Point
	maxWidth float64 // effective for the current line

	lineHasLTR bool
	lineHasRTL bool

	hyphenRun   ShapedRun
	hyphenFont  Font
	hyphenValid bool

	feats    []Feature
	featHash uint64

	metrics Metrics
}

func (b *builder) run() {
	out, args := b.out, b.args

	if len(b.fonts) > 0 {
		b.metrics = b.fonts[0].Metrics()
	}
	b.feats = args.features()
	b.featHash = HashFeatures(b.feats)
	out.lineHeight = args.LineHeight
	if out.lineHeight <= 0 {
		out.lineHeight = b.metrics.LineHeight()
	}
	out.lineSpacing = args.LineSpacing
	out.origLineHeight = out.lineHeight
	out.origLineSpacing = out.lineSpacing

	// Decoration offsets are measured up from the line bottom, with the
	// line gap split evenly above and below the glyph box.
	out.baseline = b.metrics.Descent + b.metrics.LineGap/2
	out.underline = out.baseline + b.metrics.UnderlinePosition
	out.underlineDescent = b.metrics.LineGap / 2
	out.strikethrough = out.baseline + b.metrics.XHeight/2
	out.overline = out.baseline + b.metrics.Ascent

	out.direction = args.Direction
	out.justify = JustifyNone
	out.align = AlignTopLeft
	out.overflowAlign = AlignTopLeft

	b.maxWidth = args.MaxWidth
	if args.Inline != nil {
		out.isInlined = true
		out.midClear = args.Inline.MidClear
		if args.Inline.FirstMaxWidth > 0 {
			b.maxWidth = args.Inline.FirstMaxWidth
		}
	}

	i := 0
	for i < b.text.Len() {
		seg := b.text.Segment(i)
		switch seg.Kind {
		case SegmentWord:
			if j, merged, font, ok := b.tryLigatureMerge(i); ok {
				b.pushMergedRun(i, j, merged, font)
				i = j
				continue
			}
			b.pushShapedWord(seg, i)
		case SegmentEmoji:
			b.pushShapedWord(seg, i)
		case SegmentSpace:
			b.pushSpace(seg, i)
		case SegmentTab:
			b.pushTab(seg, i)
		case SegmentLineBreak:
			b.appendEmptySegment(seg)
			b.breakLine()
		default:
			run, font := b.shape(b.segmentText(seg, i), seg)
			b.appendSegment(seg, run, font)
		}
		i++
	}
	b.finishLastLine()
}

// segmentText returns the text to shape for segment i, applying the
// obscuring character if configured.
func (b *builder) segmentText(seg TextSegment, i int) string {
	text := b.text.SegmentText(i)
	if b.args.ObscuringChar != 0 && (seg.Kind == SegmentWord || seg.Kind == SegmentSpace) {
		return strings.Repeat(string(b.args.ObscuringChar), len([]rune(text)))
	}
	return text
}

// mergedText returns the concatenated text of segments [i, j).
func (b *builder) mergedText(i, j int) string {
	start := b.text.SegmentStart(i)
	return b.text.Text()[start:b.text.Segment(j-1).End]
}

// shapeKey builds the shaping context for a segment's text.
func (b *builder) shapeKey(text string, seg TextSegment) ShapeKey {
	script := language.Common
	for _, r := range text {
		if s := language.LookupScript(r); s != language.Common {
			script = s
			break
		}
	}
	return ShapeKey{
		Lang:         b.args.Lang,
		Script:       script,
		Direction:    seg.Direction(),
		Features:     b.featHash,
		FontFeatures: b.feats,
	}
}

// shape shapes text through the font fallback chain and applies letter
// spacing.
func (b *builder) shape(text string, seg TextSegment) (ShapedRun, Font) {
	run, font := shapeWithFallback(b.fonts, text, b.shapeKey(text, seg))
	return b.spaceOut(run), font
}

// spaceOut applies letter spacing at cluster boundaries.
func (b *builder) spaceOut(run ShapedRun) ShapedRun {
	ls := b.args.LetterSpacing
	if ls == 0 || len(run.Glyphs) == 0 {
		return run
	}
	glyphs := make([]ShapedGlyph, len(run.Glyphs))
	copy(glyphs, run.Glyphs)
	extra := 0.0
	prev := glyphs[0].Cluster
	for i := range glyphs {
		if glyphs[i].Cluster != prev {
			extra += ls
			prev = glyphs[i].Cluster
		}
		glyphs[i].Offset.X += extra
	}
	return ShapedRun{Glyphs: glyphs, XAdvance: run.XAdvance + extra + ls, YAdvance: run.YAdvance}
}

// pushMergedRun places a merged multi-segment shape while keeping one
// glyph segment per original text segment. The glyph array is cut at
// cluster starts, so a ligature glyph that straddles a boundary stays
// whole with the segment it began in.
func (b *builder) pushMergedRun(i, j int, run ShapedRun, font Font) {
	start := b.text.SegmentStart(i)
	for k := i; k < j; k++ {
		seg := b.text.Segment(k)
		lo := b.text.SegmentStart(k) - start
		piece := carveRun(run, lo, seg.End-start)
		b.pushWord(seg, start+lo, b.text.Text()[start+lo:seg.End], piece, font)
	}
}

// carveRun extracts the glyphs of a merged shape whose clusters fall in
// [lo, hi), rebasing offsets and clusters to the piece. Monotonic
// cluster order keeps the piece contiguous in the glyph array.
func carveRun(run ShapedRun, lo, hi int) ShapedRun {
	first, last := -1, -1
	for gi := range run.Glyphs {
		c := run.Glyphs[gi].Cluster
		if c < lo || c >= hi {
			continue
		}
		if first < 0 {
			first = gi
		}
		last = gi
	}
	if first < 0 {
		return ShapedRun{}
	}
	x0 := run.Glyphs[first].Offset.X
	width := run.XAdvance - x0
	if last+1 < len(run.Glyphs) {
		width = run.Glyphs[last+1].Offset.X - x0
	}
	glyphs := make([]ShapedGlyph, last+1-first)
	copy(glyphs, run.Glyphs[first:last+1])
	for gi := range glyphs {
		glyphs[gi].Offset.X -= x0
		glyphs[gi].Cluster -= lo
	}
	return ShapedRun{Glyphs: glyphs, XAdvance: width, YAdvance: run.YAdvance}
}

// pushShapedWord shapes segment i and feeds it through word wrap logic.
func (b *builder) pushShapedWord(seg TextSegment, i int) {
	text := b.segmentText(seg, i)
	run, font := b.shape(text, seg)
	run = remapClustersToSource(run, text, b.text.SegmentText(i))
	b.pushWord(seg, b.text.SegmentStart(i), text, run, font)
}

// remapClustersToSource rewrites cluster offsets from a substituted
// string's byte space into the source text's, pairing runes one to one.
// Obscured shaping works on the replacement string, but the cluster map
// must stay addressable by source byte offsets.
func remapClustersToSource(run ShapedRun, shaped, source string) ShapedRun {
	if shaped == source {
		return run
	}
	ord := make(map[int]int, len(shaped))
	n := 0
	for off := range shaped {
		ord[off] = n
		n++
	}
	srcOff := make([]int, 0, n)
	for off := range source {
		srcOff = append(srcOff, off)
	}
	glyphs := make([]ShapedGlyph, len(run.Glyphs))
	copy(glyphs, run.Glyphs)
	for i := range glyphs {
		if k, ok := ord[glyphs[i].Cluster]; ok && k < len(srcOff) {
			glyphs[i].Cluster = srcOff[k]
		}
	}
	run.Glyphs = glyphs
	return run
}

// pushWord places a shaped word-like segment, wrapping, hyphenating or
// hard-splitting as needed.
func (b *builder) pushWord(seg TextSegment, startByte int, text string, run ShapedRun, font Font) {
	for {
		if b.fits(run.XAdvance) {
			b.appendSegment(seg, run, font)
			return
		}

		if run.XAdvance > b.maxWidth {
			// The word cannot fit any line by itself.
			if b.canHyphenate() && b.pushHyphenate(seg, startByte, text, font) {
				return
			}
			if b.args.breakWords(text) {
				b.pushSplitSeg(seg, startByte, run, font)
				return
			}
			// Push it whole; the overflow is accepted.
			if b.origin.X > 0 {
				b.breakLine()
			}
			b.appendSegment(seg, run, font)
			return
		}

		// The wrap width may change after the first line under inline
		// constraints, so re-check after the break instead of appending
		// blindly.
		b.breakLine()
	}
}

// fits reports whether an advance fits on the current line.
func (b *builder) fits(advance float64) bool {
	if !isFinite(b.maxWidth) {
		return true
	}
	return b.origin.X+advance <= b.maxWidth
}

func (b *builder) canHyphenate() bool {
	return b.args.Hyphens == HyphensAuto &&
		b.args.Hyphenate != nil &&
		isFinite(b.maxWidth) &&
		b.args.ObscuringChar == 0
}

// pushSpace places a space segment. Runs longer than two characters may
// split at a wrap; shorter runs hang off the line end, and the wrap
// happens before whatever follows them.
func (b *builder) pushSpace(seg TextSegment, i int) {
	text := b.segmentText(seg, i)
	run, font := b.shape(text, seg)
	run = remapClustersToSource(run, text, b.text.SegmentText(i))
	run.XAdvance += b.args.WordSpacing
	if !b.fits(run.XAdvance) && len([]rune(text)) > 2 {
		b.pushSplitSeg(seg, b.text.SegmentStart(i), run, font)
		return
	}
	b.appendSegment(seg, run, font)
}

// pushTab places a tab run. Each tab advances by the configured tab
// width and wraps independently, rendered with the space glyph.
func (b *builder) pushTab(seg TextSegment, i int) {
	text := b.text.SegmentText(i)
	tab := b.args.TabXAdvance
	if tab <= 0 {
		tab = b.spaceAdvance() * 4
	}

	var font Font
	var space GlyphID
	if len(b.fonts) > 0 {
		font = b.fonts[0]
		space = font.SpaceIndex()
	}

	byteOff := b.text.SegmentStart(i)
	for range text {
		if !b.fits(tab) && b.origin.X > 0 {
			b.breakLine()
		}
		run := ShapedRun{
			Glyphs:   []ShapedGlyph{{GID: space}},
			XAdvance: tab,
		}
		piece := seg
		piece.End = byteOff + 1
		b.appendSegment(piece, run, font)
		byteOff++
	}
}

// spaceAdvance measures a single space in the primary font.
func (b *builder) spaceAdvance() float64 {
	if len(b.fonts) == 0 {
		return 0
	}
	run := b.fonts[0].ShapeSegment(" ", b.shapeKey(" ", TextSegment{Kind: SegmentSpace}))
	return run.XAdvance
}

// hyphenGlyph shapes the hyphen character once per build.
func (b *builder) hyphenGlyph() (ShapedRun, Font) {
	if !b.hyphenValid {
		text := string(b.args.HyphenChar)
		b.hyphenRun, b.hyphenFont = shapeWithFallback(b.fonts, text, b.shapeKey(text, TextSegment{Kind: SegmentWord}))
		b.hyphenValid = true
	}
	return b.hyphenRun, b.hyphenFont
}

// pushHyphenate places a word wider than the line by splitting it at
// hyphenation points. Each pass keeps the largest prefix that fits with
// a trailing hyphen glyph, falling back on the smallest candidate so the
// loop always makes progress. Returns false when no usable candidates
// exist.
func (b *builder) pushHyphenate(seg TextSegment, startByte int, word string, font Font) bool {
	hyphenRun, hyphenFont := b.hyphenGlyph()
	if hyphenFont != nil {
		font = hyphenFont
	}
	placed := false
	byteBase := startByte
	remaining := word
	for remaining != "" {
		run, runFont := b.shape(remaining, seg)
		if b.fits(run.XAdvance) {
			piece := seg
			piece.End = byteBase + len(remaining)
			b.appendSegment(piece, run, runFont)
			return true
		}

		candidates := validSplits(b.args.Hyphenate(b.args.Lang, remaining), remaining)
		if len(candidates) == 0 {
			if !placed {
				return false
			}
			piece := seg
			piece.End = byteBase + len(remaining)
			b.appendSegment(piece, run, runFont)
			return true
		}

		split := candidates[0]
		for k := len(candidates) - 1; k >= 0; k-- {
			prefix, _ := b.shape(remaining[:candidates[k]], seg)
			if b.fits(prefix.XAdvance + hyphenRun.XAdvance) {
				split = candidates[k]
				break
			}
		}

		prefix, prefixFont := b.shape(remaining[:split], seg)
		withHyphen := appendHyphen(prefix, hyphenRun)
		piece := seg
		piece.End = byteBase + split
		b.appendSegment(piece, withHyphen, prefixFont)
		b.breakLine()

		remaining = remaining[split:]
		byteBase += split
		placed = true
	}
	return placed
}

// validSplits filters hyphenation candidates to interior byte offsets.
func validSplits(candidates []int, word string) []int {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c > 0 && c < len(word) {
			out = append(out, c)
		}
	}
	return out
}

// appendHyphen extends a shaped prefix with the hyphen glyph.
func appendHyphen(prefix, hyphen ShapedRun) ShapedRun {
	glyphs := make([]ShapedGlyph, 0, len(prefix.Glyphs)+len(hyphen.Glyphs))
	glyphs = append(glyphs, prefix.Glyphs...)
	for _, g := range hyphen.Glyphs {
		g.Offset.X += prefix.XAdvance
		// The hyphen has no source character; anchor it to the last
		// cluster of the prefix.
		g.Cluster = 0
		if n := len(prefix.Glyphs); n > 0 {
			g.Cluster = prefix.Glyphs[n-1].Cluster
		}
		glyphs = append(glyphs, g)
	}
	return ShapedRun{
		Glyphs:   glyphs,
		XAdvance: prefix.XAdvance + hyphen.XAdvance,
		YAdvance: prefix.YAdvance,
	}
}

// pushSplitSeg hard-splits an already shaped segment at cluster
// boundaries so each piece fits a line, without re-shaping. The shaped
// glyph list is cut at the last glyph whose cumulative advance fits.
func (b *builder) pushSplitSeg(seg TextSegment, startByte int, run ShapedRun, font Font) {
	if clustersDecrease(run) {
		b.pushSplitSegReversed(seg, startByte, run, font)
		return
	}
	for {
		if b.fits(run.XAdvance) || len(run.Glyphs) == 0 {
			b.appendSegment(seg, run, font)
			return
		}

		// Find the last glyph that still fits, then back up to its
		// cluster start so ligatures are never cut mid-cluster.
		cut := 0
		for cut < len(run.Glyphs) && b.fits(glyphAdvance(run, cut+1)) {
			cut++
		}
		for cut > 0 && cut < len(run.Glyphs) && run.Glyphs[cut].Cluster == run.Glyphs[cut-1].Cluster {
			cut--
		}
		if cut == 0 {
			// Nothing fits. Start a fresh line; if even an empty line
			// cannot take one cluster, place the rest unsplit and accept
			// the overflow.
			if b.origin.X > 0 {
				b.breakLine()
				continue
			}
			b.appendSegment(seg, run, font)
			return
		}

		splitByte := run.Glyphs[cut].Cluster
		cutAdvance := glyphAdvance(run, cut)

		first := seg
		first.End = startByte + splitByte
		b.appendSegment(first, ShapedRun{
			Glyphs:   run.Glyphs[:cut],
			XAdvance: cutAdvance,
			YAdvance: run.YAdvance,
		}, font)
		b.breakLine()

		rest := make([]ShapedGlyph, len(run.Glyphs)-cut)
		copy(rest, run.Glyphs[cut:])
		for i := range rest {
			rest[i].Offset.X -= cutAdvance
			rest[i].Cluster -= splitByte
		}
		run = ShapedRun{
			Glyphs:   rest,
			XAdvance: run.XAdvance - cutAdvance,
			YAdvance: run.YAdvance,
		}
		startByte += splitByte
	}
}

// clustersDecrease reports whether the run's cluster offsets go from
// high to low: the visual-order output of right-to-left shaping.
func clustersDecrease(run ShapedRun) bool {
	n := len(run.Glyphs)
	return n > 1 && run.Glyphs[0].Cluster > run.Glyphs[n-1].Cluster
}

// pushSplitSegReversed hard-splits a run whose glyphs carry decreasing
// clusters. The logical text prefix is the visual suffix of the glyph
// array, so the piece placed first keeps the tail of the array and the
// split byte comes from the lowest cluster left in the remainder.
func (b *builder) pushSplitSegReversed(seg TextSegment, startByte int, run ShapedRun, font Font) {
	for {
		if b.fits(run.XAdvance) || len(run.Glyphs) == 0 {
			b.appendSegment(seg, run, font)
			return
		}

		// Find the largest glyph suffix that fits, then push the cut
		// forward to a cluster start so ligatures are never cut
		// mid-cluster.
		k := 0
		for k < len(run.Glyphs) && !b.fits(run.XAdvance-glyphAdvance(run, k)) {
			k++
		}
		for k > 0 && k < len(run.Glyphs) && run.Glyphs[k].Cluster == run.Glyphs[k-1].Cluster {
			k++
		}
		if k >= len(run.Glyphs) {
			// Nothing fits. Start a fresh line; if even an empty line
			// cannot take one cluster, place the rest unsplit and accept
			// the overflow.
			if b.origin.X > 0 {
				b.breakLine()
				continue
			}
			b.appendSegment(seg, run, font)
			return
		}

		splitByte := run.Glyphs[k-1].Cluster
		restAdvance := glyphAdvance(run, k)

		kept := make([]ShapedGlyph, len(run.Glyphs)-k)
		copy(kept, run.Glyphs[k:])
		for i := range kept {
			kept[i].Offset.X -= restAdvance
		}
		first := seg
		first.End = startByte + splitByte
		b.appendSegment(first, ShapedRun{
			Glyphs:   kept,
			XAdvance: run.XAdvance - restAdvance,
			YAdvance: run.YAdvance,
		}, font)
		b.breakLine()

		rest := make([]ShapedGlyph, k)
		copy(rest, run.Glyphs[:k])
		for i := range rest {
			rest[i].Cluster -= splitByte
		}
		run = ShapedRun{
			Glyphs:   rest,
			XAdvance: restAdvance,
			YAdvance: run.YAdvance,
		}
		startByte += splitByte
	}
}

// glyphAdvance returns the cumulative advance of the first n glyphs.
func glyphAdvance(run ShapedRun, n int) float64 {
	if n >= len(run.Glyphs) {
		return run.XAdvance
	}
	return run.Glyphs[n].Offset.X
}

// appendSegment emits a shaped segment at the current pen position.
func (b *builder) appendSegment(seg TextSegment, run ShapedRun, font Font) {
	out := b.out
	penY := b.penY()
	for _, g := range run.Glyphs {
		out.glyphs = append(out.glyphs, GlyphInstance{
			GID: g.GID,
			Point: Point{
				X: b.origin.X + g.Offset.X,
				Y: penY + g.Offset.Y,
			},
		})
		out.clusters = append(out.clusters, g.Cluster)
	}
	if len(run.Glyphs) > 0 {
		b.appendFontRun(font, len(out.glyphs))
		if seg.Kind == SegmentEmoji {
			b.probeEmojiGlyphs(font, len(out.glyphs)-len(run.Glyphs), run)
		}
	}
	out.segments = append(out.segments, GlyphSegment{
		TextSegment: seg,
		End:         len(out.glyphs),
		X:           b.origin.X,
		Advance:     run.XAdvance,
	})
	if seg.Kind != SegmentLineBreak {
		if seg.Direction() == DirectionRTL {
			b.lineHasRTL = true
		} else {
			b.lineHasLTR = true
		}
	}
	b.origin.X += run.XAdvance
}

// appendEmptySegment emits a zero-glyph segment (explicit line breaks).
func (b *builder) appendEmptySegment(seg TextSegment) {
	b.out.segments = append(b.out.segments, GlyphSegment{
		TextSegment: seg,
		End:         len(b.out.glyphs),
		X:           b.origin.X,
	})
}

// appendFontRun extends or starts the trailing font range.
func (b *builder) appendFontRun(font Font, end int) {
	fonts := b.out.fonts
	if n := len(fonts); n > 0 && fonts[n-1].Font == font {
		b.out.fonts[n-1].End = end
		return
	}
	b.out.fonts = append(b.out.fonts, FontRange{Font: font, End: end})
}

// probeEmojiGlyphs checks shaped emoji glyphs against the font's color
// and image tables, recording overlays and the colored-glyph flag.
func (b *builder) probeEmojiGlyphs(font Font, glyphStart int, run ShapedRun) {
	cf, hasColor := font.(ColorFont)
	imf, hasImage := font.(ImageFont)
	if !hasColor && !hasImage {
		return
	}
	for i, g := range run.Glyphs {
		if hasColor {
			if _, ok := cf.ColorGlyph(g.GID); ok {
				b.out.hasColoredGlyphs = true
				continue
			}
		}
		if !hasImage {
			continue
		}
		bmp, ok := imf.ImageGlyph(g.GID)
		if !ok {
			continue
		}
		var handle ImageVar
		if cache := imageCache(); cache != nil {
			handle = cache.Cache(bitmapSource{data: bmp.Pixels, format: ImageDataBGRA8})
		} else {
			handle = staticImage{size: Size{Width: float64(bmp.Width), Height: float64(bmp.Height)}}
		}
		b.out.images = append(b.out.images, imageGlyph{
			index:  glyphStart + i,
			image:  handle,
			bitmap: bmp,
		})
	}
}

// penY returns the baseline y of the line being built.
func (b *builder) penY() float64 {
	return b.origin.Y + b.out.lineHeight - b.out.baseline
}

// breakLine closes the current line and moves the pen to the next one.
func (b *builder) breakLine() {
	b.closeLine()
	out := b.out
	b.origin.X = 0
	b.origin.Y += out.lineHeight + out.lineSpacing
	if len(out.lines) == 1 {
		// The first line's inline width cap no longer applies, and any
		// interior clearance starts here.
		b.maxWidth = b.args.MaxWidth
		b.origin.Y += out.midClear
	}
	if len(out.lines) == 1 && out.lines[0].End > 0 {
		last := out.segments[out.lines[0].End-1]
		out.firstWrapped = last.TextSegment.Kind != SegmentLineBreak
	}
	b.lineHasLTR = false
	b.lineHasRTL = false
}

// closeLine records the current line range and applies bidi reordering.
func (b *builder) closeLine() {
	out := b.out
	start := 0
	if n := len(out.lines); n > 0 {
		start = out.lines[n-1].End
	}

	var dirs LineDirections
	if b.lineHasLTR {
		dirs |= LineLTR
	}
	if b.lineHasRTL {
		dirs |= LineRTL
	}
	if dirs == 0 {
		dirs = LineLTR
		if out.direction == DirectionRTL {
			dirs = LineRTL
		}
	}

	width := b.origin.X
	out.lines = append(out.lines, LineRange{
		End:        len(out.segments),
		Width:      width,
		Directions: dirs,
	})

	switch dirs {
	case LineRTL:
		b.reverseLine(start, len(out.segments), width)
	case LineBidi:
		b.reorderLineBidi(start, len(out.segments))
	}
	out.debugAssertRanges()
}

// reverseLine flips a pure RTL line in place: each segment lands at
// width minus its logical end.
func (b *builder) reverseLine(segStart, segEnd int, width float64) {
	out := b.out
	for i := segStart; i < segEnd; i++ {
		seg := &out.segments[i]
		newX := width - seg.X - seg.Advance
		b.shiftSegmentGlyphs(i, newX-seg.X)
		seg.X = newX
	}
}

// reorderLineBidi rewrites a mixed-direction line into visual LTR order,
// recomputing segment x offsets left to right.
func (b *builder) reorderLineBidi(segStart, segEnd int) {
	out := b.out
	levels := make([]uint8, segEnd-segStart)
	for i := segStart; i < segEnd; i++ {
		levels[i-segStart] = out.segments[i].TextSegment.Level
	}
	order := ReorderLevels(levels)

	x := 0.0
	for _, idx := range order {
		i := segStart + idx
		seg := &out.segments[i]
		if seg.TextSegment.Kind == SegmentLineBreak {
			continue
		}
		b.shiftSegmentGlyphs(i, x-seg.X)
		seg.X = x
		x += seg.Advance
	}
}

// shiftSegmentGlyphs moves all glyphs of segment i horizontally by dx.
func (b *builder) shiftSegmentGlyphs(i int, dx float64) {
	if dx == 0 {
		return
	}
	out := b.out
	for g := out.segStartGlyph(i); g < out.segments[i].End; g++ {
		out.glyphs[g].Point.X += dx
	}
}

// finishLastLine closes the trailing line and fixes up the block rects.
func (b *builder) finishLastLine() {
	out := b.out
	// Always at least one line, even for empty text. A trailing hard
	// break leaves the pen on a fresh line that still must be recorded.
	needClose := len(out.lines) == 0
	if !needClose {
		last := out.lines[len(out.lines)-1]
		if last.End < len(out.segments) {
			needClose = true
		} else if last.End > 0 && out.segments[last.End-1].TextSegment.Kind == SegmentLineBreak {
			needClose = true
		}
	}
	if needClose {
		b.closeLine()
	}

	out.firstLine = NewRect(0, 0, out.lines[0].Width, out.lineHeight)
	last := len(out.lines) - 1
	out.lastLine = NewRect(0, out.flowLineTop(last), out.lines[last].Width, out.lineHeight)
	out.midSize = out.MidSize()
}
