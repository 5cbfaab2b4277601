package shapedtext

import (
	"unicode"

	"golang.org/x/text/unicode/bidi"
)

// SegmentKind classifies a text segment for layout purposes.
type SegmentKind uint8

const (
	// SegmentWord is a run of word characters.
	SegmentWord SegmentKind = iota
	// SegmentSpace is a run of space characters.
	SegmentSpace
	// SegmentTab is a run of tab characters.
	SegmentTab
	// SegmentLineBreak is an explicit line break marker ("\n", "\r\n").
	SegmentLineBreak
	// SegmentEmoji is a word-like run rendered with emoji presentation.
	SegmentEmoji
)

// String returns the string representation of the segment kind.
func (k SegmentKind) String() string {
	switch k {
	case SegmentWord:
		return "Word"
	case SegmentSpace:
		return "Space"
	case SegmentTab:
		return "Tab"
	case SegmentLineBreak:
		return "LineBreak"
	case SegmentEmoji:
		return "Emoji"
	default:
		return unknownStr
	}
}

// IsWordLike reports whether the segment shapes like a word.
func (k SegmentKind) IsWordLike() bool {
	return k == SegmentWord || k == SegmentEmoji
}

// TextSegment is one word, space run, tab run, line break or emoji unit as
// classified by upstream segmentation.
type TextSegment struct {
	// Kind is the layout classification of the segment.
	Kind SegmentKind

	// Level is the resolved bidi embedding level. Odd levels are
	// right-to-left.
	Level uint8

	// End is the exclusive end byte offset of the segment in the full text.
	End int
}

// Direction returns the segment direction implied by its bidi level.
func (s TextSegment) Direction() Direction {
	if s.Level%2 == 1 {
		return DirectionRTL
	}
	return DirectionLTR
}

// SegmentedText is text that has already been split into layout segments
// with resolved bidi levels. It is the input of [Shape].
//
// Segments are stored as exclusive end offsets; segment i spans
// [segments[i-1].End, segments[i].End) in the text.
type SegmentedText struct {
	text     string
	segments []TextSegment
	base     Direction
}

// NewSegmentedText wraps text and precomputed segments.
// The segments must cover the text in order; the last segment's End must
// equal len(text).
func NewSegmentedText(text string, segments []TextSegment, base Direction) *SegmentedText {
	return &SegmentedText{text: text, segments: segments, base: base}
}

// Text returns the full text.
func (t *SegmentedText) Text() string { return t.text }

// Len returns the number of segments.
func (t *SegmentedText) Len() int { return len(t.segments) }

// BaseDirection returns the paragraph base direction.
func (t *SegmentedText) BaseDirection() Direction { return t.base }

// Segment returns segment i.
func (t *SegmentedText) Segment(i int) TextSegment { return t.segments[i] }

// SegmentStart returns the start byte offset of segment i.
func (t *SegmentedText) SegmentStart(i int) int {
	if i == 0 {
		return 0
	}
	return t.segments[i-1].End
}

// SegmentText returns the text of segment i.
func (t *SegmentedText) SegmentText(i int) string {
	return t.text[t.SegmentStart(i):t.segments[i].End]
}

// ReorderLineToLTR returns the segment indices of [start, end) in visual
// left-to-right order, per the Unicode bidi algorithm's reordering step.
func (t *SegmentedText) ReorderLineToLTR(start, end int) []int {
	levels := make([]uint8, end-start)
	for i := start; i < end; i++ {
		levels[i-start] = t.segments[i].Level
	}
	order := ReorderLevels(levels)
	for i := range order {
		order[i] += start
	}
	return order
}

// ReorderLevels computes the visual left-to-right order of a line's runs
// from their bidi embedding levels (rule L2 of the Unicode bidi
// algorithm): from the highest level down to the lowest odd level, every
// maximal run of entries at or above that level is reversed.
//
// The returned slice maps visual position to logical index.
func ReorderLevels(levels []uint8) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}

	var maxLevel, minOdd uint8
	minOdd = 255
	for _, l := range levels {
		if l > maxLevel {
			maxLevel = l
		}
		if l%2 == 1 && l < minOdd {
			minOdd = l
		}
	}
	if minOdd == 255 {
		return order
	}

	for level := maxLevel; level >= minOdd; level-- {
		i := 0
		for i < len(levels) {
			if levels[order[i]] < level {
				i++
				continue
			}
			j := i
			for j < len(levels) && levels[order[j]] >= level {
				j++
			}
			reverse(order[i:j])
			i = j
		}
		if level == 0 {
			break
		}
	}
	return order
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Segment splits text into word/space/tab/line-break/emoji segments with
// bidi levels resolved by golang.org/x/text/unicode/bidi.
//
// This is a convenience front door; callers with their own segmentation
// (e.g. a widget framework's text model) construct a [SegmentedText]
// directly via [NewSegmentedText].
func Segment(text string, base Direction) *SegmentedText {
	if text == "" {
		return &SegmentedText{text: text, base: base}
	}

	levels := bidiLevels(text, base)

	var segments []TextSegment
	runes := []rune(text)
	offset := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		kind := classifySegmentRune(r)
		level := levels[i]

		j := i
		switch kind {
		case SegmentLineBreak:
			// "\r\n" is one break; other break runes stand alone.
			j++
			if r == '\r' && j < len(runes) && runes[j] == '\n' {
				j++
			}
		default:
			for j < len(runes) && classifySegmentRune(runes[j]) == kind && levels[j] == level {
				j++
			}
		}

		end := offset
		for k := i; k < j; k++ {
			end += len(string(runes[k]))
		}
		segments = append(segments, TextSegment{Kind: kind, Level: level, End: end})
		offset = end
		i = j
	}

	return &SegmentedText{text: text, segments: segments, base: base}
}

// classifySegmentRune maps a rune to the kind of segment it belongs to.
func classifySegmentRune(r rune) SegmentKind {
	switch {
	case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
		return SegmentLineBreak
	case r == '\t':
		return SegmentTab
	case unicode.IsSpace(r):
		return SegmentSpace
	case isEmojiRune(r):
		return SegmentEmoji
	default:
		return SegmentWord
	}
}

// bidiLevels resolves a per-rune bidi level for the text.
func bidiLevels(text string, base Direction) []uint8 {
	runes := []rune(text)
	levels := make([]uint8, len(runes))
	if base == DirectionRTL {
		for i := range levels {
			levels[i] = 1
		}
	}

	defaultDir := bidi.Neutral
	if base == DirectionRTL {
		defaultDir = bidi.RightToLeft
	}

	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(defaultDir)); err != nil {
		return levels
	}
	ordering, err := p.Order()
	if err != nil {
		return levels
	}

	// run.Pos() returns rune indices (start, end inclusive).
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		startRune, endRune := run.Pos()
		var runLevel uint8
		if run.Direction() == bidi.RightToLeft {
			runLevel = 1
		}
		for j := startRune; j <= endRune && j < len(levels); j++ {
			levels[j] = runLevel
		}
	}
	return levels
}

// isEmojiRune reports whether the rune has default emoji presentation.
// This covers the common pictographic blocks; fonts decide the final
// rendering via their color tables.
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // Misc Symbols and Pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // Emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // Transport and Map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // Supplemental Symbols
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // Symbols and Pictographs Extended-A
		return true
	case r >= 0x2600 && r <= 0x27BF: // Misc Symbols, Dingbats
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // Regional indicators
		return true
	case r == 0x200D || r == 0xFE0F: // ZWJ, variation selector 16
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // Skin tone modifiers
		return true
	default:
		return false
	}
}

// isCJKRune reports whether the rune is a CJK character that allows
// breaking at any boundary.
func isCJKRune(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x20000 && r <= 0x2A6DF) || // CJK Extension B
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) || // Hangul Syllables
		(r >= 0xFF00 && r <= 0xFFEF) // Fullwidth forms
}
