package shapedtext

import (
	"math"

	"github.com/go-text/typesetting/language"
)

// LineBreakMode selects where soft wrapping may split text.
type LineBreakMode uint8

const (
	// LineBreakNormal wraps at word boundaries, hard-splitting only words
	// that cannot fit a line by themselves.
	LineBreakNormal LineBreakMode = iota
	// LineBreakBreakAll allows hard-splitting any word on wrap.
	LineBreakBreakAll
	// LineBreakKeepAll disables the CJK hard-split heuristic.
	LineBreakKeepAll
)

// String returns the string representation of the line break mode.
func (m LineBreakMode) String() string {
	switch m {
	case LineBreakNormal:
		return "Normal"
	case LineBreakBreakAll:
		return "BreakAll"
	case LineBreakKeepAll:
		return "KeepAll"
	default:
		return unknownStr
	}
}

// WordBreakMode selects how words that overflow a line are broken.
type WordBreakMode uint8

const (
	// WordBreakNormal keeps words whole unless nothing else fits.
	WordBreakNormal WordBreakMode = iota
	// WordBreakBreakAll prefers hard-splitting overflowing words.
	WordBreakBreakAll
)

// Hyphens controls automatic hyphenation of words that overflow a line.
type Hyphens uint8

const (
	// HyphensNone disables hyphenation.
	HyphensNone Hyphens = iota
	// HyphensAuto hyphenates via the configured [Hyphenator].
	HyphensAuto
)

// String returns the string representation of the hyphens mode.
func (h Hyphens) String() string {
	switch h {
	case HyphensNone:
		return "None"
	case HyphensAuto:
		return "Auto"
	default:
		return unknownStr
	}
}

// Hyphenator returns candidate split points for a word as byte offsets
// into the word, in increasing order. Dictionary lookup is external to
// this package; a nil Hyphenator disables hyphenation regardless of the
// Hyphens mode.
type Hyphenator func(lang language.Language, word string) []int

// InlineConstraints are supplied by a parent inline layout when the
// shaped block participates in a larger row of inline content.
type InlineConstraints struct {
	// FirstMaxWidth is the max width available to the first line, which
	// may be smaller than MaxWidth when the line starts mid-row.
	FirstMaxWidth float64

	// MidClear is an extra vertical offset applied to the lines between
	// the first and the last.
	MidClear float64
}

// InlineConstraintsLayout carries exact first/last line rectangles from a
// parent inliner into [ShapedText.ReshapeLines].
type InlineConstraintsLayout struct {
	// FirstLine is the exact rectangle of the first line within the
	// parent row.
	FirstLine Rect

	// LastLine is the exact rectangle of the last line.
	LastLine Rect

	// MidClear is the extra vertical offset of the interior lines.
	MidClear float64
}

// Feature is an OpenType feature setting passed through to shaping.
type Feature struct {
	// Tag is the four-byte feature tag, e.g. "liga".
	Tag string

	// Value is the feature value; 0 disables, 1 enables.
	Value uint32
}

// ShapingArgs configures a [Shape] call.
type ShapingArgs struct {
	// LetterSpacing is extra advance added at every cluster boundary.
	LetterSpacing float64

	// WordSpacing is extra advance added to every space segment.
	WordSpacing float64

	// LineHeight is the height of each line. Zero means the font's
	// natural line height.
	LineHeight float64

	// LineSpacing is the extra vertical gap between lines.
	LineSpacing float64

	// Lang is the text language, used in the shape-context key and
	// passed to the Hyphenator.
	Lang language.Language

	// Direction is the paragraph base direction.
	Direction Direction

	// IgnoreLigatures disables the ligature-across-segments merge pass
	// and requests "liga off" from shaping.
	IgnoreLigatures bool

	// DisableKerning requests "kern off" from shaping.
	DisableKerning bool

	// TabXAdvance is the advance of one tab character.
	TabXAdvance float64

	// Inline is set when the block participates in inline layout.
	Inline *InlineConstraints

	// FontFeatures are extra OpenType features for shaping.
	FontFeatures []Feature

	// MaxWidth is the wrap width. math.Inf(1) disables wrapping.
	MaxWidth float64

	// LineBreak selects soft wrapping behavior.
	LineBreak LineBreakMode

	// WordBreak selects overflowing-word behavior.
	WordBreak WordBreakMode

	// Hyphens enables hyphenation of overflowing words.
	Hyphens Hyphens

	// Hyphenate supplies candidate split points when Hyphens is
	// HyphensAuto.
	Hyphenate Hyphenator

	// HyphenChar is the character rendered at a hyphenation break.
	HyphenChar rune

	// ObscuringChar, when non-zero, replaces every word/space character
	// (password rendering). Hyphenation is disabled while obscuring.
	ObscuringChar rune
}

// DefaultShapingArgs returns args with an unbounded wrap width, "-" as
// the hyphen character and a 4-space-equivalent tab advance left to the
// caller to resolve against the font.
func DefaultShapingArgs() *ShapingArgs {
	return &ShapingArgs{
		Lang:       language.NewLanguage("en"),
		MaxWidth:   math.Inf(1),
		HyphenChar: '-',
	}
}

// breakWords reports whether overflowing words in the given text should
// be hard-split rather than pushed whole onto a new line.
//
// BreakAll modes force splitting; otherwise CJK text splits unless
// KeepAll is requested.
func (a *ShapingArgs) breakWords(word string) bool {
	if a.LineBreak == LineBreakBreakAll || a.WordBreak == WordBreakBreakAll {
		return true
	}
	if a.LineBreak == LineBreakKeepAll {
		return false
	}
	for _, r := range word {
		if isCJKRune(r) {
			return true
		}
	}
	return false
}

// features resolves the final feature list for shaping.
func (a *ShapingArgs) features() []Feature {
	feats := a.FontFeatures
	if a.IgnoreLigatures {
		feats = append(feats[:len(feats):len(feats)], Feature{Tag: "liga", Value: 0})
	}
	if a.DisableKerning {
		feats = append(feats[:len(feats):len(feats)], Feature{Tag: "kern", Value: 0})
	}
	return feats
}
