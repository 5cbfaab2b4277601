package shapedtext

import "math"

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// Direction specifies base text direction.
type Direction int

const (
	// DirectionLTR is left-to-right text (English, French, etc.)
	DirectionLTR Direction = iota
	// DirectionRTL is right-to-left text (Arabic, Hebrew)
	DirectionRTL
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionLTR:
		return "LTR"
	case DirectionRTL:
		return "RTL"
	default:
		return unknownStr
	}
}

// LineDirections records which directions occur on a shaped line.
type LineDirections uint8

const (
	// LineLTR marks a line containing left-to-right segments.
	LineLTR LineDirections = 1 << iota
	// LineRTL marks a line containing right-to-left segments.
	LineRTL

	// LineBidi marks a mixed-direction line.
	LineBidi = LineLTR | LineRTL
)

// String returns the string representation of the line directions.
func (d LineDirections) String() string {
	switch d {
	case LineLTR:
		return "LTR"
	case LineRTL:
		return "RTL"
	case LineBidi:
		return "Bidi"
	default:
		return unknownStr
	}
}

// Point is a 2D position in layout units.
type Point struct {
	X, Y float64
}

// Size is a 2D extent in layout units.
type Size struct {
	Width, Height float64
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Rect is an axis-aligned rectangle in layout units.
type Rect struct {
	Origin Point
	Size   Size
}

// NewRect creates a rectangle from origin coordinates and extents.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Origin: Point{X: x, Y: y}, Size: Size{Width: w, Height: h}}
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.Width }

// MaxY returns the bottom edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.Height }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Size.Width <= 0 || r.Size.Height <= 0 }

// Align places content inside the available space.
//
// X and Y are fractional offsets: 0 aligns to the start edge, 0.5 centers,
// 1 aligns to the end edge. FillX/FillY stretch the content to the
// available space instead; for text, FillX enables justification.
// Baseline anchors the block so the last line's baseline sits at the
// Y-aligned position.
type Align struct {
	X, Y         float64
	FillX, FillY bool
	Baseline     bool
}

// Common alignments.
var (
	AlignTopLeft  = Align{}
	AlignCenter   = Align{X: 0.5, Y: 0.5}
	AlignTopRight = Align{X: 1}
	AlignFill     = Align{FillX: true, FillY: true}
	AlignBaseline = Align{Baseline: true}
)

// IsFillX reports whether the alignment stretches on the x axis.
func (a Align) IsFillX() bool { return a.FillX }

// IsBaseline reports whether baseline anchoring is enabled.
func (a Align) IsBaseline() bool { return a.Baseline }

// Justify selects how extra line space is distributed when the alignment
// fills on the x axis.
type Justify uint8

const (
	// JustifyAuto resolves by language: inter-letter for scripts written
	// without inter-word spaces, inter-word otherwise.
	JustifyAuto Justify = iota
	// JustifyNone disables justification.
	JustifyNone
	// JustifyInterWord distributes space at space segments.
	JustifyInterWord
	// JustifyInterLetter distributes space at cluster boundaries inside
	// words and spaces.
	JustifyInterLetter
)

// String returns the string representation of the justify mode.
func (j Justify) String() string {
	switch j {
	case JustifyAuto:
		return "Auto"
	case JustifyNone:
		return "None"
	case JustifyInterWord:
		return "InterWord"
	case JustifyInterLetter:
		return "InterLetter"
	default:
		return unknownStr
	}
}

// isFinite reports whether v is neither infinite nor NaN.
// Unconstrained widths are represented as +Inf.
func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
