package generators

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/text/unicode/norm"
)

// Proportions of the overlay relative to the image.
const (
	FontSizeRatio = 0.032 // font pixel size / image width
	MarginRatio   = 0.10  // horizontal margin on each side / image width
	BottomBand    = 0.25  // bottom_center: block centre sits this far above the bottom, / image height
	TopOffset     = 0.10  // top_center: block start / image height

	LinePadding  = 10 // px added below each line
	ShadowOffset = 2  // px, right and down
)

// ErrInvalidImage is returned for a nil or empty source image.
var ErrInvalidImage = errors.New("overlay: image is nil or empty")

// Position selects where the text block is placed vertically.
type Position string

// Supported positions.
const (
	BottomCenter Position = "bottom_center"
	Center       Position = "center"
	TopCenter    Position = "top_center"
)

// ParsePosition maps s to a Position. Unknown values mean BottomCenter.
func ParsePosition(s string) Position {
	switch p := Position(s); p {
	case BottomCenter, Center, TopCenter:
		return p
	default:
		return BottomCenter
	}
}

// Layout is the geometry of a text block on an image.
type Layout struct {
	FontSize   int
	Margin     int
	MaxWidth   float64
	LineHeight int
	StartY     int // vertical centre of the first line
	CenterX    int
	Lines      []string
}

// Height of the whole block.
func (l Layout) Height() int { return l.LineHeight * len(l.Lines) }

// OverlayOption customizes an Overlay.
type OverlayOption func(*Overlay)

// WithColors sets the text and shadow colours.
func WithColors(fill, shadow color.Color) OverlayOption {
	return func(o *Overlay) {
		if fill != nil {
			o.fill = fill
		}
		if shadow != nil {
			o.shadow = shadow
		}
	}
}

// Overlay paints wrapped, centred, shadowed text onto images.
type Overlay struct {
	fonts  FaceResolver
	fill   color.Color
	shadow color.Color
}

// NewOverlay returns an Overlay that draws with faces from fonts.
func NewOverlay(fonts FaceResolver, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		fonts:  fonts,
		fill:   color.White,
		shadow: color.Black,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Layout computes the text block for a width x height image without drawing.
func (o *Overlay) Layout(width, height int, text string, pos Position) (Layout, *Face) {
	size := int(float64(width) * FontSizeRatio)
	face := o.fonts.Resolve(size)

	margin := int(float64(width) * MarginRatio)
	l := Layout{
		FontSize: face.Size,
		Margin:   margin,
		MaxWidth: float64(width - 2*margin),
		CenterX:  width / 2,
	}
	l.Lines = Wrap(norm.NFC.String(text), face, l.MaxWidth)
	l.LineHeight = lineHeight(face) + LinePadding

	switch ParsePosition(string(pos)) {
	case Center:
		l.StartY = height/2 - l.Height()/2
	case TopCenter:
		l.StartY = int(float64(height) * TopOffset)
	default:
		l.StartY = height - int(float64(height)*BottomBand) - l.Height()/2
	}
	return l, face
}

// Apply returns a copy of src with text drawn on it. src is not modified.
func (o *Overlay) Apply(src image.Image, text string, pos Position) (*image.RGBA, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrInvalidImage
	}

	dc := gg.NewContextForImage(opaqueCopy(src))
	l, face := o.Layout(dc.Width(), dc.Height(), text, pos)
	dc.SetFontFace(face)

	// DrawStringAnchored with ay=0 puts the baseline at y; shift it so the
	// line's ascender-descender midpoint lands on the cursor instead.
	m := face.Metrics()
	toBaseline := float64(m.Ascent-m.Descent) / 64 / 2

	x := float64(l.CenterX)
	y := float64(l.StartY)
	for _, line := range l.Lines {
		baseline := y + toBaseline
		dc.SetColor(o.shadow)
		dc.DrawStringAnchored(line, x+ShadowOffset, baseline+ShadowOffset, 0.5, 0)
		dc.SetColor(o.fill)
		dc.DrawStringAnchored(line, x, baseline, 0.5, 0)
		y += float64(l.LineHeight)
	}

	return dc.Image().(*image.RGBA), nil
}

// lineHeight is the distance from the ascender line to the bottom of the
// descender in "Ay".
func lineHeight(face font.Face) int {
	bounds, _ := font.BoundString(face, "Ay")
	return (face.Metrics().Ascent + bounds.Max.Y).Ceil()
}

// opaqueCopy clones img and drops its alpha channel.
func opaqueCopy(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
