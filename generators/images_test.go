package generators

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func brightPixels(img *image.RGBA, rows image.Rectangle) int {
	n := 0
	for y := rows.Min.Y; y < rows.Max.Y; y++ {
		for x := rows.Min.X; x < rows.Max.X; x++ {
			if img.RGBAAt(x, y).R > 200 {
				n++
			}
		}
	}
	return n
}

func TestParsePosition(t *testing.T) {
	tests := map[string]Position{
		"bottom_center": BottomCenter,
		"center":        Center,
		"top_center":    TopCenter,
		"":              BottomCenter,
		"left":          BottomCenter,
	}
	for in, want := range tests {
		if got := ParsePosition(in); got != want {
			t.Errorf("ParsePosition(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLayoutPositions(t *testing.T) {
	o := NewOverlay(goBoldFonts{})
	text := "Space is vast and full of mysteries."

	bottom, _ := o.Layout(1080, 1920, text, BottomCenter)
	if bottom.FontSize != 34 || bottom.Margin != 108 || bottom.MaxWidth != 864 {
		t.Fatalf("unexpected geometry: %+v", bottom)
	}
	if want := 1920 - 480 - bottom.Height()/2; bottom.StartY != want {
		t.Errorf("bottom_center StartY = %d, want %d", bottom.StartY, want)
	}

	center, _ := o.Layout(1080, 1920, text, Center)
	if want := 960 - center.Height()/2; center.StartY != want {
		t.Errorf("center StartY = %d, want %d", center.StartY, want)
	}

	top, _ := o.Layout(1080, 1920, text, TopCenter)
	if top.StartY != 192 {
		t.Errorf("top_center StartY = %d, want 192", top.StartY)
	}

	unknown, _ := o.Layout(1080, 1920, text, Position("diagonal"))
	if unknown.StartY != bottom.StartY {
		t.Errorf("unknown position StartY = %d, want bottom_center %d", unknown.StartY, bottom.StartY)
	}
}

func TestLayoutIsResolutionIndependent(t *testing.T) {
	o := NewOverlay(goBoldFonts{})
	text := "Jupiter has the shortest day of all the planets in the Solar System."

	small, _ := o.Layout(540, 960, text, BottomCenter)
	large, _ := o.Layout(1080, 1920, text, BottomCenter)

	ratio := func(v, w int) float64 { return float64(v) / float64(w) }
	if d := math.Abs(ratio(small.FontSize, 540) - ratio(large.FontSize, 1080)); d > 1.0/540 {
		t.Errorf("font ratio differs by %v", d)
	}
	if d := math.Abs(ratio(small.Margin, 540) - ratio(large.Margin, 1080)); d > 1.0/540 {
		t.Errorf("margin ratio differs by %v", d)
	}
	if len(small.Lines) == 0 || len(large.Lines) == 0 {
		t.Fatal("no lines")
	}
}

func TestApplyDrawsText(t *testing.T) {
	src := solid(1080, 1920, color.NRGBA{R: 5, G: 5, B: 30, A: 255})
	o := NewOverlay(goBoldFonts{})

	out, err := o.Apply(src, "Space is vast and full of mysteries.", BottomCenter)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}

	l, _ := o.Layout(1080, 1920, "Space is vast and full of mysteries.", BottomCenter)
	band := image.Rect(0, l.StartY-l.LineHeight, 1080, l.StartY+l.Height()+l.LineHeight)
	if brightPixels(out, band) == 0 {
		t.Error("no text pixels in the bottom band")
	}
	if brightPixels(out, image.Rect(0, 0, 1080, 900)) != 0 {
		t.Error("text drawn outside the bottom band")
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := solid(300, 400, color.NRGBA{R: 20, G: 40, B: 60, A: 128})
	before := bytes.Clone(src.Pix)

	out, err := NewOverlay(goBoldFonts{}).Apply(src, "The Moon is drifting away from Earth.", Center)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Fatal("source image was modified")
	}
	if a := out.RGBAAt(0, 0).A; a != 0xff {
		t.Errorf("output alpha = %d, want opaque", a)
	}
}

func TestApplyEmptyText(t *testing.T) {
	src := solid(200, 200, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	out, err := NewOverlay(goBoldFonts{}).Apply(src, "   ", BottomCenter)
	if err != nil {
		t.Fatal(err)
	}
	if brightPixels(out, out.Bounds()) != 0 {
		t.Error("empty text painted pixels")
	}
}

func TestApplyRejectsInvalidImage(t *testing.T) {
	o := NewOverlay(goBoldFonts{})
	if _, err := o.Apply(nil, "x", BottomCenter); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("nil image: err = %v", err)
	}
	if _, err := o.Apply(image.NewRGBA(image.Rect(0, 0, 0, 10)), "x", BottomCenter); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("empty image: err = %v", err)
	}
}

func TestApplyWithUnavailableFont(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewFontResolver(FontConfig{CacheDir: filepath.Join(blocker, "fonts")},
		WithFetcher(&countingFetcher{err: errors.New("no route to host")}))

	src := solid(1080, 1920, color.NRGBA{A: 255})
	out, err := NewOverlay(r).Apply(src, "Space is vast and full of mysteries.", BottomCenter)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 1080 || out.Bounds().Dy() != 1920 {
		t.Errorf("bounds = %v", out.Bounds())
	}
	if brightPixels(out, out.Bounds()) == 0 {
		t.Error("fallback face drew nothing")
	}
}

func TestApplyColors(t *testing.T) {
	src := solid(400, 400, color.NRGBA{A: 255})
	red := color.RGBA{R: 255, A: 255}
	out, err := NewOverlay(goBoldFonts{}, WithColors(red, nil)).Apply(src, "Mars", Center)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := out.RGBAAt(x, y); c.R > 200 && c.G < 50 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("fill colour not used")
	}
}
